// Package fileid derives stable content ids for items imported from files.
package fileid

import (
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// ItemID returns a deterministic UUID for the item at index in the file at
// sourcePath. Re-importing the same file yields the same ids, so records are
// updated in place rather than duplicated.
func ItemID(sourcePath string, index int, title string) string {
	key := "file://" + filepath.Clean(sourcePath) + "#" + strconv.Itoa(index) + "/" + title
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
