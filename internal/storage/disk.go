package storage

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/tansaku/internal/config"
)

// StoreFiles lists the on-disk paths a local backend writes. Remote and
// in-memory backends have none.
func StoreFiles(cfg *config.StoreConfig) []string {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		if cfg.Path == "" {
			return nil
		}
		return []string{cfg.Path, cfg.Path + "-wal", cfg.Path + "-shm"}
	case config.BackendBadger:
		if cfg.Path == "" {
			return nil
		}
		return []string{cfg.Path}
	default:
		return nil
	}
}

// StoreDiskUsage returns the bytes used by the configured store and whether
// the figure applies to this backend.
func StoreDiskUsage(cfg *config.StoreConfig) (int64, bool, error) {
	files := StoreFiles(cfg)
	if len(files) == 0 {
		return 0, false, nil
	}
	n, err := DiskUsageBytes(files...)
	return n, err == nil, err
}

// DiskUsageBytes returns the total size of the given files and directories.
// Missing and empty paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		n, err := dirSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
