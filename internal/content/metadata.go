package content

import (
	"strconv"
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/vector"
)

// Metadata keys stored alongside each vector.
const (
	KeyTitle      = "title"
	KeyCategory   = "category"
	KeyTags       = "tags"
	KeyDifficulty = "difficulty"
	KeyReadTime   = "read_time"
	KeyAuthor     = "author"
	KeyCreatedAt  = "created_at"
)

// Metadata flattens item into store metadata. Tags are comma-joined.
func Metadata(item *models.ContentItem) map[string]string {
	return map[string]string{
		KeyTitle:      item.Title,
		KeyCategory:   item.Category,
		KeyTags:       strings.Join(item.Tags, ","),
		KeyDifficulty: item.Difficulty,
		KeyReadTime:   strconv.Itoa(item.ReadTime),
		KeyAuthor:     item.Author,
		KeyCreatedAt:  item.CreatedAt,
	}
}

// ItemFromRecord rebuilds a content item from stored fields.
func ItemFromRecord(id, document string, metadata map[string]string) *models.ContentItem {
	readTime, _ := strconv.Atoi(metadata[KeyReadTime])
	return &models.ContentItem{
		ID:         id,
		Title:      metadata[KeyTitle],
		Content:    document,
		Category:   metadata[KeyCategory],
		Tags:       SplitTags(metadata[KeyTags]),
		Difficulty: metadata[KeyDifficulty],
		ReadTime:   readTime,
		Author:     metadata[KeyAuthor],
		CreatedAt:  metadata[KeyCreatedAt],
	}
}

// ItemFromHit rebuilds a content item from a query hit.
func ItemFromHit(h vector.Hit) *models.ContentItem {
	return ItemFromRecord(h.ID, h.Document, h.Metadata)
}

// SplitTags splits a comma-joined tag string. An empty string yields no tags.
func SplitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

// ParseTags splits user-supplied comma-separated tags, trimming spaces and
// dropping empty entries.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
