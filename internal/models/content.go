// Package models defines core data structures for content, queries, and search results.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is returned (wrapped) when caller-supplied input is invalid.
var ErrValidation = errors.New("validation failed")

// Difficulty levels accepted for content items.
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// DateLayout is the calendar date format used for created_at.
const DateLayout = "2006-01-02"

// ContentItem is a stored piece of content.
type ContentItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty"`
	ReadTime   int      `json:"read_time"`
	Author     string   `json:"author"`
	CreatedAt  string   `json:"created_at"`
}

// ContentInput is the input for creating a content item.
type ContentInput struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty"`
	ReadTime   int      `json:"read_time"`
	Author     string   `json:"author"`
	CreatedAt  string   `json:"created_at,omitempty"`
}

// Validate checks required fields. maxLength bounds the body length in bytes; 0 disables the check.
func (in *ContentInput) Validate(maxLength int) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case strings.TrimSpace(in.Content) == "":
		return fmt.Errorf("%w: content is required", ErrValidation)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	case !ValidDifficulty(in.Difficulty):
		return fmt.Errorf("%w: difficulty must be one of %s, %s, %s",
			ErrValidation, DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced)
	case in.ReadTime <= 0:
		return fmt.Errorf("%w: read_time must be positive", ErrValidation)
	case maxLength > 0 && len(in.Content) > maxLength:
		return fmt.Errorf("%w: content exceeds %d characters", ErrValidation, maxLength)
	}
	return nil
}

// Item converts the input into a ContentItem with the given id.
func (in *ContentInput) Item(id string) *ContentItem {
	return &ContentItem{
		ID:         id,
		Title:      in.Title,
		Content:    in.Content,
		Category:   in.Category,
		Tags:       append([]string(nil), in.Tags...),
		Difficulty: in.Difficulty,
		ReadTime:   in.ReadTime,
		Author:     in.Author,
		CreatedAt:  in.CreatedAt,
	}
}

// Input returns the item's fields as a ContentInput.
func (c *ContentItem) Input() *ContentInput {
	return &ContentInput{
		Title:      c.Title,
		Content:    c.Content,
		Category:   c.Category,
		Tags:       append([]string(nil), c.Tags...),
		Difficulty: c.Difficulty,
		ReadTime:   c.ReadTime,
		Author:     c.Author,
		CreatedAt:  c.CreatedAt,
	}
}

// EmbeddingText is the text embedded for the item: title and body joined by a space.
func (c *ContentItem) EmbeddingText() string {
	return c.Title + " " + c.Content
}

// ValidDifficulty reports whether d is one of the accepted difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
