package domain

import (
	"time"

	"github.com/conorfennell/revisit/internal/ladder"
)

// SourceType describes what part of a document a review item points at.
type SourceType string

const (
	SourcePage      SourceType = "page"
	SourceDocument  SourceType = "document"
	SourceHighlight SourceType = "highlight"
	SourceNote      SourceType = "note"
)

// Source records where a review item came from in the PDF viewer.
type Source struct {
	Type         SourceType `json:"type" yaml:"type"`
	DocumentName string     `json:"documentName" yaml:"documentName"`
	PageNumber   int        `json:"pageNumber" yaml:"pageNumber"`
	URL          string     `json:"url" yaml:"url"`
}

// HistoryEntry is one successful review. Category is the bucket the item
// was in when it was reviewed, before it progressed.
type HistoryEntry struct {
	Date     time.Time       `json:"date" yaml:"date"`
	Category ladder.Category `json:"category" yaml:"category"`
}

// ReviewItem is a page, document, or passage scheduled for spaced re-reading.
type ReviewItem struct {
	ID            string          `json:"id" yaml:"id"`
	Title         string          `json:"title" yaml:"title"`
	Content       string          `json:"content" yaml:"content"`
	Source        Source          `json:"source" yaml:"source"`
	Category      ladder.Category `json:"category" yaml:"category"`
	DueDate       ladder.Date     `json:"dueDate" yaml:"dueDate"`
	ReviewCount   int             `json:"reviewCount" yaml:"reviewCount"`
	ReviewHistory []HistoryEntry  `json:"reviewHistory" yaml:"reviewHistory"`
	Color         string          `json:"color" yaml:"color"`
	CreatedAt     time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt" yaml:"updatedAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// IsDue reports whether the item should be reviewed on today.
// Finished items are never due.
func (it ReviewItem) IsDue(today ladder.Date) bool {
	return it.Category != ladder.Finished && it.DueDate.OnOrBefore(today)
}

// Clone returns a deep copy so callers can never alias scheduler state.
func (it ReviewItem) Clone() ReviewItem {
	c := it
	if it.ReviewHistory != nil {
		c.ReviewHistory = make([]HistoryEntry, len(it.ReviewHistory))
		copy(c.ReviewHistory, it.ReviewHistory)
	}
	if it.CompletedAt != nil {
		t := *it.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
