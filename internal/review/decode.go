package review

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/ladder"
)

// storedItem is the lenient on-disk shape of a ReviewItem. Records written by
// older clients may lack fields or carry names this version does not know.
type storedItem struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	Source        domain.Source   `json:"source"`
	Category      string          `json:"category"`
	DueDate       string          `json:"dueDate"`
	ReviewCount   int             `json:"reviewCount"`
	ReviewHistory []storedHistory `json:"reviewHistory"`
	Color         string          `json:"color"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
	CompletedAt   string          `json:"completedAt"`
}

type storedHistory struct {
	Date     string `json:"date"`
	Category string `json:"category"`
}

// decodeItems turns the stored list into items, backfilling defaults for
// partial records. Records that are not JSON objects are skipped and counted.
// It fails only when data is not a JSON array at all.
func decodeItems(data []byte, today ladder.Date) ([]domain.ReviewItem, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("failed to decode item list: %w", err)
	}

	items := make([]domain.ReviewItem, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var rec storedItem
		if err := json.Unmarshal(r, &rec); err != nil {
			skipped++
			continue
		}
		items = append(items, rec.toItem(today))
	}
	return items, skipped, nil
}

func (rec storedItem) toItem(today ladder.Date) domain.ReviewItem {
	it := domain.ReviewItem{
		ID:            rec.ID,
		Title:         rec.Title,
		Content:       rec.Content,
		Source:        rec.Source,
		Category:      parseCategoryOr(rec.Category, ladder.Tomorrow),
		ReviewCount:   rec.ReviewCount,
		ReviewHistory: []domain.HistoryEntry{},
		Color:         rec.Color,
		CreatedAt:     parseTime(rec.CreatedAt),
		UpdatedAt:     parseTime(rec.UpdatedAt),
	}
	if it.Source.Type == "" {
		it.Source.Type = domain.SourcePage
	}
	if it.ReviewCount < 0 {
		it.ReviewCount = 0
	}
	for _, h := range rec.ReviewHistory {
		it.ReviewHistory = append(it.ReviewHistory, domain.HistoryEntry{
			Date:     parseTime(h.Date),
			Category: parseCategoryOr(h.Category, it.Category),
		})
	}
	if t := parseTime(rec.CompletedAt); !t.IsZero() {
		it.CompletedAt = &t
	}

	if due, err := ladder.ParseDate(rec.DueDate); err == nil {
		it.DueDate = due
	} else if it.Category.Scheduled() {
		from := today
		if !it.CreatedAt.IsZero() {
			from = ladder.DateOf(it.CreatedAt, time.UTC)
		}
		it.DueDate, _ = ladder.DueDate(it.Category, from)
	}
	return it
}

func parseCategoryOr(s string, fallback ladder.Category) ladder.Category {
	c, err := ladder.ParseCategory(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return c
}

// parseTime accepts RFC 3339 timestamps with or without fractional seconds,
// which covers both Go and JavaScript writers. Anything else is the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
