package domain

import (
	"testing"
	"time"

	"github.com/conorfennell/revisit/internal/ladder"
)

func TestIsDue(t *testing.T) {
	today := ladder.Date("2024-01-10")
	testCases := []struct {
		name     string
		item     ReviewItem
		expected bool
	}{
		{"Past", ReviewItem{Category: ladder.Tomorrow, DueDate: "2024-01-09"}, true},
		{"Today", ReviewItem{Category: ladder.ThreeDays, DueDate: "2024-01-10"}, true},
		{"Future", ReviewItem{Category: ladder.Week, DueDate: "2024-01-11"}, false},
		{"Finished in the past", ReviewItem{Category: ladder.Finished, DueDate: "2024-01-01"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.item.IsDue(today); got != tc.expected {
				t.Errorf("Expected IsDue to be %v, but got %v", tc.expected, got)
			}
		})
	}
}

func TestClone(t *testing.T) {
	done := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	original := ReviewItem{
		ID:            "a",
		ReviewHistory: []HistoryEntry{{Date: done, Category: ladder.Tomorrow}},
		CompletedAt:   &done,
	}

	c := original.Clone()
	c.ReviewHistory[0].Category = ladder.Week
	*c.CompletedAt = done.Add(time.Hour)

	if original.ReviewHistory[0].Category != ladder.Tomorrow {
		t.Error("Expected clone history to be independent of the original")
	}
	if !original.CompletedAt.Equal(done) {
		t.Error("Expected clone completedAt to be independent of the original")
	}
}
