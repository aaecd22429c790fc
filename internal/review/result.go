package review

import (
	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/ladder"
)

// Outcome says what a mutating operation did to the item it named.
type Outcome int

const (
	NotFound Outcome = iota
	Added
	Progressed
	Removed
	Finished
	Deleted
	Unchanged
)

var outcomeNames = [...]string{
	NotFound:   "not_found",
	Added:      "added",
	Progressed: "progressed",
	Removed:    "removed",
	Finished:   "finished",
	Deleted:    "deleted",
	Unchanged:  "unchanged",
}

func (o Outcome) String() string {
	if o >= NotFound && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// MarshalText stores the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is returned by every mutating operation. Item holds the state after
// the operation; for Removed and Deleted it is the last state the item had.
type Result struct {
	Outcome Outcome           `json:"outcome"`
	Item    domain.ReviewItem `json:"item"`
}

// Found reports whether the id named an existing item.
func (r Result) Found() bool {
	return r.Outcome != NotFound
}

// Stats aggregates the item list. Active excludes finished items, and Due is
// the count a badge shows.
type Stats struct {
	Total      int                     `json:"total"`
	Active     int                     `json:"active"`
	Due        int                     `json:"due"`
	Finished   int                     `json:"finished"`
	ByCategory map[ladder.Category]int `json:"byCategory"`
}

// Snapshot is handed to change hooks after every state change.
type Snapshot struct {
	DueCount int                 `json:"dueCount"`
	Stats    Stats               `json:"stats"`
	Items    []domain.ReviewItem `json:"items"`
}
