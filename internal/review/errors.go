package review

import "errors"

// Sentinel errors for the review package. Check with errors.Is.
//
// A missing item id is never an error: operations report it through
// Result.Outcome == NotFound instead.
var (
	// ErrPersist wraps a failed store write. The in-memory change has already
	// been applied, so the scheduler stays Dirty until a later write succeeds.
	ErrPersist       = errors.New("review: failed to persist items")
	ErrInvalidInput  = errors.New("review: invalid input")
	ErrUnknownFilter = errors.New("review: unknown filter")
)
