package ladder

import "errors"

var (
	ErrInvalidCategory = errors.New("ladder: invalid category")
	ErrInvalidDate     = errors.New("ladder: invalid date")
)
