package ladder

import (
	"encoding"
	"fmt"
)

// Category is the review bucket an item currently sits in.
// The zero value means "unset" and is never stored.
type Category int

const (
	Tomorrow Category = iota + 1
	ThreeDays
	Week
	Finished
)

var (
	categoryNames = [...]string{
		Tomorrow:  "tomorrow",
		ThreeDays: "3days",
		Week:      "week",
		Finished:  "finished",
	}
	categoryByName = map[string]Category{
		"tomorrow": Tomorrow,
		"3days":    ThreeDays,
		"week":     Week,
		"finished": Finished,
	}
	categoryLabels = [...]string{
		Tomorrow:  "Tomorrow",
		ThreeDays: "In 3 days",
		Week:      "In a week",
		Finished:  "Finished",
	}
)

// offsets maps each scheduled category to the number of days until it is due.
var offsets = map[Category]int{
	Tomorrow:  1,
	ThreeDays: 3,
	Week:      7,
}

// progression is the review ladder. A category missing from the table has no
// successor: reviewing a Week item steps off the end of the ladder.
var progression = map[Category]Category{
	Tomorrow:  ThreeDays,
	ThreeDays: Week,
}

var (
	_ fmt.Stringer             = Category(0)
	_ encoding.TextMarshaler   = Category(0)
	_ encoding.TextUnmarshaler = (*Category)(nil)
)

// Categories lists every valid category in ladder order.
func Categories() []Category {
	return []Category{Tomorrow, ThreeDays, Week, Finished}
}

// String returns the stored name ("tomorrow", "3days", "week", "finished").
func (c Category) String() string {
	if c.IsValid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Label returns the human-readable schedule label shown to the user.
func (c Category) Label() string {
	if c.IsValid() {
		return categoryLabels[c]
	}
	return c.String()
}

// IsValid reports whether c is one of the four known categories.
func (c Category) IsValid() bool {
	return c >= Tomorrow && c <= Finished
}

// Scheduled reports whether c carries a due date (every category but Finished).
func (c Category) Scheduled() bool {
	_, ok := offsets[c]
	return ok
}

// Offset returns the number of days between scheduling and due date.
// The boolean is false for Finished and invalid categories.
func (c Category) Offset() (int, bool) {
	days, ok := offsets[c]
	return days, ok
}

// Next returns the category an item moves to after a successful review.
// It returns false when the item has no successor: Week items leave the
// ladder entirely, and Finished items never progress.
func (c Category) Next() (Category, bool) {
	next, ok := progression[c]
	return next, ok
}

// ParseCategory converts a stored name into a Category.
func ParseCategory(s string) (Category, error) {
	c, ok := categoryByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCategory, int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// DueDate returns the day an item placed in c on today becomes due.
// It returns false for categories that are not scheduled.
func DueDate(c Category, today Date) (Date, bool) {
	days, ok := c.Offset()
	if !ok {
		return "", false
	}
	return today.AddDays(days), true
}
