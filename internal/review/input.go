package review

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/ladder"
)

// DocumentContext supplies the viewer's current position. Add uses it to fill
// source fields the caller left empty.
type DocumentContext interface {
	CurrentDocumentName() string
	CurrentPageNumber() int
	CurrentURL() string
}

// StaticContext is a DocumentContext with fixed values.
type StaticContext struct {
	DocumentName string
	PageNumber   int
	URL          string
}

func (c StaticContext) CurrentDocumentName() string { return c.DocumentName }
func (c StaticContext) CurrentPageNumber() int      { return c.PageNumber }
func (c StaticContext) CurrentURL() string          { return c.URL }

// AddInput describes a new review item. Zero values take defaults: title
// "Untitled", source type page, category tomorrow, and document fields from
// the scheduler's DocumentContext.
type AddInput struct {
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	SourceType   domain.SourceType `json:"sourceType" validate:"omitempty,oneof=page document highlight note"`
	Category     ladder.Category   `json:"category"`
	DocumentName string            `json:"documentName"`
	PageNumber   int               `json:"pageNumber" validate:"gte=0"`
	URL          string            `json:"url" validate:"omitempty,url"`
	Color        string            `json:"color" validate:"omitempty,hexcolor"`
}

// defaultColors gives each initial bucket a distinct highlight color.
var defaultColors = map[ladder.Category]string{
	ladder.Tomorrow:  "#4285f4",
	ladder.ThreeDays: "#fbbc04",
	ladder.Week:      "#34a853",
}

func (s *Scheduler) validateInput(in AddInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if in.Category != 0 && !in.Category.Scheduled() {
		return fmt.Errorf("%w: %s is not a starting category", ErrInvalidInput, in.Category)
	}
	return nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Filter selects items for ListByCategory: "due", "all" (every unfinished
// item), "finished", or any category name.
type Filter string

const (
	FilterDue      Filter = "due"
	FilterAll      Filter = "all"
	FilterFinished Filter = "finished"
)

// ParseFilter validates s as a Filter. An empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "":
		return FilterAll, nil
	case FilterDue, FilterAll:
		return Filter(s), nil
	}
	if _, err := ladder.ParseCategory(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
	return Filter(s), nil
}
