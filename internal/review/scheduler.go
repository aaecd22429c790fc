package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/ladder"
	"github.com/conorfennell/revisit/internal/notify"
	"github.com/conorfennell/revisit/internal/storage"
)

// DefaultKey is the store key holding the full item list.
const DefaultKey = "revisions"

// Store persists the serialized item list under a single key. Get returns
// storage.ErrNotFound when nothing has been written yet.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config configures a Scheduler. Zero values fall back to defaults.
type Config struct {
	// Key is the store key of the item list. Defaults to DefaultKey.
	Key string

	// Sink receives user-visible notifications. Defaults to notify.Discard.
	Sink notify.Sink

	// Document fills source fields an AddInput leaves empty. When nil they stay empty.
	Document DocumentContext

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// Location decides which calendar day is today. Defaults to UTC.
	Location *time.Location

	// NewID generates item ids. Defaults to uuid.NewString.
	NewID func() string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler owns the review items of one user. Every mutation is applied in
// memory, written to the store, and only then returned to the caller;
// concurrent mutations are serialized.
type Scheduler struct {
	store    Store
	key      string
	sink     notify.Sink
	doc      DocumentContext
	now      func() time.Time
	loc      *time.Location
	newID    func() string
	logger   *slog.Logger
	validate *validator.Validate

	// mu serializes mutate+persist and guards the fields below.
	mu     sync.Mutex
	loaded bool
	dirty  bool
	items  []domain.ReviewItem

	// queueMu guards pending and draining. It may be taken while holding mu,
	// never the other way round.
	queueMu  sync.Mutex
	pending  []Snapshot
	draining bool

	hooksMu  sync.Mutex
	hooks    map[int]func(Snapshot)
	nextHook int
}

// New creates a Scheduler over store. Call Load before reading; mutations load
// lazily if needed.
func New(store Store, cfg Config) *Scheduler {
	s := &Scheduler{
		store:    store,
		key:      cfg.Key,
		sink:     cfg.Sink,
		doc:      cfg.Document,
		now:      cfg.Now,
		loc:      cfg.Location,
		newID:    cfg.NewID,
		logger:   cfg.Logger,
		validate: newValidator(),
		hooks:    make(map[int]func(Snapshot)),
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.sink == nil {
		s.sink = notify.Discard
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Load reads the item list from the store. It never fails: a missing key,
// a read error, or malformed data leave the scheduler with an empty list.
// Calls after the first are no-ops.
func (s *Scheduler) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
}

func (s *Scheduler) ensureLoadedLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	s.items = []domain.ReviewItem{}

	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Info("No stored review items, starting empty", "key", s.key)
		} else {
			s.logger.Warn("Failed to read review items, starting empty", "key", s.key, "error", err)
		}
		return
	}

	items, skipped, err := decodeItems(data, s.today())
	if err != nil {
		s.logger.Warn("Stored review items are malformed, starting empty", "key", s.key, "error", err)
		return
	}
	if skipped > 0 {
		s.logger.Warn("Skipped malformed review records", "key", s.key, "skipped", skipped)
	}

	seen := make(map[string]bool, len(items))
	for i := range items {
		if items[i].ID == "" || seen[items[i].ID] {
			items[i].ID = s.uniqueIDLocked(seen)
		}
		seen[items[i].ID] = true
	}
	s.items = items
	s.logger.Info("Loaded review items", "key", s.key, "count", len(items))
}

// Add creates a review item, persists it, and announces its schedule.
func (s *Scheduler) Add(ctx context.Context, in AddInput) (domain.ReviewItem, error) {
	if err := s.validateInput(in); err != nil {
		return domain.ReviewItem{}, err
	}

	var added domain.ReviewItem
	err := s.update(ctx, func(today ladder.Date, now time.Time) (*notify.Notification, bool) {
		added = s.newItemLocked(in, today, now)
		s.items = append(s.items, added)
		added = added.Clone()
		s.logger.Info("Review item added", "id", added.ID, "category", added.Category, "due", added.DueDate)
		return &notify.Notification{
			Title:   "Added to Review",
			Message: fmt.Sprintf("%q scheduled for %s", added.Title, added.Category.Label()),
		}, true
	})
	return added, err
}

func (s *Scheduler) newItemLocked(in AddInput, today ladder.Date, now time.Time) domain.ReviewItem {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Untitled"
	}
	category := in.Category
	if category == 0 {
		category = ladder.Tomorrow
	}
	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = domain.SourcePage
	}

	src := domain.Source{
		Type:         sourceType,
		DocumentName: in.DocumentName,
		PageNumber:   in.PageNumber,
		URL:          in.URL,
	}
	if s.doc != nil {
		if src.DocumentName == "" {
			src.DocumentName = s.doc.CurrentDocumentName()
		}
		if src.PageNumber == 0 {
			src.PageNumber = s.doc.CurrentPageNumber()
		}
		if src.URL == "" {
			src.URL = s.doc.CurrentURL()
		}
	}

	color := in.Color
	if color == "" {
		color = defaultColors[category]
	}

	due, _ := ladder.DueDate(category, today)
	return domain.ReviewItem{
		ID:            s.uniqueIDLocked(nil),
		Title:         title,
		Content:       in.Content,
		Source:        src,
		Category:      category,
		DueDate:       due,
		ReviewHistory: []domain.HistoryEntry{},
		Color:         color,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// uniqueIDLocked returns an id that no current item (and nothing in taken) uses.
func (s *Scheduler) uniqueIDLocked(taken map[string]bool) string {
	base := s.newID()
	id := base
	for n := 2; id == "" || taken[id] || s.indexLocked(id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// MarkReviewed advances the item one step along tomorrow, 3days, week.
// Reviewing a week item removes it from the list. Finished items are left
// Unchanged, and an unknown id yields NotFound without touching the store.
func (s *Scheduler) MarkReviewed(ctx context.Context, id string) (Result, error) {
	res := Result{Outcome: NotFound}
	err := s.update(ctx, func(today ladder.Date, now time.Time) (*notify.Notification, bool) {
		i := s.indexLocked(id)
		if i < 0 {
			return nil, false
		}
		it := &s.items[i]
		if it.Category == ladder.Finished {
			res = Result{Outcome: Unchanged, Item: it.Clone()}
			return nil, false
		}

		previous := it.Category
		it.ReviewCount++
		it.ReviewHistory = append(it.ReviewHistory, domain.HistoryEntry{Date: now, Category: previous})
		it.UpdatedAt = now

		next, ok := previous.Next()
		if !ok {
			res = Result{Outcome: Removed, Item: it.Clone()}
			s.items = slices.Delete(s.items, i, i+1)
			s.logger.Info("Review item finished its last review and was removed", "id", id, "reviews", res.Item.ReviewCount)
			return &notify.Notification{
				Title:   "Review Complete",
				Message: fmt.Sprintf("%q completed all reviews and was removed", res.Item.Title),
			}, true
		}

		it.Category = next
		it.DueDate, _ = ladder.DueDate(next, today)
		res = Result{Outcome: Progressed, Item: it.Clone()}
		s.logger.Info("Review item progressed", "id", id, "from", previous, "to", next, "due", it.DueDate)
		return &notify.Notification{
			Title:   "Reviewed",
			Message: fmt.Sprintf("%q progressed to %s", it.Title, next.Label()),
		}, true
	})
	return res, err
}

// MarkComplete moves the item to Finished and keeps it. Its review history is
// left as is. Items already finished are Unchanged.
func (s *Scheduler) MarkComplete(ctx context.Context, id string) (Result, error) {
	res := Result{Outcome: NotFound}
	err := s.update(ctx, func(_ ladder.Date, now time.Time) (*notify.Notification, bool) {
		i := s.indexLocked(id)
		if i < 0 {
			return nil, false
		}
		it := &s.items[i]
		if it.Category == ladder.Finished {
			res = Result{Outcome: Unchanged, Item: it.Clone()}
			return nil, false
		}

		completed := now
		it.Category = ladder.Finished
		it.CompletedAt = &completed
		it.UpdatedAt = now
		res = Result{Outcome: Finished, Item: it.Clone()}
		s.logger.Info("Review item finished", "id", id)
		return &notify.Notification{
			Title:   "Moved to Finished",
			Message: fmt.Sprintf("%q moved to Finished", it.Title),
		}, true
	})
	return res, err
}

// Delete removes the item from any category. Deleting an unknown id is a
// successful no-op reported as NotFound.
func (s *Scheduler) Delete(ctx context.Context, id string) (Result, error) {
	res := Result{Outcome: NotFound}
	err := s.update(ctx, func(ladder.Date, time.Time) (*notify.Notification, bool) {
		i := s.indexLocked(id)
		if i < 0 {
			return nil, false
		}
		res = Result{Outcome: Deleted, Item: s.items[i].Clone()}
		s.items = slices.Delete(s.items, i, i+1)
		s.logger.Info("Review item deleted", "id", id)
		return nil, true
	})
	return res, err
}

// update runs fn under the mutation lock. When fn reports a change, the full
// list is persisted before update returns, fn's notification is sent on
// success, and the new snapshot is queued for change hooks. Hooks see
// snapshots in mutation order, possibly on another mutation's goroutine.
func (s *Scheduler) update(ctx context.Context, fn func(today ladder.Date, now time.Time) (*notify.Notification, bool)) error {
	s.mu.Lock()
	s.ensureLoadedLocked(ctx)

	now := s.now()
	today := ladder.DateOf(now, s.loc)
	n, changed := fn(today, now)
	if !changed {
		s.mu.Unlock()
		return nil
	}

	err := s.persistLocked(ctx)
	if err == nil && n != nil {
		s.sink.Notify(*n)
	}
	s.queueMu.Lock()
	s.pending = append(s.pending, s.snapshotLocked(today))
	s.queueMu.Unlock()
	s.mu.Unlock()

	s.drain()
	return err
}

func (s *Scheduler) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.items)
	if err == nil {
		err = s.store.Set(ctx, s.key, data)
	}
	if err != nil {
		s.dirty = true
		s.logger.Error("Failed to persist review items", "key", s.key, "count", len(s.items), "error", err)
		s.sink.Notify(notify.Notification{
			Level:   notify.Error,
			Title:   "Save Failed",
			Message: "Your review changes could not be saved and will be retried on the next change",
		})
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether the last write failed, meaning the store holds an
// older list than memory.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush rewrites the in-memory list if a previous write failed.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx)
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *Scheduler) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(it domain.ReviewItem) bool { return it.ID == id })
}

func (s *Scheduler) today() ladder.Date {
	return ladder.DateOf(s.now(), s.loc)
}
