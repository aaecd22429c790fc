package review

import (
	"fmt"
	"slices"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/ladder"
)

// Items returns every item, finished ones included, in insertion order.
func (s *Scheduler) Items() []domain.ReviewItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterLocked(func(domain.ReviewItem) bool { return true })
}

// Get returns the item with the given id.
func (s *Scheduler) Get(id string) (domain.ReviewItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return domain.ReviewItem{}, false
	}
	return s.items[i].Clone(), true
}

// DueItems returns unfinished items whose due date is today or earlier,
// in insertion order.
func (s *Scheduler) DueItems() []domain.ReviewItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.today()
	return s.filterLocked(func(it domain.ReviewItem) bool { return it.IsDue(today) })
}

// ListByCategory returns the items selected by f. FilterFinished and the
// category name "finished" select the same items.
func (s *Scheduler) ListByCategory(f Filter) ([]domain.ReviewItem, error) {
	switch f {
	case FilterDue:
		return s.DueItems(), nil
	case FilterAll, "":
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.filterLocked(func(it domain.ReviewItem) bool { return it.Category != ladder.Finished }), nil
	}

	c, err := ladder.ParseCategory(string(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, string(f))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterLocked(func(it domain.ReviewItem) bool { return it.Category == c }), nil
}

// Stats returns aggregate counts for badges and summaries.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked(s.today())
}

func (s *Scheduler) statsLocked(today ladder.Date) Stats {
	st := Stats{
		Total:      len(s.items),
		ByCategory: make(map[ladder.Category]int, len(ladder.Categories())),
	}
	for _, c := range ladder.Categories() {
		st.ByCategory[c] = 0
	}
	for _, it := range s.items {
		st.ByCategory[it.Category]++
		if it.Category == ladder.Finished {
			st.Finished++
			continue
		}
		st.Active++
		if it.IsDue(today) {
			st.Due++
		}
	}
	return st
}

func (s *Scheduler) filterLocked(keep func(domain.ReviewItem) bool) []domain.ReviewItem {
	out := []domain.ReviewItem{}
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it.Clone())
		}
	}
	return out
}

// OnChange registers fn to receive a snapshot after every state change. fn
// runs after the change is persisted and the mutation lock is released, so
// it may call read methods. It must not call mutating methods. Snapshots
// arrive in mutation order and never concurrently. The returned func
// unregisters fn.
func (s *Scheduler) OnChange(fn func(Snapshot)) (cancel func()) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	id := s.nextHook
	s.nextHook++
	s.hooks[id] = fn
	return func() {
		s.hooksMu.Lock()
		defer s.hooksMu.Unlock()
		delete(s.hooks, id)
	}
}

// Snapshot returns the current due count, stats, and item list.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.today())
}

func (s *Scheduler) snapshotLocked(today ladder.Date) Snapshot {
	st := s.statsLocked(today)
	return Snapshot{
		DueCount: st.Due,
		Stats:    st,
		Items:    s.filterLocked(func(domain.ReviewItem) bool { return true }),
	}
}

// drain delivers queued snapshots in order. One goroutine drains at a time;
// a mutation that finds a drain running leaves its snapshot to it.
func (s *Scheduler) drain() {
	s.queueMu.Lock()
	if s.draining {
		s.queueMu.Unlock()
		return
	}
	s.draining = true
	for len(s.pending) > 0 {
		snap := s.pending[0]
		s.pending = s.pending[1:]
		s.queueMu.Unlock()
		s.deliver(snap)
		s.queueMu.Lock()
	}
	s.draining = false
	s.queueMu.Unlock()
}

func (s *Scheduler) deliver(snap Snapshot) {
	s.hooksMu.Lock()
	ids := make([]int, 0, len(s.hooks))
	for id := range s.hooks {
		ids = append(ids, id)
	}
	fns := make([]func(Snapshot), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.hooks[id])
	}
	s.hooksMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
