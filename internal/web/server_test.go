package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/notify"
	"github.com/conorfennell/revisit/internal/review"
	"github.com/conorfennell/revisit/internal/storage"
	"github.com/conorfennell/revisit/internal/sync"
)

var t0 = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, storage.ErrNotFound }
func (brokenStore) Set(context.Context, string, []byte) error   { return errors.New("disk full") }

func newTestServer(t *testing.T, store review.Store, opts Options) (*Server, *review.Scheduler) {
	t.Helper()
	n := 0
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := review.Config{
		Now:    func() time.Time { return t0 },
		NewID:  func() string { n++; return fmt.Sprintf("item-%d", n) },
		Logger: logger,
	}
	if opts.Notifications != nil {
		cfg.Sink = opts.Notifications
	}
	sched := review.New(store, cfg)
	sched.Load(context.Background())
	opts.Logger = logger
	return NewServer(sched, opts), sched
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestItemLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, storage.NewMemoryStore(), Options{})

	rr := do(t, srv, http.MethodPost, "/api/items", `{"title":"Attention","content":"sqrt(d)","category":"3days","documentName":"paper.pdf","pageNumber":4}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, but got %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[domain.ReviewItem](t, rr)
	if created.ID != "item-1" || created.DueDate != "2024-01-13" {
		t.Errorf("Unexpected created item %+v", created)
	}

	rr = do(t, srv, http.MethodGet, "/api/items/item-1", "")
	if rr.Code != http.StatusOK || decode[domain.ReviewItem](t, rr).Title != "Attention" {
		t.Errorf("GET item returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/items/item-1/review", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, but got %d: %s", rr.Code, rr.Body.String())
	}
	var res struct {
		Outcome string            `json:"outcome"`
		Item    domain.ReviewItem `json:"item"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Outcome != "progressed" || res.Item.Category.String() != "week" {
		t.Errorf("Expected progression to week, but got %+v", res)
	}

	rr = do(t, srv, http.MethodPost, "/api/items/item-1/complete", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"outcome":"finished"`) {
		t.Errorf("complete returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/items?filter=finished", "")
	if items := decode[[]domain.ReviewItem](t, rr); len(items) != 1 {
		t.Errorf("Expected 1 finished item, but got %d", len(items))
	}

	rr = do(t, srv, http.MethodDelete, "/api/items/item-1", "")
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 for delete, but got %d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/items/item-1", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for a second delete, but got %d", rr.Code)
	}
}

func TestStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t, storage.NewMemoryStore(), Options{})

	testCases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown item", http.MethodGet, "/api/items/missing", "", http.StatusNotFound},
		{"review unknown item", http.MethodPost, "/api/items/missing/review", "", http.StatusNotFound},
		{"complete unknown item", http.MethodPost, "/api/items/missing/complete", "", http.StatusNotFound},
		{"bad filter", http.MethodGet, "/api/items?filter=someday", "", http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/items", `{"title":`, http.StatusBadRequest},
		{"bad category", http.MethodPost, "/api/items", `{"category":"month"}`, http.StatusBadRequest},
		{"finished is not a starting category", http.MethodPost, "/api/items", `{"category":"finished"}`, http.StatusBadRequest},
		{"bad color", http.MethodPost, "/api/items", `{"color":"blue"}`, http.StatusBadRequest},
		{"import without a source", http.MethodPost, "/api/import", "", http.StatusNotFound},
		{"notifications not recorded", http.MethodGet, "/api/notifications", "", http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, srv, tc.method, tc.path, tc.body)
			if rr.Code != tc.want {
				t.Errorf("Expected status %d, but got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestPersistFailureIs500(t *testing.T) {
	rec := notify.NewRecorder(10)
	srv, sched := newTestServer(t, brokenStore{}, Options{Notifications: rec})

	rr := do(t, srv, http.MethodPost, "/api/items", `{"title":"Lost"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, but got %d", rr.Code)
	}
	if !sched.Dirty() {
		t.Error("Expected the scheduler to be dirty after a failed write")
	}

	rr = do(t, srv, http.MethodGet, "/api/notifications", "")
	notes := decode[[]notify.Notification](t, rr)
	if len(notes) != 1 || notes[0].Title != "Save Failed" {
		t.Errorf("Expected a single Save Failed notification, but got %+v", notes)
	}
}

func TestBadge(t *testing.T) {
	srv, sched := newTestServer(t, storage.NewMemoryStore(), Options{})
	ctx := context.Background()
	if _, err := sched.Add(ctx, review.AddInput{Title: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := sched.Add(ctx, review.AddInput{Title: "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := sched.MarkComplete(ctx, "item-2"); err != nil {
		t.Fatal(err)
	}

	rr := do(t, srv, http.MethodGet, "/api/badge", "")
	badge := decode[badgeResponse](t, rr)
	// Nothing is due on the day it was added.
	if badge.DueCount != 0 || badge.Stats.Active != 1 || badge.Stats.Finished != 1 {
		t.Errorf("Unexpected badge %+v", badge)
	}
}

func TestImport(t *testing.T) {
	called := false
	srv, _ := newTestServer(t, storage.NewMemoryStore(), Options{
		Import: func(ctx context.Context) (sync.Report, error) {
			called = true
			return sync.Report{Files: 1, Parsed: 2, Added: 1, Skipped: 1, Errors: []error{errors.New("line 3: invalid page")}}, nil
		},
	})

	rr := do(t, srv, http.MethodPost, "/api/import", "")
	if rr.Code != http.StatusOK || !called {
		t.Fatalf("Expected the importer to run, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[importResponse](t, rr)
	if resp.Added != 1 || len(resp.Errors) != 1 {
		t.Errorf("Unexpected import response %+v", resp)
	}
}
