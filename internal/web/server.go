package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conorfennell/revisit/internal/notify"
	"github.com/conorfennell/revisit/internal/review"
	"github.com/conorfennell/revisit/internal/sync"
)

// Importer runs a notes import on demand.
type Importer func(ctx context.Context) (sync.Report, error)

// Options holds the optional dependencies of a Server.
type Options struct {
	Logger        *slog.Logger
	Notifications *notify.Recorder // nil disables GET /api/notifications
	Import        Importer         // nil disables POST /api/import
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	sched  *review.Scheduler
	router chi.Router
	logger *slog.Logger
	notes  *notify.Recorder
	imp    Importer
}

// NewServer creates and configures a new server.
func NewServer(sched *review.Scheduler, opts Options) *Server {
	s := &Server{
		sched:  sched,
		router: chi.NewRouter(),
		logger: opts.Logger,
		notes:  opts.Notifications,
		imp:    opts.Import,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleListItems())
		r.Post("/items", s.handleAddItem())
		r.Get("/items/{id}", s.handleGetItem())
		r.Delete("/items/{id}", s.handleDeleteItem())
		r.Post("/items/{id}/review", s.handleReviewItem())
		r.Post("/items/{id}/complete", s.handleCompleteItem())
		r.Get("/badge", s.handleBadge())
		r.Get("/notifications", s.handleNotifications())
		r.Post("/import", s.handleImport())
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type badgeResponse struct {
	DueCount int          `json:"dueCount"`
	Stats    review.Stats `json:"stats"`
}

type importResponse struct {
	Files   int      `json:"files"`
	Parsed  int      `json:"parsed"`
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeMutationError maps scheduler errors onto status codes.
func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrInvalidInput), errors.Is(err, review.ErrUnknownFilter):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, review.ErrPersist):
		s.writeError(w, http.StatusInternalServerError, "changes could not be saved")
	default:
		s.logger.Error("Unexpected scheduler error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// writeResult answers a mutation by id: 404 when the id was unknown.
func (s *Server) writeResult(w http.ResponseWriter, res review.Result, err error) {
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	if !res.Found() {
		s.writeError(w, http.StatusNotFound, "review item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleListItems lists items for ?filter=due|all|finished|<category>.
func (s *Server) handleListItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := review.ParseFilter(r.URL.Query().Get("filter"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		items, err := s.sched.ListByCategory(f)
		if err != nil {
			s.writeMutationError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) handleGetItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, ok := s.sched.Get(chi.URLParam(r, "id"))
		if !ok {
			s.writeError(w, http.StatusNotFound, "review item not found")
			return
		}
		s.writeJSON(w, http.StatusOK, it)
	}
}

func (s *Server) handleAddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in review.AddInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		it, err := s.sched.Add(r.Context(), in)
		if err != nil {
			s.writeMutationError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, it)
	}
}

func (s *Server) handleReviewItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.sched.MarkReviewed(r.Context(), chi.URLParam(r, "id"))
		s.writeResult(w, res, err)
	}
}

func (s *Server) handleCompleteItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.sched.MarkComplete(r.Context(), chi.URLParam(r, "id"))
		s.writeResult(w, res, err)
	}
}

func (s *Server) handleDeleteItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.sched.Delete(r.Context(), chi.URLParam(r, "id"))
		s.writeResult(w, res, err)
	}
}

// handleBadge returns the due count shown on the extension badge.
func (s *Server) handleBadge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.sched.Stats()
		s.writeJSON(w, http.StatusOK, badgeResponse{DueCount: st.Due, Stats: st})
	}
}

func (s *Server) handleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.notes == nil {
			s.writeError(w, http.StatusNotFound, "notifications are not recorded")
			return
		}
		s.writeJSON(w, http.StatusOK, s.notes.All())
	}
}

// handleImport runs a notes import in the foreground so the caller sees the report.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.imp == nil {
			s.writeError(w, http.StatusNotFound, "no notes source configured")
			return
		}
		report, err := s.imp(r.Context())
		if err != nil {
			s.logger.Error("Error running notes import", "error", err)
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp := importResponse{
			Files:   report.Files,
			Parsed:  report.Parsed,
			Added:   report.Added,
			Skipped: report.Skipped,
			Errors:  []string{},
		}
		for _, e := range report.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}
