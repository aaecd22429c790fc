package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/gitsource"
	"github.com/conorfennell/revisit/internal/knol"
	"github.com/conorfennell/revisit/internal/parser"
	"github.com/conorfennell/revisit/internal/review"
)

// Scheduler is the part of review.Scheduler an import needs.
type Scheduler interface {
	Items() []domain.ReviewItem
	Add(ctx context.Context, in review.AddInput) (domain.ReviewItem, error)
}

// Source says where notes files live. When GitURL is set the repository is
// cloned or pulled into Checkout first and Checkout is scanned; otherwise Dir
// is scanned.
type Source struct {
	Dir      string
	GitURL   string
	Checkout string
}

// Report summarizes one import run.
type Report struct {
	Files   int
	Parsed  int
	Added   int
	Skipped int
	Errors  []error
}

// Run syncs the git source if configured and imports its notes.
func Run(ctx context.Context, sched Scheduler, src Source, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := src.Dir
	if src.GitURL != "" {
		if src.Checkout == "" {
			return Report{}, fmt.Errorf("notes checkout path is required for git source %s", src.GitURL)
		}
		if err := gitsource.Sync(ctx, src.GitURL, src.Checkout, logger); err != nil {
			return Report{}, err
		}
		dir = src.Checkout
	}
	if dir == "" {
		return Report{}, fmt.Errorf("no notes directory configured")
	}
	return ImportDir(ctx, sched, dir, logger)
}

// ImportDir walks dir for markdown notes files and adds every entry whose
// fingerprint matches no existing item, so running it twice adds nothing new.
// Per-file problems and rejected entries are collected in the report. A walk
// failure, a canceled ctx, or a failed write to the store stops the run; an
// item whose write failed is still counted as added since the scheduler keeps it.
func ImportDir(ctx context.Context, sched Scheduler, dir string, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Starting notes import", "dir", dir)

	known := make(map[string]bool)
	for _, it := range sched.Items() {
		known[knol.ItemHash(it)] = true
	}

	var report Report
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		report.Files++
		entries, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		for _, e := range entries {
			report.Parsed++
			in := entryInput(e, filepath.ToSlash(rel))
			hash := knol.Hash(in.Title, in.Content, in.DocumentName, in.PageNumber)
			if known[hash] {
				report.Skipped++
				continue
			}

			it, addErr := sched.Add(ctx, in)
			if errors.Is(addErr, review.ErrPersist) {
				known[hash] = true
				report.Added++
				return fmt.Errorf("adding %q from %s: %w", in.Title, path, addErr)
			}
			if addErr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report.Errors = append(report.Errors, fmt.Errorf("adding %q from %s: %w", in.Title, path, addErr))
				continue
			}
			known[hash] = true
			report.Added++
			logger.Info("New note found, added for review", "id", it.ID, "file", rel)
		}
		return nil
	})

	if walkErr != nil {
		logger.Error("Notes import stopped", "dir", dir, "added", report.Added, "error", walkErr)
		return report, fmt.Errorf("failed to import %s: %w", dir, walkErr)
	}

	logger.Info("Import complete",
		"dir", dir,
		"files", report.Files,
		"parsed", report.Parsed,
		"added", report.Added,
		"skipped", report.Skipped,
		"errors", len(report.Errors),
	)
	return report, nil
}

// entryInput fills every field the fingerprint covers so that scheduler
// defaults never make a stored item differ from its source entry.
func entryInput(e parser.Entry, file string) review.AddInput {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = "Untitled"
	}
	document := e.Document
	if document == "" {
		document = file
	}
	page := e.Page
	if page == 0 {
		page = 1
	}
	return review.AddInput{
		Title:        title,
		Content:      e.Note,
		SourceType:   domain.SourceNote,
		DocumentName: document,
		PageNumber:   page,
		URL:          e.URL,
	}
}
