package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/revisit/internal/config"
	"github.com/conorfennell/revisit/internal/logging"
	"github.com/conorfennell/revisit/internal/notify"
	"github.com/conorfennell/revisit/internal/review"
	"github.com/conorfennell/revisit/internal/storage"
)

// Options lets callers redirect output and fix the clock.
type Options struct {
	Out io.Writer
	Err io.Writer
	Now func() time.Time
}

// app holds what every subcommand needs once flags and config are resolved.
type app struct {
	opts     Options
	cfg      config.Config
	logger   *slog.Logger
	sched    *review.Scheduler
	recorder *notify.Recorder
	close    func() error
}

// NewRootCmd creates the root command for revisit.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	a := &app{opts: opts}
	var configPath string

	root := &cobra.Command{
		Use:   "revisit",
		Short: "Schedule pages and passages for spaced re-reading",
		Long: `Add pages, documents and highlights to a review list and re-read
them tomorrow, in 3 days and in a week.

Settings come from revisit.yaml, REVISIT_* environment variables and flags,
later sources overriding earlier ones.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == cobra.ShellCompRequestCmd {
				return nil
			}
			return a.setup(cmd.Context(), configPath, cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	pf.String("storage", "sqlite", "Storage driver: sqlite or memory")
	pf.String("db", "revisit.db", "Path to the SQLite database file")
	pf.String("timezone", "UTC", "IANA timezone deciding which day is today")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")

	root.AddCommand(newAddCmd(a))
	root.AddCommand(newDueCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newReviewCmd(a))
	root.AddCommand(newCompleteCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

func (a *app) setup(ctx context.Context, configPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(a.opts.Err, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return err
	}

	store, closeStore := openStore(cfg.Storage, logger)
	a.cfg = cfg
	a.logger = logger
	a.close = closeStore
	a.recorder = notify.NewRecorder(50)
	a.sched = review.New(store, review.Config{
		Key:  cfg.Storage.Key,
		Sink: notify.Multi(notify.LogSink{Logger: logger}, a.recorder),
		Document: review.StaticContext{
			DocumentName: cfg.Document.Name,
			PageNumber:   cfg.Document.Page,
			URL:          cfg.Document.URL,
		},
		Now:      a.opts.Now,
		Location: loc,
		Logger:   logger,
	})
	a.sched.Load(ctx)
	return nil
}

func (a *app) teardown() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// openStore opens the configured store. When SQLite cannot be opened the
// tool keeps working on an in-memory store without persistence.
func openStore(cfg config.StorageConfig, logger *slog.Logger) (review.Store, func() error) {
	noop := func() error { return nil }
	if cfg.Driver == "memory" {
		return storage.NewMemoryStore(), noop
	}
	db, err := storage.OpenSQLite(cfg.Path)
	if err != nil {
		logger.Warn("Cannot open SQLite database, falling back to in-memory store (no persistence)",
			"path", cfg.Path, "error", err)
		return storage.NewMemoryStore(), noop
	}
	logger.Debug("Database opened successfully", "path", cfg.Path)
	return db, db.Close
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.opts.Out, format, args...)
}
