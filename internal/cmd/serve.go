package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/revisit/internal/review"
	"github.com/conorfennell/revisit/internal/sync"
	"github.com/conorfennell/revisit/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review list over an HTTP JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cancel := a.sched.OnChange(func(s review.Snapshot) {
				a.logger.Debug("Badge updated", "due", s.DueCount, "active", s.Stats.Active)
			})
			defer cancel()

			opts := web.Options{Logger: a.logger, Notifications: a.recorder}
			if a.hasNotesSource() {
				opts.Import = func(ctx context.Context) (sync.Report, error) {
					return a.runImport(ctx)
				}
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           web.NewServer(a.sched, opts),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Server starting", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				a.logger.Info("Shutting down server")
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelShutdown()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}

			if a.sched.Dirty() {
				return a.sched.Flush(context.Background())
			}
			return nil
		},
	}

	cmd.Flags().String("addr", ":8080", "Address to listen on")
	cmd.Flags().String("notes-dir", "", "Directory of markdown notes for POST /api/import")
	return cmd
}
