package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conorfennell/revisit/internal/sync"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import review items from markdown notes",
		Long: `Scan markdown notes for T:/N:/P:/D:/U: blocks and add each new block
as a review item due tomorrow. Blocks already imported are skipped.

The notes come from --notes-dir, or from a git repository cloned or
pulled into notes.checkout when --git-url is set.

Examples:
  revisit import --notes-dir ~/notes
  revisit import --git-url https://github.com/me/notes.git`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.runImport(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Scanned %d file(s): %d block(s), %d added, %d already imported, %d error(s).\n",
				report.Files, report.Parsed, report.Added, report.Skipped, len(report.Errors))
			if len(report.Errors) > 0 {
				a.printf("\nErrors:\n")
				for _, e := range report.Errors {
					a.printf("- %s\n", e)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("notes-dir", "", "Directory to scan for markdown notes")
	cmd.Flags().String("git-url", "", "Git repository holding the notes")
	return cmd
}

func (a *app) notesSource() sync.Source {
	return sync.Source{
		Dir:      a.cfg.Notes.Dir,
		GitURL:   a.cfg.Notes.GitURL,
		Checkout: a.cfg.Notes.Checkout,
	}
}

func (a *app) hasNotesSource() bool {
	return a.cfg.Notes.Dir != "" || a.cfg.Notes.GitURL != ""
}

func (a *app) runImport(ctx context.Context) (sync.Report, error) {
	return sync.Run(ctx, a.sched, a.notesSource(), a.logger)
}
