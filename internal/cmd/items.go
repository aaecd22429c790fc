package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/ladder"
	"github.com/conorfennell/revisit/internal/review"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		in       review.AddInput
		source   string
		category string
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a page, document or passage to the review list",
		Long: `Add an item to the review list. It is due tomorrow unless another
starting category is given.

Examples:
  revisit add "Proof of Lemma 2" --document paper.pdf --page 4
  revisit add --category week --source-type highlight --content "..."`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				in.Title = args[0]
			}
			in.SourceType = domain.SourceType(source)
			if category != "" {
				c, err := ladder.ParseCategory(category)
				if err != nil {
					return err
				}
				in.Category = c
			}

			it, err := a.sched.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.printf("Added %s %q, due %s (%s)\n", it.ID, it.Title, it.DueDate, it.Category.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Content, "content", "", "Passage or note to re-read")
	cmd.Flags().StringVar(&source, "source-type", "", "Source type: page, document, highlight, note")
	cmd.Flags().StringVar(&category, "category", "", "Starting category: tomorrow, 3days, week")
	cmd.Flags().StringVar(&in.DocumentName, "document", "", "Document name")
	cmd.Flags().IntVar(&in.PageNumber, "page", 0, "Page number")
	cmd.Flags().StringVar(&in.URL, "url", "", "Document URL")
	cmd.Flags().StringVar(&in.Color, "color", "", "Highlight color as #rrggbb")

	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "List items due today or earlier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := a.sched.DueItems()
			if len(items) == 0 {
				a.printf("Nothing due. Come back tomorrow.\n")
				return nil
			}
			a.printItems(items)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review items",
		Long: `List review items.

Examples:
  revisit list                    # every unfinished item
  revisit list --filter 3days     # items in one category
  revisit list --filter finished  # items moved to Finished`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := review.ParseFilter(filter)
			if err != nil {
				return err
			}
			items, err := a.sched.ListByCategory(f)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				a.printf("No review items found.\n")
				return nil
			}
			a.printItems(items)
			a.printf("\nTotal: %d item(s)\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "due, all, finished, or a category name")
	return cmd
}

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review <id>",
		Short: "Mark an item reviewed and move it to its next category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sched.MarkReviewed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			switch res.Outcome {
			case review.NotFound:
				return fmt.Errorf("no review item with id %s", args[0])
			case review.Progressed:
				a.printf("Reviewed %q, next review %s (%s)\n", res.Item.Title, res.Item.DueDate, res.Item.Category.Label())
			case review.Removed:
				a.printf("Reviewed %q for the last time, removed from the list\n", res.Item.Title)
			case review.Unchanged:
				a.printf("%q is finished, nothing to review\n", res.Item.Title)
			}
			return nil
		},
	}
}

func newCompleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Move an item to Finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sched.MarkComplete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Found() {
				return fmt.Errorf("no review item with id %s", args[0])
			}
			a.printf("%q is finished\n", res.Item.Title)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item from any category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sched.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Found() {
				a.printf("No review item with id %s, nothing deleted\n", args[0])
				return nil
			}
			a.printf("Deleted %q\n", res.Item.Title)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show counts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.sched.Stats()
			a.printf("Due today: %d\n", st.Due)
			a.printf("Active:    %d\n", st.Active)
			a.printf("Finished:  %d\n", st.Finished)
			a.printf("\n")
			tw := tabwriter.NewWriter(a.opts.Out, 0, 0, 2, ' ', 0)
			for _, c := range ladder.Categories() {
				fmt.Fprintf(tw, "%s\t%d\n", c.Label(), st.ByCategory[c])
			}
			return tw.Flush()
		},
	}
}

func (a *app) printItems(items []domain.ReviewItem) {
	tw := tabwriter.NewWriter(a.opts.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tDUE\tSOURCE")
	for _, it := range items {
		src := it.Source.DocumentName
		if it.Source.PageNumber > 0 {
			src = fmt.Sprintf("%s p.%d", src, it.Source.PageNumber)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", it.ID, truncate(it.Title, 40), it.Category, it.DueDate, strings.TrimSpace(src))
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
