package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conorfennell/revisit/internal/domain"
	"github.com/conorfennell/revisit/internal/review"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string // "json", "yaml"
		output string // file path or "-" for stdout
		filter string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export review items as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []domain.ReviewItem
			if filter == "" {
				items = a.sched.Items()
			} else {
				f, err := review.ParseFilter(filter)
				if err != nil {
					return err
				}
				if items, err = a.sched.ListByCategory(f); err != nil {
					return err
				}
			}

			outBytes, err := encodeItems(items, format)
			if err != nil {
				return err
			}

			if output == "-" || output == "" {
				_, err = a.opts.Out.Write(outBytes)
				return err
			}
			if err := os.WriteFile(output, outBytes, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("Exported review items", "count", len(items), "format", format, "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Export format: json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file (default: stdout)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only export items matching due, all, finished, or a category (default: everything)")
	return cmd
}

func encodeItems(items []domain.ReviewItem, format string) ([]byte, error) {
	switch format {
	case "json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(items); err != nil {
			return nil, fmt.Errorf("export json: %w", err)
		}
		return buf.Bytes(), nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return nil, fmt.Errorf("export yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("export yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (choose json, yaml)", format)
	}
}
