package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvbrowse/internal/aggregator"
	"github.com/oakwood-commons/kvbrowse/internal/formatter"
	"github.com/oakwood-commons/kvbrowse/pkg/logger"
)

var exportFile string

var exportCmd = &cobra.Command{
	Use:   "export <namespace-id>",
	Short: "Write the entries of a namespace to a CSV file",
	Long: `Write the entries of a namespace to a CSV file. With --search or --where
only the matching entries are written, with the columns derived from them.
The file is named after the namespace title unless --file is given; use
--file - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		agg, err := newAggregator(cfg, nil)
		if err != nil {
			return err
		}
		id := args[0]
		entries, _, err := selectEntries(rootCtx, agg, id, searchTerm, whereExpr)
		if err != nil {
			return err
		}
		if exportFile == "-" {
			return formatter.WriteCSV(cmd.OutOrStdout(), entries)
		}
		path := exportFile
		if path == "" {
			path = formatter.ExportFilename(namespaceTitle(rootCtx, agg, id))
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		if err := formatter.WriteCSV(f, entries); err != nil {
			_ = f.Close()
			return fmt.Errorf("write export file: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write export file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(entries), path)
		return nil
	},
}

// namespaceTitle looks up the display title of id, falling back to the id
// when the listing fails or does not contain it.
func namespaceTitle(ctx context.Context, agg *aggregator.Aggregator, id string) string {
	nss, err := agg.FetchNamespaces(ctx)
	if err != nil {
		logger.FromContext(ctx).V(1).Info("namespace title lookup failed", logger.NamespaceKey, id, "error", err.Error())
		return id
	}
	for _, ns := range nss {
		if ns.ID == id && ns.Title != "" {
			return ns.Title
		}
	}
	return id
}

func init() { //nolint:gochecknoinits
	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "output path, '-' for stdout (default <title>_data.csv)")
	exportCmd.Flags().StringVar(&searchTerm, "search", "", "export only entries where any field contains the term")
	exportCmd.Flags().StringVar(&whereExpr, "where", "", "export only entries matching this CEL predicate")
}
