package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvbrowse/internal/aggregator"
	"github.com/oakwood-commons/kvbrowse/internal/cel"
	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/paginator"
)

var (
	searchTerm string
	whereExpr  string
	pageNumber int
	pageSize   int
)

var entriesCmd = &cobra.Command{
	Use:     "entries <namespace-id>",
	Short:   "Show the entries of a namespace, one page at a time",
	Example: "\n  kvbrowse entries <id>\n  kvbrowse entries <id> --page 3 --page-size 50\n  kvbrowse entries <id> --search alice -o json\n  kvbrowse entries <id> --where 'has(_.value.email)' -o csv\n",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutput(output, "table", "json", "yaml", "csv"); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		size := cfg.PageSize
		if cmd.Flags().Changed("page-size") {
			size = pageSize
		}
		if err := (paginator.Config{Page: pageNumber, PageSize: size}).Validate(); err != nil {
			return err
		}
		agg, err := newAggregator(cfg, nil)
		if err != nil {
			return err
		}
		governing, total, err := selectEntries(rootCtx, agg, args[0], searchTerm, whereExpr)
		if err != nil {
			return err
		}
		pages := paginator.TotalPages(len(governing), size)
		l := entryListing{
			Governing: governing,
			Page:      paginator.Paginate(governing, paginator.ClampPage(pageNumber, pages), size),
			PageSize:  size,
			Total:     total,
			Filtered:  strings.TrimSpace(searchTerm) != "" || strings.TrimSpace(whereExpr) != "",
		}
		return printEntries(cmd.OutOrStdout(), l, output, cmd.Flags().Changed("page"))
	},
}

// selectEntries loads a namespace and narrows it by the substring search
// and then the CEL predicate. It returns the narrowed entries and the size
// of the whole namespace.
func selectEntries(ctx context.Context, agg *aggregator.Aggregator, namespaceID, search, where string) ([]dataset.Entry, int, error) {
	pred, err := compileWhere(where)
	if err != nil {
		return nil, 0, err
	}
	all, err := agg.FetchEntries(ctx, namespaceID)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch entries: %w", err)
	}
	out := dataset.Filter(all, search)
	if pred != nil {
		out = pred.Filter(out)
	}
	return out, len(all), nil
}

// compileWhere compiles --where before any data is fetched; blank means no
// predicate.
func compileWhere(where string) (*cel.Predicate, error) {
	if strings.TrimSpace(where) == "" {
		return nil, nil //nolint:nilnil
	}
	pred, err := cel.Compile(where)
	if err != nil {
		return nil, fmt.Errorf("invalid --where expression: %w", err)
	}
	return pred, nil
}

func init() { //nolint:gochecknoinits
	entriesCmd.Flags().StringVar(&searchTerm, "search", "", "keep entries where any field contains the term (case-insensitive)")
	entriesCmd.Flags().StringVar(&whereExpr, "where", "", "CEL predicate over each entry, bound to '_' (e.g. '_.value.age > 30')")
	entriesCmd.Flags().IntVar(&pageNumber, "page", 1, "page to show (1-based)")
	entriesCmd.Flags().IntVar(&pageSize, "page-size", paginator.DefaultPageSize, "entries per page (default from config)")
}
