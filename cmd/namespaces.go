package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var namespacesCmd = &cobra.Command{
	Use:     "namespaces",
	Aliases: []string{"ns"},
	Short:   "List the KV namespaces of the account",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkOutput(output, "table", "json", "yaml", "toml"); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		agg, err := newAggregator(cfg, nil)
		if err != nil {
			return err
		}
		nss, err := agg.FetchNamespaces(rootCtx)
		if err != nil {
			return fmt.Errorf("list namespaces: %w", err)
		}
		return printNamespaces(cmd.OutOrStdout(), nss, output)
	},
}
