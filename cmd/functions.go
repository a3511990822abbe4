package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvbrowse/internal/cel"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the functions available in --where expressions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkOutput(output, "table", "json"); err != nil {
			return err
		}
		fns, err := cel.Functions()
		if err != nil {
			return err
		}
		if output == "json" {
			return writeJSON(cmd.OutOrStdout(), fns)
		}
		for _, fn := range fns {
			fmt.Fprintln(cmd.OutOrStdout(), fn)
		}
		return nil
	},
}
