package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvbrowse/internal/ui"
)

var (
	browseLogFile   string
	browseExportDir string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse namespaces interactively in the terminal",
	Long: `Open the terminal browser: pick a namespace on the left, page through its
entries on the right, search with /, expand structured cells with enter and
export the current view with e. Press ? for all keys.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		agg, err := newAggregator(cfg, nil)
		if err != nil {
			return err
		}
		return ui.Run(rootCtx, agg, ui.Options{
			NoColor:   noColor,
			PageSize:  cfg.PageSize,
			ExportDir: browseExportDir,
		})
	},
}

func init() { //nolint:gochecknoinits
	browseCmd.Flags().StringVar(&browseLogFile, "log-file", "", "append logs to this file (the browser logs nowhere otherwise)")
	browseCmd.Flags().StringVar(&browseExportDir, "export-dir", "", "directory CSV exports are written to (default: working directory)")
}
