package cmd

import (
	"github.com/spf13/cobra"
)

const redacted = "********"

// configCmd prints the resolved configuration with the token hidden.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Show the configuration after defaults, the config file and KVBROWSE_*
(or CLOUDFLARE_*) environment variables are applied. The API token is
never printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkOutput(output, "table", "yaml", "json"); err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.APIToken != "" {
			cfg.APIToken = redacted
		}
		if output == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"account_id":          cfg.AccountID,
				"api_token":           cfg.APIToken,
				"base_url":            cfg.BaseURL,
				"page_size":           cfg.PageSize,
				"concurrency":         cfg.Concurrency,
				"requests_per_second": cfg.RequestsPerSecond,
				"listen_addr":         cfg.ListenAddr,
				"timeout":             cfg.Timeout.String(),
			})
		}
		return writeYAML(cmd.OutOrStdout(), cfg)
	},
}
