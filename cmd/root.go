package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvbrowse/internal/aggregator"
	"github.com/oakwood-commons/kvbrowse/internal/config"
	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
	"github.com/oakwood-commons/kvbrowse/internal/metrics"
	"github.com/oakwood-commons/kvbrowse/pkg/logger"
	"github.com/oakwood-commons/kvbrowse/pkg/settings"
)

var (
	configFile string
	debug      bool
	noColor    bool
	output     string
	width      int
)

var rootCtx = context.Background()

// logFile is the sink opened for the browser's debug log, closed after the
// command returns.
var logFile *os.File

// newStore builds the remote store from the resolved configuration.
var newStore = func(cfg config.Config) (kvstore.Store, error) {
	return cfg.NewStore()
}

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "Browse Cloudflare Workers KV namespaces",
	Long: `kvbrowse lists the namespaces of a Cloudflare account, pages through every
entry of a namespace with a column layout derived from the stored values,
searches and exports them as CSV. It can also serve the same data over HTTP
or open an interactive browser in the terminal.

Credentials come from CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_TOKEN or the
config file.`,
	Example:       "\n  kvbrowse namespaces\n  kvbrowse entries 0f2ac74b498b48028cb68387c421e279 --search alice\n  kvbrowse entries <id> --where '_.value.age > 30' -o json\n  kvbrowse export <id> --file users.csv\n  kvbrowse serve --addr :8787\n  kvbrowse browse\n",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Map CLI debug flag to log level: debug => zap.DebugLevel (-1), else zap.InfoLevel (0)
		var level int8
		if debug {
			level = -1
		}
		interactive := cmd.Name() == browseCmd.Name()
		sink, err := logSink(interactive)
		if err != nil {
			return err
		}
		lgr := logger.GetWithWriter(level, sink)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())
		ctx := logger.WithLogger(context.Background(), lgr)
		rootCtx = settings.IntoContext(ctx, &settings.Run{
			MinLogLevel: level,
			ConfigFile:  configFile,
			Output:      output,
			NoColor:     noColor,
			Interactive: interactive,
		})
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logFile != nil {
			logger.Sync()
			_ = logFile.Close()
			logFile = nil
		}
	},
}

// logSink picks where log lines go. The browser owns the terminal, so its
// logs go to --log-file or nowhere.
func logSink(interactive bool) (io.Writer, error) {
	if !interactive {
		return os.Stderr, nil
	}
	if browseLogFile == "" {
		return io.Discard, nil
	}
	f, err := os.OpenFile(browseLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	return f, nil
}

// loadConfig resolves and validates the configuration for this invocation.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newAggregator wires the store, optional metrics and the fan-out limits
// from cfg into an Aggregator.
func newAggregator(cfg config.Config, m *metrics.Metrics) (*aggregator.Aggregator, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	return aggregator.New(metrics.InstrumentStore(store, m),
		aggregator.WithConcurrency(cfg.Concurrency),
		aggregator.WithRateLimit(cfg.RequestsPerSecond),
		aggregator.WithMetrics(m),
	), nil
}

// checkOutput rejects output formats a command does not support.
func checkOutput(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format %q (expected %s)", format, strings.Join(allowed, "|"))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print kvbrowse version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v := settings.VersionInformation
		logger.FromContext(rootCtx).V(1).Info("build info",
			logger.CommitKey, v.Commit,
			logger.VersionKey, v.BuildVersion,
			logger.BuildTimeKey, v.BuildTime,
			logger.GoVersionKey, runtime.Version())
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

// cliVersionString builds a human-readable version string for CLI output and Cobra's --version flag.
func cliVersionString() string {
	return fmt.Sprintf("%s %s (go %s)", settings.CliBinaryName, settings.VersionInformation.BuildVersion, runtime.Version())
}

func init() { //nolint:gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (default $XDG_CONFIG_HOME/kvbrowse/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table|json|yaml|toml|csv (supported set depends on the command)")
	rootCmd.PersistentFlags().IntVar(&width, "width", 0, "table width in columns (default: terminal width)")
	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(namespacesCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
