package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/kvbrowse/internal/metrics"
	"github.com/oakwood-commons/kvbrowse/internal/server"
	"github.com/oakwood-commons/kvbrowse/pkg/logger"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve namespaces and entries over HTTP",
	Long: `Serve the JSON API the web front end reads:

  GET /api/list-namespaces
  GET /api/kv-data/{namespaceId}
  GET /api/kv-data/{namespaceId}/export.csv?search=&where=&title=
  GET /metrics

Every request runs its own aggregation against the store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m := metrics.New()
		agg, err := newAggregator(cfg, m)
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = listenAddr
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(agg, server.WithMetrics(m), server.WithLogger(*logger.FromContext(ctx)))
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() { //nolint:gochecknoinits
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default from config, :8787)")
}
