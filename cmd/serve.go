package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"drive-distribution/infrastructure/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the distribution API over HTTP",
	Long: `Serves the distribution API:

  POST /v1/activities/{id}/distribution   run a distribution
  GET  /v1/activities/{id}/files          list created files
  GET  /healthz                           liveness

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, DefaultOutput, wireOptions{drive: true})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	handler := httpapi.NewHandler(a.engine(nil), a.repo, a.logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{RequestTimeout: cfg.Server.WriteTimeout})
	server := httpapi.NewServer(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, a.logger)

	return server.Run(ctx)
}
