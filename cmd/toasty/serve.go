package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/metrics"
	"github.com/jmylchreest/toasty/internal/server"
)

var serveOpts struct {
	listen string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the toast API and websocket surface",
	Long: `Run the toast store as a server.

Endpoints:
  POST   /api/toasts        {"message": "...", "kind": "success"} -> {"id": "..."}
  GET    /api/toasts        live toasts (?format=json|yaml|plain|ids)
  DELETE /api/toasts/{id}   dismiss one toast
  DELETE /api/toasts        dismiss all toasts
  GET    /ws                websocket: a snapshot frame on connect and after every change
  GET    /healthz           liveness and counts
  GET    /metrics           Prometheus metrics (when enabled)

Desktop notifications and chimes follow the same store when enabled in the
config file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.listen, "listen", "",
		"Listen address (default from config, 127.0.0.1:7878)")
}

func runServe(cmd *cobra.Command, args []string) error {
	listen := cfg.Server.Listen
	if serveOpts.listen != "" {
		listen = serveOpts.listen
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(rt.store, server.Options{
		Listen:         listen,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metricsIfEnabled(rt),
		Logger:         logger,
	})
	return srv.Run(ctx)
}

func metricsIfEnabled(rt *runtime) *metrics.Metrics {
	if !cfg.Server.Metrics {
		return nil
	}
	return rt.metrics
}

