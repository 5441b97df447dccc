package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"agristat/internal/api"
	"agristat/internal/engine"
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

// serve starts the HTTP server at once and loads the dataset in the
// background. A failed load stops the server and is returned.
func (a *app) serve(cmd *cobra.Command) error {
	cfg := a.cfg
	logger := a.logger
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := api.NewMetrics(reg)

	// The API is live immediately but answers 503 until SetData
	h, err := api.NewHandler(nil, api.HandlerOptions{
		ChartWidth:  cfg.Charts.Width,
		ChartHeight: cfg.Charts.Height,
		Metrics:     metrics,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	e := api.NewServer(cfg.Server, logger, h, reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadErr := make(chan error, 1)
	go func() {
		t0 := time.Now()
		loader := engine.NewLoader(engine.LoaderOptions{MissingValues: cfg.Data.MissingValues}, logger)
		table, err := loader.Load(cfg.Data.Path)
		if err != nil {
			loadErr <- err
			return
		}
		metrics.ObserveLoad(table.Len(), time.Since(t0))
		h.SetData(engine.NewDashboard(table, engine.DashboardOptions{ColorMap: cfg.Charts.ColorMapping()}))
		logger.Info("dashboard ready", slog.Duration("took", time.Since(t0)))
	}()

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Server.Addr))
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-loadErr:
		logger.Error("dataset load failed", slog.String("error", runErr.Error()))
	case runErr = <-srvErr:
		logger.Error("server failed", slog.String("error", runErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("error", err.Error()))
	}
	return runErr
}
