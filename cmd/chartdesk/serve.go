package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/chartdesk/internal/api"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer func() { _ = log.Sync() }()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cfg.Log.Debug && !debug {
		log = switchLogger(log, logger.Must(true))
	}

	variant, err := dashboard.VariantByName(cfg.Dashboard.Variant)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	metricsPath := ""
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		metricsPath = cfg.Metrics.Path
	}

	comps := newComponents(cfg, log, reg)
	store := dashboard.NewStore(cfg.Server.SessionTTL,
		comps.sessionDeps(variant, cfg.Dashboard.DefaultSymbol, log, reg), log, reg)

	log.Info("starting chartdesk server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("variant", variant.Name),
		zap.String("chart_host", cfg.Upstream.ChartHost),
	)

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		TemplatesDir: cfg.Server.TemplatesDir,
		MetricsPath:  metricsPath,
		Location:     loc,
		ChartWait:    cfg.Dashboard.ChartWait,
	}, api.Dependencies{Sessions: store, Metrics: reg}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down chartdesk server")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
