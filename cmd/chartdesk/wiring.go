package main

import (
	"fmt"

	"github.com/newthinker/chartdesk/internal/catalog"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/config"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"github.com/newthinker/chartdesk/internal/httpclient"
	"github.com/newthinker/chartdesk/internal/metrics"
	"github.com/newthinker/chartdesk/internal/trend"
	"go.uber.org/zap"
)

// loadConfig reads --config or falls back to defaults, then validates.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// switchLogger flushes old before handing over to next.
func switchLogger(old, next *zap.Logger) *zap.Logger {
	_ = old.Sync()
	return next
}

// components are the upstream-facing pieces shared by serve and the diagnostic commands.
type components struct {
	client   *httpclient.Client
	catalog  *catalog.Loader
	trends   *trend.Loader
	prober   *chart.HTTPProber
	resolver chart.ResolverConfig
}

func newComponents(cfg *config.Config, log *zap.Logger, reg *metrics.Registry) *components {
	client := httpclient.New(httpclient.Config{
		Timeout:              cfg.Upstream.Timeout,
		MaxRequestsPerSecond: cfg.Upstream.MaxRequestsPerSecond,
	})
	return &components{
		client:   client,
		catalog:  catalog.NewLoader(client, cfg.Upstream.CatalogURL, log, reg),
		trends:   trend.NewLoader(client, cfg.Upstream.TrendURL, log, reg),
		prober:   chart.NewHTTPProber(client),
		resolver: chart.ResolverConfig{Host: cfg.Upstream.ChartHost, ProbeTimeout: cfg.Upstream.Timeout},
	}
}

func (c *components) sessionDeps(variant dashboard.Variant, symbol string, log *zap.Logger, reg *metrics.Registry) dashboard.Deps {
	return dashboard.Deps{
		Catalog: c.catalog,
		Trends:  c.trends,
		NewResolver: func() *chart.Resolver {
			return chart.NewResolver(c.resolver, c.prober, log, reg)
		},
		Variant:       variant,
		DefaultSymbol: symbol,
		Log:           log.Named("sessions"),
	}
}
