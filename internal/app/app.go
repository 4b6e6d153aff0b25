// Package app assembles the service graph from configuration and owns the
// run loop.
package app

import (
	"context"
	"fmt"
	"time"

	"gatilho/internal/artifact"
	"gatilho/internal/config"
	"gatilho/internal/job"
	"gatilho/internal/jobstore"
	"gatilho/internal/logger"
	"gatilho/internal/provider"
	httpapi "gatilho/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     *config.Config
	server  *httpapi.Server
	jobs    *job.Service
	records *jobstore.Store
}

// NewApp builds the application object without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	artifacts, err := artifact.NewFSStore(cfg.Reports.Dir)
	if err != nil {
		return nil, fmt.Errorf("initializing artifact store: %w", err)
	}

	var records *jobstore.Store
	if cfg.Store.Path != "" {
		records, err = jobstore.NewStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing job store: %w", err)
		}
	}

	binanceSrc := provider.NewBinance(provider.BinanceConfig{
		BaseURL: cfg.Providers.Binance.BaseURL,
		Timeout: time.Duration(cfg.Providers.Binance.TimeoutSeconds) * time.Second,
	})
	sources := provider.NewRegistry(
		binanceSrc,
		provider.NewAlphaVantage(provider.AlphaVantageConfig{
			APIKey:  cfg.Providers.AlphaVantage.APIKey,
			BaseURL: cfg.Providers.AlphaVantage.BaseURL,
			Timeout: cfg.Providers.AlphaVantage.Timeout(),
		}),
		provider.NewPolygon(provider.PolygonConfig{
			APIKey:  cfg.Providers.Polygon.APIKey,
			BaseURL: cfg.Providers.Polygon.BaseURL,
			Timeout: cfg.Providers.Polygon.Timeout(),
		}),
	)

	jobs, err := job.NewService(job.ServiceConfig{
		Sources:         sources,
		Artifacts:       artifacts,
		Records:         records,
		MaxConcurrent:   cfg.Jobs.MaxConcurrent,
		JobTimeout:      cfg.Jobs.Timeout(),
		RateLimitPerMin: cfg.Jobs.RateLimitPerMin,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing job service: %w", err)
	}

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Jobs:      jobs,
		Artifacts: artifacts,
		TradingView: provider.NewTradingView(provider.TradingViewConfig{
			BaseURL: cfg.Providers.TradingView.BaseURL,
			Timeout: cfg.Providers.TradingView.Timeout(),
		}),
		Assets: binanceSrc,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing http server: %w", err)
	}

	return &App{cfg: cfg, server: server, jobs: jobs, records: records}, nil
}

// Run serves until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	a.jobs.SetContext(ctx)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	err := group.Wait()
	if a.records != nil {
		_ = a.records.Close()
	}
	return err
}
