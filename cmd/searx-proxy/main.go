package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/searx-proxy/internal/cache/memory"
	"github.com/kitbuilder587/searx-proxy/internal/config"
	"github.com/kitbuilder587/searx-proxy/internal/httpapi"
	"github.com/kitbuilder587/searx-proxy/internal/metrics"
	"github.com/kitbuilder587/searx-proxy/internal/preferences"
	"github.com/kitbuilder587/searx-proxy/internal/ratelimit"
	"github.com/kitbuilder587/searx-proxy/internal/searx/space"
	"github.com/kitbuilder587/searx-proxy/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store := preferences.NewFileStore(cfg.Preferences.File)
	filterCfg, err := preferences.LoadFilterConfig(ctx, store)
	if err != nil {
		return fmt.Errorf("load preferences from %s: %w", store.Path(), err)
	}
	logger.Info("filter loaded",
		zap.String("file", store.Path()),
		zap.Strings("grades", filterCfg.EffectiveGrades()),
		zap.Int("ceilings", len(filterCfg.Ceilings)),
	)

	client, err := space.New(space.Config{
		BaseURL:          cfg.Directory.URL,
		DirectoryTimeout: cfg.Directory.DirectoryTimeout,
		InstanceTimeout:  cfg.Directory.InstanceTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("init directory client: %w", err)
	}

	svc := service.NewProxyService(service.ProxyServiceDeps{
		Client:  client,
		Cache:   memory.New(cfg.Cache.TTL),
		Store:   store,
		Logger:  logger,
		Metrics: m,
		Config: service.ProxyConfig{
			Filter:         filterCfg,
			RefreshTimeout: cfg.Directory.DirectoryTimeout,
		},
	})

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
		defer limiter.Stop()
	}

	srv := httpapi.New(httpapi.Deps{
		Service: svc,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.HTTP.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("stopped")
	return nil
}
