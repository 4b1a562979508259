package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"pxi/internal/ai"
	"pxi/internal/config"
	"pxi/internal/costing"
	"pxi/internal/db"
	"pxi/internal/db/mock"
	"pxi/internal/grounding"
	applog "pxi/internal/log"
	"pxi/internal/server"
	"pxi/internal/store"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newAIClientFunc     = ai.NewClient
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "error", err, "level", cfg.Logging.Level)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using in-memory mock database", "email", mock.DemoEmail)
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	services, err := configureServices(ctx, cfg, database, registry)
	if err != nil {
		applog.Error(ctx, "failed to configure services", "error", err)
		return 1
	}

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Database: database,
		Services: services,
		Metrics:  registry,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	sigCh, stop := subscribeShutdownSig()
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	return 0
}

// configureServices builds the costing service and, when an API key is
// present, the market-price grounding and recipe import clients.
func configureServices(ctx context.Context, cfg config.Config, database *gorm.DB, reg prometheus.Registerer) (server.Services, error) {
	st := store.New(database)
	engine := costing.Engine{FallbackCostRatio: cfg.Costing.DefaultCostRatio}
	services := server.Services{
		Costing:  costing.NewService(st, st, st, engine, costing.NewMetrics(reg)),
		Currency: cfg.Costing.Currency,
	}

	if cfg.AI.APIKey == "" {
		applog.Info(ctx, "AI integration disabled; market prices and recipe import are unavailable")
		return services, nil
	}

	client, err := newAIClientFunc(ai.Config{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.Timeout,
	})
	if err != nil {
		return server.Services{}, err
	}
	services.AI = client
	services.Grounding = grounding.NewService(client, st, st, grounding.Options{
		Currency: cfg.Costing.Currency,
		Region:   cfg.AI.Region,
	}, grounding.NewMetrics(reg))
	applog.Info(ctx, "AI integration enabled", "model", cfg.AI.Model, "region", cfg.AI.Region)
	return services, nil
}
