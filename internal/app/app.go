package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/roadmap-backend/internal/data/db"
	"github.com/yungbote/roadmap-backend/internal/data/repos"
	"github.com/yungbote/roadmap-backend/internal/http"
	"github.com/yungbote/roadmap-backend/internal/observability"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    repos.Repos
	Services Services
	Server   *http.Server

	janitor       *tokenJanitor
	shutdownOTel  func(context.Context) error
	closePostgres func() error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdownOTel := observability.InitOTel(ctx, log, cfg.Otel)

	pg, err := db.NewPostgresService(ctx, log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	metrics := observability.NewMetrics()
	if sqlDB, err := pg.DB().DB(); err == nil {
		if err := metrics.RegisterDB(sqlDB, "postgres"); err != nil {
			log.Warn("DB stats collector not registered", "error", err)
		}
	}

	a, err := build(ctx, log, cfg, pg.DB(), metrics)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	a.shutdownOTel = shutdownOTel
	a.closePostgres = pg.Close
	return a, nil
}

func build(ctx context.Context, log *logger.Logger, cfg Config, theDB *gorm.DB, metrics *observability.Metrics) (*App, error) {
	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	reposet := repos.New(theDB, log)
	serviceset, err := wireServices(theDB, log, metrics, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, metrics, cfg, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Metrics:  metrics,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
		Server:   server,
		janitor:  newTokenJanitor(log, reposet, cfg.JanitorInterval),
	}, nil
}

// Run serves HTTP and the token janitor until ctx is canceled, then drains the
// server within Cfg.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("Server listening", "port", a.Cfg.Port)
		return a.Server.Run()
	})
	g.Go(func() error {
		return a.janitor.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		a.Log.Info("Shutting down server", "timeout", a.Cfg.ShutdownTimeout.String())
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.closePostgres != nil {
		if err := a.closePostgres(); err != nil {
			a.Log.Warn("Postgres close failed", "error", err)
		}
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(ctx); err != nil {
			a.Log.Warn("OpenTelemetry shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
