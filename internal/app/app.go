// Package app wires long-lived services from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/clock"
	"github.com/JakeFAU/newscrawler/internal/config"
	"github.com/JakeFAU/newscrawler/internal/crawler"
	"github.com/JakeFAU/newscrawler/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/newscrawler/internal/fetcher/colly"
	"github.com/JakeFAU/newscrawler/internal/id/uuid"
	"github.com/JakeFAU/newscrawler/internal/parser"
	"github.com/JakeFAU/newscrawler/internal/storage/memory"
	"github.com/JakeFAU/newscrawler/internal/storage/postgres"
)

// App holds the shared services used by every command.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	store      crawler.Store
	closeStore func()
}

// New builds the store selected by cfg.DB.DSN. The store is not initialized;
// callers decide whether to create the schema.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, closeStore, err := openStore(ctx, cfg, logger.Named("store"))
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, logger: logger, store: store, closeStore: closeStore}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.Store, func(), error) {
	if cfg.UsesMemoryStore() {
		logger.Info("using in-memory news store; articles are discarded on exit")
		return memory.NewNewsStore(), func() {}, nil
	}
	store, err := postgres.NewNewsStore(ctx, postgres.NewsStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres store: %w", err)
	}
	return store, store.Close, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the configured news store.
func (a *App) Store() crawler.Store {
	return a.store
}

// Pipeline assembles a crawl pipeline from the configuration.
func (a *App) Pipeline() (*Pipeline, error) {
	p, err := parser.New(a.cfg.Selectors.Article)
	if err != nil {
		return nil, fmt.Errorf("build parser: %w", err)
	}
	return NewPipeline(PipelineDeps{
		Crawl:      a.cfg.Crawler(),
		Session:    collyfetcher.New(a.cfg.Fetcher(), a.logger.Named("fetcher")),
		Parser:     p,
		Store:      a.store,
		Clock:      clock.System{},
		IDs:        uuid.New(),
		Workers:    dispatcher.WorkerCount(a.cfg.Scraper.ParsingWorkers),
		QueueDepth: a.cfg.Scraper.QueueDepth,
		Logger:     a.logger.Named("pipeline"),
	}), nil
}

// Close releases the store and flushes the logger.
func (a *App) Close() {
	a.logger.Debug("shutting down application services")
	if a.closeStore != nil {
		a.closeStore()
	}
	_ = a.logger.Sync()
}
