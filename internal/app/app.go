// Package app wires configuration into the learning core: catalog,
// storage, progress store, scheduler and quiz bank. Both the server and
// the CLI start from here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/platform/clock"
	"github.com/p-n-ai/pai-lms/internal/platform/config"
	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/quiz"
	"github.com/p-n-ai/pai-lms/internal/schedule"
	"github.com/p-n-ai/pai-lms/internal/storage"
)

// App holds the opened core.
type App struct {
	Catalog   *catalog.Catalog
	Store     *progress.Store
	Scheduler *schedule.Scheduler
	Quizzes   *quiz.Bank

	storage *storage.Opened
}

// Open builds the core from cfg. Events go to the given loggers, and to
// the progress_events table when storage is PostgreSQL. A nil clock uses
// the system clock.
func Open(ctx context.Context, cfg *config.Config, c clock.Clock, events ...progress.EventLogger) (*App, error) {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	bank, err := loadQuizzes(cfg.Quiz.Path)
	if err != nil {
		return nil, err
	}

	opened, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.Storage.Driver,
		FileDir:     cfg.Storage.FileDir,
		SQLitePath:  cfg.Storage.SQLitePath,
		DatabaseURL: cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		CacheURL:    cfg.Cache.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Driver, err)
	}
	if opened.DB != nil {
		events = append(events, progress.NewPostgresEventLogger(opened.DB.Pool))
	}

	if c == nil {
		c = clock.System{}
	}
	store, err := progress.Open(ctx, progress.Config{
		Catalog:         cat,
		Backend:         opened.Backend,
		Key:             cfg.Storage.Key,
		Clock:           c,
		Events:          progress.MultiEventLogger(events),
		LegacyRoadmapID: cfg.LegacyRoadmapID,
	})
	if err != nil {
		opened.Close()
		return nil, err
	}

	slog.Info("core ready",
		"storage_driver", cfg.Storage.Driver,
		"roadmaps", len(cat.IDs()),
		"quizzes", bank.Len(),
	)
	return &App{
		Catalog:   cat,
		Store:     store,
		Scheduler: schedule.New(store, c),
		Quizzes:   bank,
		storage:   opened,
	}, nil
}

// Close releases storage connections.
func (a *App) Close() {
	a.storage.Close()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadDir(path)
}

func loadQuizzes(path string) (*quiz.Bank, error) {
	if path == "" {
		return quiz.DefaultBank()
	}
	return quiz.LoadBankDir(path)
}
