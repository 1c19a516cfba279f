// Package app assembles the inventory client from its configuration: the
// state store, the REST client and the workspace both front ends drive.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/stockroom/internal/client/api"
	"github.com/atinyakov/stockroom/internal/client/storage"
	"github.com/atinyakov/stockroom/internal/config"
	"github.com/atinyakov/stockroom/internal/db"
	"github.com/atinyakov/stockroom/internal/logger"
	"github.com/atinyakov/stockroom/internal/repository"
	"github.com/atinyakov/stockroom/internal/service"
)

// App owns the long-lived parts of a running client.
type App struct {
	Workspace *service.Workspace

	closeStore func() error
}

// New opens the configured state store and builds the workspace.
func New(opts *config.Options, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	loc, err := opts.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	store, closeStore, err := OpenStore(opts, logger.Named(log, "storage"))
	if err != nil {
		return nil, err
	}
	log.Info("state store ready", zap.String("store", opts.Store))

	client, err := api.New(api.Options{
		BaseURL: opts.ServerURL,
		Timeout: opts.RequestTimeout.Std(),
		CAFile:  opts.CAFile,
		Logger:  logger.Named(log, "api"),
	})
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("api client: %w", err)
	}

	ws := service.NewWorkspace(client, store, service.WorkspaceOptions{
		NoticeTTL: opts.NoticeTTL.Std(),
		Location:  loc,
		Logger:    log,
	})
	return &App{Workspace: ws, closeStore: closeStore}, nil
}

// Close releases the state store.
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// OpenStore returns the state store selected by opts.Store and a function
// that releases it.
func OpenStore(opts *config.Options, log *zap.Logger) (service.StateStore, func() error, error) {
	switch opts.Store {
	case config.StoreFile:
		ls := storage.NewLocalStorage(opts.StatePath, log)
		if err := ls.Load(); err != nil {
			return nil, nil, fmt.Errorf("load state file: %w", err)
		}
		return ls, func() error { return nil }, nil
	case config.StoreSQLite, config.StorePostgres:
		sqlDB, err := db.Open(opts.Store, opts.StateDSN)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSQLStateRepository(sqlDB), sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown state store %q", opts.Store)
	}
}
