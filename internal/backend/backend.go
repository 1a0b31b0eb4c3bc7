// Package backend selects and wires the storage backend from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"fincontrol/internal/config"
	"fincontrol/internal/store"
	"fincontrol/internal/store/memory"
	"fincontrol/internal/store/rest"
	"fincontrol/internal/storage"
)

// Type identifies a storage backend.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
	Remote Type = "remote"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Remote:
		return true
	}
	return false
}

// Types returns every valid backend type.
func Types() []Type {
	return []Type{Memory, SQLite, Remote}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result bundles the selected store with its cleanup function, which may
// be nil when the backend holds no resources.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates stores from application configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case Remote:
		cli := rest.NewClient(cfg.RemoteBaseURL, cfg.RemoteAPIKey)
		f.logger.Info("Initialized remote backend", "base_url", cfg.RemoteBaseURL)
		return &Result{Store: cli}, nil

	default:
		f.logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil
	}
}
