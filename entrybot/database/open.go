package database

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSpaces   = "spaces"
)

// Config selects and configures a storage driver.
type Config struct {
	Driver  string `toml:"driver"`
	DataDir string `toml:"data_dir"`

	Postgres DBConfig     `toml:"-"`
	Mongo    MongoConfig  `toml:"-"`
	Spaces   SpacesConfig `toml:"-"`
}

// Open connects the backend named by cfg.Driver. An empty driver means file.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Driver {
	case "", DriverFile:
		backend, err = NewFileBackend(cfg.DataDir)
	case DriverMemory:
		backend = NewMemoryBackend()
	case DriverPostgres:
		backend, err = NewPostgres(ctx, cfg.Postgres)
	case DriverMongo:
		backend, err = NewMongo(ctx, cfg.Mongo)
	case DriverSpaces:
		backend, err = NewSpaces(ctx, cfg.Spaces)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	slog.Info("Store opened",
		slog.String("type", "db"),
		slog.String("driver", backend.Name()),
	)
	return backend, nil
}
