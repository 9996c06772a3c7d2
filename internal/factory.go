package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/offcuts/internal/auth/password"
	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/graphdb"
	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/sqlgraph"
	"github.com/starford/offcuts/internal/storage"
	"github.com/starford/offcuts/internal/temporal"
)

// OpenBackend opens the graph engine selected by store.driver.
func OpenBackend(ctx context.Context, cfg *Config) (graph.Backend, error) {
	hasher := password.NewDefault()

	switch cfg.Store.Driver {
	case StoreDriverNeo4j:
		db, err := graphdb.Open(ctx, graphdb.Config{
			URI:         cfg.Neo4j.URI,
			Username:    cfg.Neo4j.Username,
			Password:    cfg.Neo4j.Password,
			Database:    cfg.Neo4j.Database,
			MaxPoolSize: cfg.Neo4j.MaxPoolSize,
			TxTimeout:   cfg.Neo4j.TxTimeout,
		}, hasher)
		if err != nil {
			return nil, fmt.Errorf("open neo4j store: %w", err)
		}
		return db, nil
	case StoreDriverSQLite:
		db, err := sqlgraph.Open(cfg.SQLite.Path, hasher)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// OpenPhotos opens the photo storage selected by photos.backend.
func OpenPhotos(ctx context.Context, cfg *Config) (storage.Provider, error) {
	switch cfg.Photos.Backend {
	case PhotoBackendS3:
		s3cfg := cfg.Photos.S3
		p, err := storage.NewS3(ctx, storage.S3Config{
			Endpoint:  s3cfg.Endpoint,
			Region:    s3cfg.Region,
			Bucket:    s3cfg.Bucket,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
			UseSSL:    s3cfg.UseSSL,
			PathStyle: s3cfg.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 photos: %w", err)
		}
		return p, nil
	case PhotoBackendFS:
		if err := os.MkdirAll(cfg.Photos.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create photos dir: %w", err)
		}
		p, err := storage.NewFS(cfg.Photos.Dir)
		if err != nil {
			return nil, fmt.Errorf("open photos dir: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown photos backend %q", cfg.Photos.Backend)
	}
}

// NewCodec returns the backup codec for engine configured by backup.speculative_timestamps.
func NewCodec(cfg *Config, engine graph.Engine, logger *slog.Logger) *backup.Codec {
	norm := temporal.New(graph.IsTemporalKey, temporal.WithSpeculative(cfg.Backup.SpeculativeTimestamps))
	return backup.New(engine, norm, logger)
}

// NewService wires the domain service over an opened backend.
func NewService(cfg *Config, backend graph.Backend, logger *slog.Logger, opts ...marketservice.Option) *marketservice.Service {
	opts = append([]marketservice.Option{marketservice.WithLogger(logger)}, opts...)
	return marketservice.New(backend, NewCodec(cfg, backend, logger), opts...)
}
