package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cataloghq/semsearch/application/service"
	"github.com/cataloghq/semsearch/domain/catalog"
	"github.com/cataloghq/semsearch/domain/search"
	"github.com/cataloghq/semsearch/infrastructure/persistence"
	"github.com/cataloghq/semsearch/infrastructure/provider"
	infrasearch "github.com/cataloghq/semsearch/infrastructure/search"
	"github.com/cataloghq/semsearch/internal/config"
	"github.com/cataloghq/semsearch/internal/database"
)

// app bundles the wired components shared by the CLI commands.
type app struct {
	cfg      config.AppConfig
	logger   *slog.Logger
	db       database.Database
	vectorDB database.Database
	catalog  catalog.Store
	vectors  search.VectorStore
	embedder search.Embedder
	searcher *service.Searcher
	sync     *service.Sync
}

// newApp opens the databases and wires stores, embedder, and services.
func newApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*app, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if err := db.ConfigurePool(cfg.MaxOpenConns(), cfg.MaxIdleConns(), cfg.ConnMaxLifetime()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pool: %w", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}

	// The vector store may live in a separate database. When the URLs
	// match, the catalog connection is shared.
	vectorDB := db
	if cfg.VectorDBURL() != cfg.DBURL() {
		vectorDB, err = database.NewDatabase(ctx, cfg.VectorDBURL())
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open vector database: %w", err)
		}
	}

	var vectors search.VectorStore
	if vectorDB.IsPostgres() {
		vectors = infrasearch.NewPgvectorStore(vectorDB, logger,
			infrasearch.WithProbeTimeout(cfg.ProbeTimeout()),
			infrasearch.WithQueryTimeout(cfg.QueryTimeout()),
		)
	} else {
		vectors = infrasearch.NewSQLiteVectorStore(vectorDB, logger)
	}

	embedder := newEmbedder(cfg, logger)
	catalogStore := persistence.NewCatalogStore(db)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		vectorDB: vectorDB,
		catalog:  catalogStore,
		vectors:  vectors,
		embedder: embedder,
		searcher: service.NewSearcher(vectors, catalogStore, embedder, logger),
		sync: service.NewSync(vectors, catalogStore, embedder, logger,
			service.WithDelay(cfg.SyncDelay())),
	}, nil
}

// newEmbedder picks the remote endpoint when one is configured, otherwise
// the in-process model cache.
func newEmbedder(cfg config.AppConfig, logger *slog.Logger) search.Embedder {
	if ep := cfg.EmbeddingEndpoint(); ep != nil && ep.IsConfigured() {
		logger.Info("using remote embedding endpoint", "model", ep.Model())
		return provider.NewRemoteEmbedder(provider.OpenAIConfig{
			APIKey:  ep.APIKey(),
			BaseURL: ep.BaseURL(),
			Model:   ep.Model(),
			Timeout: ep.Timeout(),
		})
	}
	return provider.NewModelCache(cfg.ModelID(), cfg.ModelDir(), logger)
}

// Close releases the database connections and the embedding model.
func (a *app) Close() {
	if closer, ok := a.embedder.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Error("failed to close embedder", "error", err)
		}
	}
	if a.vectorDB != a.db {
		if err := a.vectorDB.Close(); err != nil {
			a.logger.Error("failed to close vector database", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close catalog database", "error", err)
	}
}
