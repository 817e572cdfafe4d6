package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cataloghq/semsearch/application/service"
	"github.com/cataloghq/semsearch/infrastructure/api"
	"github.com/cataloghq/semsearch/internal/config"
	"github.com/cataloghq/semsearch/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                     Server host to bind to (default: 0.0.0.0)
  PORT                     Server port to listen on (default: 8080)
  DATA_DIR                 Data directory (default: ~/.semsearch)
  DB_URL                   Catalog database URL (default: sqlite:///{data_dir}/semsearch.db)
  VECTOR_DB_URL            Vector store URL (default: same as DB_URL)
  LOG_LEVEL                Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT               Log format: pretty, json (default: pretty)
  SEARCH_LIMIT             Default result limit (default: 20)
  SEARCH_THRESHOLD         Default similarity threshold (default: 0.1)
  PROBE_TIMEOUT_SECONDS    Vector store probe timeout (default: 3)
  QUERY_TIMEOUT_SECONDS    Vector query timeout (default: 8)
  REQUEST_TIMEOUT_SECONDS  HTTP request timeout (default: 60)
  SYNC_DELAY_MILLIS        Delay between products during sync (default: 100)
  MODEL_ID                 Embedding model (default: sentence-transformers/all-MiniLM-L6-v2)

  EMBEDDING_ENDPOINT_*     Remote embedding service (optional; local model otherwise)
    BASE_URL               Base URL (e.g., https://api.openai.com/v1)
    MODEL                  Model identifier (e.g., text-embedding-3-small)
    API_KEY                API key for authentication
    TIMEOUT                Request timeout in seconds (default: 60)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting semsearch", attrs...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, slogger)
	if err != nil {
		return err
	}
	defer a.Close()

	// Warm the model in the background so the first search does not pay
	// the load cost. Failure is not fatal; searches fall back to keywords
	// until the model recovers.
	if p, ok := a.embedder.(service.Preloader); ok {
		go func() {
			if err := p.Preload(ctx); err != nil {
				slogger.Warn("model preload failed", "error", err)
			}
		}()
	}

	apiServer := api.NewAPIServer(a.searcher, a.sync, a.db, a.vectors, a.embedder, slogger,
		api.WithSearchDefaults(cfg.SearchLimit(), cfg.SearchThreshold()),
		api.WithRequestTimeout(cfg.RequestTimeout()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slogger.Info("shutting down server")
		cancel()
		if err := apiServer.Shutdown(context.Background()); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
