package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cataloghq/semsearch/infrastructure/provider"
	"github.com/cataloghq/semsearch/internal/log"
)

func preloadCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Download and warm the embedding model",
		Long: `Fetch the embedding model into the local cache and load it once, so a
later serve or sync starts without the download cost. Useful in image
builds and init containers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreload(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runPreload(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	if err := cfg.EnsureModelDir(); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cache := provider.NewModelCache(cfg.ModelID(), cfg.ModelDir(), slogger)
	defer func() {
		if err := cache.Close(); err != nil {
			slogger.Error("failed to close model cache", "error", err)
		}
	}()

	if err := cache.Preload(ctx); err != nil {
		return fmt.Errorf("preload model: %w", err)
	}

	fmt.Printf("model %s ready in %s\n", cfg.ModelID(), cfg.ModelDir())
	return nil
}
