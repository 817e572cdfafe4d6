package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cataloghq/semsearch/internal/log"
)

func syncCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Embed active products that have no embedding yet",
		Long: `Run one embedding sync pass: every active product without an embedding
row is embedded and written to the vector store. Products that already
have an embedding are skipped, so repeated runs are cheap.

Exits non-zero when any product fails, so schedulers can alert on
partial runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	return cmd
}

func runSync(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger := log.Configure(cfg)
	slogger := logger.Slog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, slogger)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.sync.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("processed: %d\nskipped:   %d\nfailed:    %d\n",
		report.Processed(), report.Skipped(), len(report.Failures()))

	if report.HasFailures() {
		for _, f := range report.Failures() {
			fmt.Fprintf(os.Stderr, "product %d: %v\n", f.ProductID(), f.Err())
		}
		return fmt.Errorf("%d products failed to sync", len(report.Failures()))
	}
	return nil
}
