// Command reconcile grades the pick log against final scores and writes the
// results file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ktwom22/nhl-bot/internal/app"
	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/models"
)

func main() {
	verbose := flag.Bool("v", false, "print every evaluation, not just the tallies")
	flag.Parse()

	if err := run(*verbose); err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		os.Exit(1)
	}
}

func run(verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()

	backends, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	picks, err := app.NewPickStore(cfg, backends)
	if err != nil {
		return err
	}
	svc, err := app.NewReconcileService(cfg, backends, picks, logger)
	if err != nil {
		return err
	}

	report, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	if !verbose {
		report.Evaluations = []models.Evaluation{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
