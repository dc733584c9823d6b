// Command ingest fetches tonight's NHL odds and rewrites the games file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ktwom22/nhl-bot/internal/app"
	"github.com/ktwom22/nhl-bot/internal/config"
	"github.com/ktwom22/nhl-bot/internal/ingest"
)

func main() {
	at := flag.String("at", "", "ingest the league day containing this RFC3339 time instead of now")
	flag.Parse()

	if err := run(*at); err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
}

func run(at string) error {
	now := time.Now()
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		now = t
	}

	cfg, err := config.LoadIngest()
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

	result, err := app.NewIngestService(cfg, backends, logger).Run(ctx, now)
	switch {
	case errors.Is(err, ingest.ErrNoGames):
		logger.Sugar().Warnw("No games for league day, games file unchanged", "date", result.Date)
	case err != nil:
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
