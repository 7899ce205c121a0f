// Command relink recomputes similarity edges for a user's blocks. It runs
// the same link pass the API schedules after writes, but synchronously, so
// it can repair graphs after bulk data changes or a threshold adjustment.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"notelink-backend/application/ports"
	"notelink-backend/infrastructure/config"
	"notelink-backend/infrastructure/di"
)

func main() {
	userID := flag.String("user", "", "owner whose blocks to relink (required)")
	blockID := flag.String("block", "", "relink a single block instead of all blocks")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Shutdown(context.Background())

	targets := []string{*blockID}
	if *blockID == "" {
		list, err := container.BlockService.List(ctx, *userID, ports.ListOptions{})
		if err != nil {
			logger.Fatal("listing blocks failed", zap.Error(err))
		}
		targets = targets[:0]
		for _, b := range list {
			targets = append(targets, b.ID)
		}
	}

	logger.Info("relinking blocks", zap.String("userId", *userID), zap.Int("count", len(targets)))

	var failed int
	for _, id := range targets {
		if ctx.Err() != nil {
			logger.Warn("interrupted", zap.Int("remaining", len(targets)-failed))
			break
		}
		if err := container.LinkService.TraceBlockLinks(ctx, *userID, id); err != nil {
			failed++
			logger.Error("link pass failed", zap.String("blockId", id), zap.Error(err))
		}
	}

	logger.Info("relink completed", zap.Int("blocks", len(targets)), zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}
