package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/common/logger"
	"releaseguard.app/guard/common/otel"
	"releaseguard.app/guard/core/config"
	"releaseguard.app/guard/core/db"
	"releaseguard.app/guard/internal/service"
	"releaseguard.app/guard/internal/store"
	"releaseguard.app/guard/internal/worker"
)

func main() {
	once := flag.Bool("once", false, "sweep a single time and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeSweeper)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "releaseguard sweeper starting",
		"env", cfg.Env,
		"interval", cfg.Schedule.SweepInterval,
		"retention", cfg.Schedule.SweepRetention)

	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	schedule := service.NewBlockScheduleService(store.NewStores(database.Queries()).BlockWindows(), service.NewTxRunner(database))
	sweeper, err := worker.NewSweeper(schedule, worker.SweeperConfig{
		Interval:  cfg.Schedule.SweepInterval,
		Retention: cfg.Schedule.SweepRetention,
	})
	if err != nil {
		slog.ErrorContext(ctx, "invalid sweeper config", "error", err)
		os.Exit(1)
	}

	if *once {
		n, err := sweeper.SweepOnce(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "sweep failed", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "sweep complete", "purged", n)
		return
	}

	go sweeper.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down sweeper...")
	sweeper.Stop()

	if telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "sweeper shutdown complete")
}
