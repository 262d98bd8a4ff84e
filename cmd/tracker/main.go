package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/matchwire/internal/app"
	"github.com/riskibarqy/matchwire/internal/config"
	"github.com/riskibarqy/matchwire/internal/observability"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSON(logging.LevelError).Error("load config", "error", err)
		return 1
	}

	logger := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Service:     cfg.ServiceName,
		Environment: cfg.AppEnv,
	})
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("shutdown uptrace", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Error("stop pyroscope", "error", err)
		}
	}()

	pprofSrv := observability.StartPprofServer(cfg, logger)
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
			logger.Error("stop pprof", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			logger.Error("close app", "error", err)
		}
	}()

	logger.Info("tracker starting", "fixtures", cfg.TrackFixtureIDs, "workers", cfg.TrackerWorkers)
	summary, err := tracker.Pool.Run(ctx, cfg.TrackFixtureIDs)
	if err != nil {
		logger.Error("track fixtures", "error", err)
		return 1
	}

	logger.Info("tracker stopped",
		"success", summary.SuccessCount,
		"failed", summary.FailedCount,
		"cancelled", ctx.Err() != nil,
	)
	if summary.FailedCount > 0 && ctx.Err() == nil {
		return 1
	}
	return 0
}
