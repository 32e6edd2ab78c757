package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DeafMist/trend-radar/internal/config"
	"github.com/DeafMist/trend-radar/internal/logger"
	"github.com/DeafMist/trend-radar/internal/refresh"
)

func main() {
	log := logger.New("refresh")
	cfg, err := config.LoadRefresh()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pipeline, _, err := refresh.Build(ctx, cfg, log)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		stop()
		os.Exit(1)
	}

	report, err := pipeline.Run(ctx)
	if err != nil {
		log.Error("refresh failed", slog.Any("err", err))
		stop()
		os.Exit(1)
	}

	log.Info("refresh complete",
		slog.Int("articles", report.Articles),
		slog.Int("sources", report.Sources),
		slog.Int("audio_failures", report.AudioFailures),
		slog.Bool("delete_failed", report.DeleteFailed),
		slog.Bool("mirror_failed", report.MirrorFailed),
	)
}
