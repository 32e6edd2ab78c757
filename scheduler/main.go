package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/trend-radar/internal/config"
	"github.com/DeafMist/trend-radar/internal/logger"
	"github.com/DeafMist/trend-radar/internal/trigger"
)

type triggerPublisher interface {
	Publish(ctx context.Context, t trigger.Trigger) error
}

func main() {
	log := logger.New("scheduler")
	cfg, err := config.LoadScheduler()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	publisher := trigger.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("scheduler running",
		slog.Duration("interval", cfg.Interval),
		slog.String("topic", cfg.KafkaTopic),
	)

	// The worker skips the trigger when the corpus is still fresh, so
	// publishing on start is harmless.
	publishOnce(ctx, log, publisher)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			publishOnce(ctx, log, publisher)
		}
	}
}

func publishOnce(ctx context.Context, log *slog.Logger, publisher triggerPublisher) bool {
	subCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	t := trigger.New(trigger.ReasonSchedule, false)
	if err := publisher.Publish(subCtx, t); err != nil {
		log.Warn("publish trigger failed (will retry on next interval)", slog.Any("err", err))
		return false
	}

	log.Info("refresh trigger published", slog.String("id", t.ID))
	return true
}
