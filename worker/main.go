package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/trend-radar/internal/config"
	"github.com/DeafMist/trend-radar/internal/dedupe"
	"github.com/DeafMist/trend-radar/internal/logger"
	"github.com/DeafMist/trend-radar/internal/refresh"
	"github.com/DeafMist/trend-radar/internal/trigger"
)

const dlqAttempts = 5

type refreshRunner interface {
	Run(ctx context.Context) (refresh.Report, error)
}

type dlqWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pipeline, comps, err := refresh.Build(ctx, &cfg.Refresh, log)
	if err != nil {
		log.Error("init pipeline", slog.Any("err", err))
		stop()
		os.Exit(1)
	}

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	if comps.Search != nil {
		if err := comps.Search.WaitReady(ctx); err != nil {
			log.Warn("search mirror unavailable, runs will report mirror failures", slog.Any("err", err))
		}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  1,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlq := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlq.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
		slog.Duration("freshness_window", cfg.FreshnessWindow),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, pipeline, comps.Articles, cache, cfg, msg); err != nil {
			log.Warn("refresh trigger failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			// Only commit once the DLQ holds the trigger; otherwise it is
			// redelivered after a restart.
			if !sendToDLQ(ctx, log, dlq, msg, err) {
				if ctx.Err() != nil {
					return
				}
				log.Error("DLQ write exhausted retries, trigger may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// processMessage runs one refresh for a trigger message. Redelivered
// triggers are ignored, and non-forced triggers are skipped while the
// corpus is still fresh.
func processMessage(ctx context.Context, log *slog.Logger, runner refreshRunner, corpus refresh.FreshnessChecker, cache *dedupe.Cache, cfg *config.Worker, msg kafka.Message) error {
	t, err := trigger.Decode(msg.Value)
	if err != nil {
		return err
	}

	if cache.IsSeen(t.ID) {
		log.Debug("duplicate trigger", slog.String("id", t.ID))
		return nil
	}

	if !t.Force {
		stale, err := refresh.NeedsRefresh(ctx, corpus, cfg.FreshnessWindow, time.Now())
		if err != nil {
			return err
		}
		if !stale {
			cache.MarkSeen(t.ID)
			log.Info("corpus fresh, skipping refresh", slog.String("id", t.ID), slog.String("reason", t.Reason))
			return nil
		}
	}

	log.Info("refresh started", slog.String("id", t.ID), slog.String("reason", t.Reason), slog.Bool("force", t.Force))
	report, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", t.ID, err)
	}

	cache.MarkSeen(t.ID)
	log.Info("refresh done",
		slog.String("id", t.ID),
		slog.Int("articles", report.Articles),
		slog.Int("audio_failures", report.AudioFailures),
	)
	return nil
}

// sendToDLQ writes msg with error context to the dead-letter topic,
// retrying with exponential backoff.
func sendToDLQ(ctx context.Context, log *slog.Logger, w dlqWriter, msg kafka.Message, cause error) bool {
	// Fresh backing array: appending to msg.Headers could write into the
	// fetched message's spare capacity.
	headers := make([]kafka.Header, len(msg.Headers), len(msg.Headers)+4)
	copy(headers, msg.Headers)
	headers = append(headers,
		kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
		kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
	)
	dlqMsg := kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}

	for attempt := range dlqAttempts {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("trigger sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}
