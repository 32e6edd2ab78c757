package elasticsearch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	connectAttempts  = 10
	connectBaseDelay = 2 * time.Second
	connectMaxDelay  = 30 * time.Second
	pingTimeout      = 5 * time.Second
)

// WaitReady pings the cluster until it answers, backing off exponentially
// between attempts. It gives up after a fixed number of attempts or when
// ctx ends.
func (c *Client) WaitReady(ctx context.Context) error {
	delay := connectBaseDelay
	var lastErr error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = c.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		c.log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", lastErr),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", connectAttempts),
			slog.Duration("retry_in", delay),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, connectMaxDelay)
	}
	return fmt.Errorf("elasticsearch unreachable after %d attempts: %w", connectAttempts, lastErr)
}
