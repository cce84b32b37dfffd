package runtime

import (
	"context"
	"fmt"
	"time"
)

const (
	readinessInitialInterval = 250 * time.Millisecond
	readinessMaxInterval     = 5 * time.Second
)

// WaitReady polls the daemon until it answers its model listing endpoint or
// the timeout elapses. The polling interval backs off up to
// readinessMaxInterval.
func WaitReady(ctx context.Context, client *Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := readinessInitialInterval
	var lastErr error
	for {
		if _, err := client.ListModels(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("daemon at %s not ready: %w (last error: %v)", client.Endpoint(), ctx.Err(), lastErr)
			}
			return fmt.Errorf("daemon at %s not ready: %w", client.Endpoint(), ctx.Err())
		case <-time.After(interval):
		}

		interval *= 2
		if interval > readinessMaxInterval {
			interval = readinessMaxInterval
		}
	}
}
