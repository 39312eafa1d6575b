package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/link"
)

// Retry calls m.Connect up to maxAttempts times, sleeping b.Next() between
// failures. A validation failure is returned at once. maxAttempts <= 0
// means retry until ctx ends.
func Retry(ctx context.Context, m *Manager, desc link.Descriptor, b *Backoff, maxAttempts int) error {
	if b == nil {
		b = NewBackoff()
	}
	var lastErr error
	for attempt := 1; maxAttempts <= 0 || attempt <= maxAttempts; attempt++ {
		err := m.Connect(ctx, desc)
		if err == nil {
			b.Reset()
			return nil
		}
		if errors.Is(err, fault.ErrValidationFailed) || errors.Is(err, ErrNoDialer) {
			return err
		}
		lastErr = err
		if maxAttempts > 0 && attempt == maxAttempts {
			break
		}

		delay := b.Next()
		m.logger.Info("connect retry scheduled", "attempt", attempt, "delay", delay, "error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fault.FromContext("connect", ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("connect failed after %d attempts: %w", maxAttempts, lastErr)
}
