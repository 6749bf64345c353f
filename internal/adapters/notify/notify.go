// Package notify implements the notification channels that follow a
// successful ledger insert: an SNS topic and an HTTP webhook.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"eventnotifier/internal/domain"
)

// Multi fans a notification out to every channel. Every channel is attempted;
// failures are joined.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, msg domain.DispatchMessage) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Throttled limits how fast the wrapped notifier is called.
type Throttled struct {
	next    domain.Notifier
	limiter *rate.Limiter
}

// NewThrottled allows perSec notifications per second with a burst of perSec.
func NewThrottled(next domain.Notifier, perSec int) *Throttled {
	if perSec < 1 {
		perSec = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSec), perSec)}
}

func (t *Throttled) Notify(ctx context.Context, msg domain.DispatchMessage) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notify rate limit: %w", err)
	}
	return t.next.Notify(ctx, msg)
}

type noopNotifier struct {
	logger *slog.Logger
}

// NewNoop returns a notifier that only logs. Used when no channel is configured.
func NewNoop(logger *slog.Logger) domain.Notifier {
	return &noopNotifier{logger: logger}
}

func (n *noopNotifier) Notify(ctx context.Context, msg domain.DispatchMessage) error {
	n.logger.InfoContext(ctx, "notification would be sent (noop)", "user_id", msg.UserID, "text", msg.Text())
	return nil
}
