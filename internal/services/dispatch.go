package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventnotifier/internal/domain"
)

// DeliveryOutcome is the result of handling one received dispatch message.
type DeliveryOutcome int

const (
	// OutcomeSent means this attempt won the ledger insert and notified.
	OutcomeSent DeliveryOutcome = iota + 1
	// OutcomeDuplicate means the ledger entry already existed; nothing was sent.
	OutcomeDuplicate
)

func (o DeliveryOutcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeDuplicate:
		return "duplicate"
	}
	return "unknown"
}

// DispatchGate emits dispatch messages and, on the consuming side, turns the
// at-least-once stream into at most one notification per (user, event, year).
type DispatchGate struct {
	publisher domain.MessagePublisher
	ledger    domain.Ledger
	notifier  domain.Notifier
	clock     domain.Clock
	logger    *slog.Logger
}

// NewDispatchGate wires the gate. publisher may be nil on delivery-only
// processes; ledger and notifier may be nil on trigger-only processes.
func NewDispatchGate(publisher domain.MessagePublisher, ledger domain.Ledger, notifier domain.Notifier, clock domain.Clock, logger *slog.Logger) *DispatchGate {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &DispatchGate{publisher: publisher, ledger: ledger, notifier: notifier, clock: clock, logger: logger}
}

// Emit enqueues msg on the dispatch channel.
func (g *DispatchGate) Emit(ctx context.Context, msg domain.DispatchMessage) error {
	if g.publisher == nil {
		return errors.New("dispatch gate has no publisher")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := g.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish message for user %s: %w", msg.UserID, err)
	}
	g.logger.InfoContext(ctx, "dispatch message emitted",
		"user_id", msg.UserID,
		"message_key", msg.MessageKey(),
	)
	return nil
}

// Deliver handles one received message. The ledger insert happens before any
// notification; a duplicate key is reported as OutcomeDuplicate with a nil
// error. Notification failures after a successful insert are logged and not
// returned, since the event is already spent.
func (g *DispatchGate) Deliver(ctx context.Context, msg domain.DispatchMessage) (DeliveryOutcome, error) {
	if g.ledger == nil {
		return 0, errors.New("dispatch gate has no ledger")
	}
	if err := msg.Validate(); err != nil {
		return 0, err
	}
	entry := domain.NewLedgerEntry(msg, g.clock.Now().UTC())
	if err := g.ledger.Insert(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadySent) {
			g.logger.InfoContext(ctx, "already sent, skipping",
				"user_id", msg.UserID,
				"message_key", entry.MessageKey,
			)
			return OutcomeDuplicate, nil
		}
		return 0, fmt.Errorf("failed to record notification for user %s: %w", msg.UserID, err)
	}

	if g.notifier != nil {
		if err := g.notifier.Notify(ctx, msg); err != nil {
			g.logger.ErrorContext(ctx, "notification failed after ledger insert",
				"user_id", msg.UserID,
				"message_key", entry.MessageKey,
				"err", err,
			)
			return OutcomeSent, nil
		}
	}
	g.logger.InfoContext(ctx, "notification sent",
		"user_id", msg.UserID,
		"message_key", entry.MessageKey,
	)
	return OutcomeSent, nil
}

// Handle adapts Deliver to a domain.MessageHandler for transport consumers.
func (g *DispatchGate) Handle(ctx context.Context, msg domain.DispatchMessage) error {
	_, err := g.Deliver(ctx, msg)
	return err
}
