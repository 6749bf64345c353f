package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for dispatch and delivery.
var (
	// ErrAlreadySent is returned by a Ledger when the entry already exists.
	// Callers treat it as a successful no-op.
	ErrAlreadySent = errors.New("notification already sent")
	// ErrMalformedMessage is returned for messages that cannot be delivered.
	ErrMalformedMessage = errors.New("malformed dispatch message")
)

// DispatchMessage is one notification to deliver, produced once per matched user per invocation.
// swagger:model DispatchMessage
type DispatchMessage struct {
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	EventType EventType `json:"eventType"`
	Year      int       `json:"year"`
}

// NewDispatchMessage builds the message for a user and the local year of the event.
func NewDispatchMessage(u *User, t EventType, year int) DispatchMessage {
	return DispatchMessage{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		EventType: t,
		Year:      year,
	}
}

// MessageKey returns "<eventType>#<year>".
func (m DispatchMessage) MessageKey() string {
	return MessageKey(m.EventType, m.Year)
}

// PartitionKey keeps messages for the same user ordered and serialized.
func (m DispatchMessage) PartitionKey() string {
	return m.UserID
}

// DeduplicationID is the best-effort duplicate suppressor handed to the transport.
func (m DispatchMessage) DeduplicationID() string {
	return fmt.Sprintf("%s-%s-%d", m.UserID, m.EventType, m.Year)
}

// Validate returns an error wrapping ErrMalformedMessage if a required field is missing.
func (m DispatchMessage) Validate() error {
	switch {
	case m.UserID == "":
		return fmt.Errorf("%w: userId is required", ErrMalformedMessage)
	case !m.EventType.Valid():
		return fmt.Errorf("%w: eventType %q", ErrMalformedMessage, m.EventType)
	case m.Year <= 0:
		return fmt.Errorf("%w: year %d", ErrMalformedMessage, m.Year)
	}
	return nil
}

// Text is the human-readable notification body.
func (m DispatchMessage) Text() string {
	return fmt.Sprintf("Hey, %s %s it's your %s", m.FirstName, m.LastName, m.EventType)
}

// LedgerEntry records that a notification has been licensed for sending.
type LedgerEntry struct {
	UserID     string    `json:"userId"`
	MessageKey string    `json:"messageKey"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewLedgerEntry returns the entry guarding msg.
func NewLedgerEntry(msg DispatchMessage, createdAt time.Time) LedgerEntry {
	return LedgerEntry{UserID: msg.UserID, MessageKey: msg.MessageKey(), CreatedAt: createdAt}
}

// Ledger is the "already sent" store. Insert must be an atomic insert-if-absent
// and return ErrAlreadySent when (UserID, MessageKey) already exists.
type Ledger interface {
	Insert(ctx context.Context, entry LedgerEntry) error
}

// MessagePublisher enqueues dispatch messages on an at-least-once channel
// partitioned by PartitionKey.
type MessagePublisher interface {
	Publish(ctx context.Context, msg DispatchMessage) error
}

// MessageHandler processes one received message. A nil return acknowledges it.
type MessageHandler func(ctx context.Context, msg DispatchMessage) error

// MessageConsumer receives dispatch messages and hands them to a handler until ctx is done.
type MessageConsumer interface {
	Consume(ctx context.Context, handle MessageHandler) error
}

// Notifier delivers the human-visible notification (push topic, webhook).
type Notifier interface {
	Notify(ctx context.Context, msg DispatchMessage) error
}
