package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedEventType is returned for any event type other than birthday or anniversary.
var ErrUnsupportedEventType = errors.New("unsupported event type")

// EventType is the kind of recurring event a notification is sent for.
type EventType string

const (
	EventBirthday    EventType = "birthday"
	EventAnniversary EventType = "anniversary"
)

// EventTypes lists every supported event type.
var EventTypes = []EventType{EventBirthday, EventAnniversary}

// ParseEventType validates s and returns the matching EventType.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(strings.TrimSpace(s)); t {
	case EventBirthday, EventAnniversary:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedEventType, s)
}

func (t EventType) String() string { return string(t) }

// Valid reports whether t is a supported event type.
func (t EventType) Valid() bool {
	return t == EventBirthday || t == EventAnniversary
}

// MessageKey returns the ledger sort key for an event type and year: "<eventType>#<year>".
func MessageKey(t EventType, year int) string {
	return fmt.Sprintf("%s#%d", t, year)
}
