package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatchMessage(t *testing.T) {
	u := &User{ID: "u1", FirstName: "Alice", LastName: "Smith"}
	msg := NewDispatchMessage(u, EventBirthday, 2026)

	assert.NoError(t, msg.Validate())
	assert.Equal(t, "birthday#2026", msg.MessageKey())
	assert.Equal(t, "u1", msg.PartitionKey())
	assert.Equal(t, "u1-birthday-2026", msg.DeduplicationID())
	assert.Equal(t, "Hey, Alice Smith it's your birthday", msg.Text())

	anniversary := NewDispatchMessage(u, EventAnniversary, 2026)
	assert.NotEqual(t, msg.DeduplicationID(), anniversary.DeduplicationID())
	assert.NotEqual(t, msg.MessageKey(), anniversary.MessageKey())

	at := time.Date(2026, 1, 20, 9, 0, 1, 0, time.UTC)
	entry := NewLedgerEntry(msg, at)
	assert.Equal(t, LedgerEntry{UserID: "u1", MessageKey: "birthday#2026", CreatedAt: at}, entry)
}

func TestDispatchMessage_Validate(t *testing.T) {
	tests := []struct {
		name string
		msg  DispatchMessage
	}{
		{"missing user", DispatchMessage{EventType: EventBirthday, Year: 2026}},
		{"bad event type", DispatchMessage{UserID: "u1", EventType: "wedding", Year: 2026}},
		{"missing year", DispatchMessage{UserID: "u1", EventType: EventBirthday}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.msg.Validate(), ErrMalformedMessage)
		})
	}
}
