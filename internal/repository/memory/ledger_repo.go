package memory

import (
	"context"
	"sync"

	"eventnotifier/internal/domain"
)

type ledgerKey struct {
	userID     string
	messageKey string
}

// Ledger is an in-process insert-if-absent ledger. The check and the insert
// happen under one lock.
type Ledger struct {
	mu      sync.Mutex
	entries map[ledgerKey]domain.LedgerEntry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[ledgerKey]domain.LedgerEntry)}
}

func (l *Ledger) Insert(_ context.Context, e domain.LedgerEntry) error {
	k := ledgerKey{userID: e.UserID, messageKey: e.MessageKey}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[k]; ok {
		return domain.ErrAlreadySent
	}
	l.entries[k] = e
	return nil
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Has reports whether an entry exists for the user and message key.
func (l *Ledger) Has(userID, messageKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[ledgerKey{userID: userID, messageKey: messageKey}]
	return ok
}
