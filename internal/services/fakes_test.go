package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventnotifier/internal/domain"
	"eventnotifier/internal/tzcatalog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func mustCatalog(t *testing.T, names ...string) *tzcatalog.Catalog {
	t.Helper()
	c, err := tzcatalog.New(names)
	require.NoError(t, err)
	return c
}

func mustDate(t *testing.T, s string) domain.CalendarDate {
	t.Helper()
	d, err := domain.ParseCalendarDate(s)
	require.NoError(t, err)
	return d
}

// fakeDirectory implements domain.UserDirectory over a fixed zone → users map.
type fakeDirectory struct {
	mu     sync.Mutex
	byZone map[string][]*domain.User
	errs   map[string]error
	calls  map[string]int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		byZone: make(map[string][]*domain.User),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeDirectory) add(u *domain.User) *fakeDirectory {
	f.byZone[u.TimeZone] = append(f.byZone[u.TimeZone], u)
	return f
}

func (f *fakeDirectory) ListByTimeZone(ctx context.Context, zone string) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[zone]++
	if err := f.errs[zone]; err != nil {
		return nil, err
	}
	return f.byZone[zone], nil
}

func (f *fakeDirectory) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, users := range f.byZone {
		for _, u := range users {
			if u.ID == id {
				return u, nil
			}
		}
	}
	return nil, domain.ErrUserNotFound
}

// fakePublisher records published messages; failFor makes Publish fail for a user.
type fakePublisher struct {
	mu        sync.Mutex
	published []domain.DispatchMessage
	failFor   map[string]error
}

func (f *fakePublisher) Publish(ctx context.Context, msg domain.DispatchMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[msg.UserID]; err != nil {
		return err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) messages() []domain.DispatchMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DispatchMessage(nil), f.published...)
}

// fakeNotifier counts notifications.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.DispatchMessage
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, msg domain.DispatchMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeLedger fails every insert with err.
type fakeLedger struct{ err error }

func (f fakeLedger) Insert(context.Context, domain.LedgerEntry) error { return f.err }
