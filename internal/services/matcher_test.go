package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventnotifier/internal/domain"
)

func user(t *testing.T, id, zone, birthday string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, FirstName: "First-" + id, LastName: "Last", TimeZone: zone}
	if birthday != "" {
		u.Birthday = mustDate(t, birthday)
	}
	return u
}

func sampleZones(zones ...string) []domain.TimeZoneSample {
	out := make([]domain.TimeZoneSample, 0, len(zones))
	for _, z := range zones {
		out = append(out, domain.TimeZoneSample{Zone: z})
	}
	return out
}

func matchedIDs(res *MatchResult) []string {
	ids := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		ids = append(ids, m.User.ID)
	}
	return ids
}

func TestEventMatcher_Match(t *testing.T) {
	catalog := mustCatalog(t, "UTC", "Pacific/Kiritimati", "Pacific/Pago_Pago")
	now := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)

	dir := newFakeDirectory().
		add(user(t, "alice", "UTC", "--01-20")).
		add(user(t, "bob", "UTC", "1990-01-21")).
		add(user(t, "carol", "UTC", "")).
		add(user(t, "dave", "UTC", "1985-01-20"))
	m := NewEventMatcher(dir, catalog, discardLogger(), 4)

	res, err := m.Match(context.Background(), now, sampleZones("UTC"), domain.EventBirthday)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	assert.Equal(t, []string{"alice", "dave"}, matchedIDs(res))
	for _, match := range res.Matches {
		assert.Equal(t, 2026, match.Year)
	}
	assert.Equal(t, 4, res.Candidates)
	assert.Equal(t, 2, res.Skipped)
}

func TestEventMatcher_UsesLocalDate(t *testing.T) {
	catalog := mustCatalog(t, "Pacific/Kiritimati", "Pacific/Pago_Pago")

	tests := []struct {
		name     string
		now      time.Time
		user     *domain.User
		wantYear int
	}{
		{
			name:     "ahead of utc is already tomorrow",
			now:      time.Date(2026, 1, 20, 19, 0, 0, 0, time.UTC),
			user:     user(t, "kiri", "Pacific/Kiritimati", "--01-21"),
			wantYear: 2026,
		},
		{
			name:     "new year arrives early",
			now:      time.Date(2025, 12, 31, 19, 0, 0, 0, time.UTC),
			user:     user(t, "kiri", "Pacific/Kiritimati", "--01-01"),
			wantYear: 2026,
		},
		{
			name:     "behind utc is still yesterday",
			now:      time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC),
			user:     user(t, "pago", "Pacific/Pago_Pago", "--01-01"),
			wantYear: 2026,
		},
		{
			name: "utc date does not match",
			now:  time.Date(2026, 1, 20, 19, 0, 0, 0, time.UTC),
			user: user(t, "kiri", "Pacific/Kiritimati", "--01-20"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newFakeDirectory().add(tt.user)
			m := NewEventMatcher(dir, catalog, discardLogger(), 0)

			res, err := m.Match(context.Background(), tt.now, sampleZones(tt.user.TimeZone), domain.EventBirthday)
			require.NoError(t, err)
			if tt.wantYear == 0 {
				assert.Empty(t, res.Matches)
				return
			}
			require.Len(t, res.Matches, 1)
			assert.Equal(t, tt.wantYear, res.Matches[0].Year)
		})
	}
}

func TestEventMatcher_LeapDay(t *testing.T) {
	catalog := mustCatalog(t, "UTC")
	dir := newFakeDirectory().add(user(t, "leap", "UTC", "2000-02-29"))
	m := NewEventMatcher(dir, catalog, discardLogger(), 0)

	res, err := m.Match(context.Background(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), sampleZones("UTC"), domain.EventBirthday)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)

	res, err = m.Match(context.Background(), time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC), sampleZones("UTC"), domain.EventBirthday)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 2028, res.Matches[0].Year)
}

func TestEventMatcher_Anniversary(t *testing.T) {
	catalog := mustCatalog(t, "UTC")
	married := user(t, "married", "UTC", "1990-05-05")
	anniversary := mustDate(t, "2015-01-20")
	married.Anniversary = &anniversary
	single := user(t, "single", "UTC", "1990-01-20")

	m := NewEventMatcher(newFakeDirectory().add(married).add(single), catalog, discardLogger(), 0)
	res, err := m.Match(context.Background(), time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC), sampleZones("UTC"), domain.EventAnniversary)
	require.NoError(t, err)

	assert.Equal(t, []string{"married"}, matchedIDs(res))
	assert.Equal(t, 1, res.Skipped)
}

func TestEventMatcher_SkipsBadRecords(t *testing.T) {
	catalog := mustCatalog(t, "UTC")
	dir := newFakeDirectory()
	dir.byZone["UTC"] = []*domain.User{
		user(t, "no-zone", "", "--01-20"),
		user(t, "bad-zone", "Mars/Olympus", "--01-20"),
		user(t, "ok", "UTC", "--01-20"),
		nil,
	}
	m := NewEventMatcher(dir, catalog, discardLogger(), 0)

	res, err := m.Match(context.Background(), time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC), sampleZones("UTC"), domain.EventBirthday)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, matchedIDs(res))
	assert.Equal(t, 2, res.Skipped)
}

func TestEventMatcher_FailureIsolation(t *testing.T) {
	catalog := mustCatalog(t, "UTC", "Europe/London", "Africa/Abidjan")
	now := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	dirErr := errors.New("throttled")

	dir := newFakeDirectory().
		add(user(t, "utc", "UTC", "--01-20")).
		add(user(t, "abidjan", "Africa/Abidjan", "--01-20"))
	dir.errs["Europe/London"] = dirErr
	m := NewEventMatcher(dir, catalog, discardLogger(), 2)

	res, err := m.Match(context.Background(), now, sampleZones("UTC", "Europe/London", "Africa/Abidjan"), domain.EventBirthday)
	require.NoError(t, err)

	assert.Equal(t, []string{"abidjan", "utc"}, matchedIDs(res))
	require.Contains(t, res.FailedZones, "Europe/London")
	assert.Len(t, res.FailedZones, 1)

	zerr := res.Err()
	require.Error(t, zerr)
	assert.True(t, IsZoneLookupError(zerr))
	assert.ErrorIs(t, zerr, dirErr)
	assert.Contains(t, zerr.Error(), "Europe/London")
}

func TestEventMatcher_UnionAcrossZones(t *testing.T) {
	catalog := mustCatalog(t, "UTC", "Etc/UTC")
	u := user(t, "dup", "UTC", "--01-20")
	dir := newFakeDirectory().add(u)
	dir.byZone["Etc/UTC"] = []*domain.User{u}
	m := NewEventMatcher(dir, catalog, discardLogger(), 0)

	res, err := m.Match(context.Background(), time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC), sampleZones("UTC", "Etc/UTC"), domain.EventBirthday)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup"}, matchedIDs(res))
	assert.Equal(t, 1, res.Candidates)
}

func TestEventMatcher_CancelledContext(t *testing.T) {
	catalog := mustCatalog(t, "UTC")
	dir := newFakeDirectory().add(user(t, "alice", "UTC", "--01-20"))
	m := NewEventMatcher(dir, catalog, discardLogger(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := m.Match(ctx, time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC), sampleZones("UTC"), domain.EventBirthday)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Contains(t, res.FailedZones, "UTC")
	assert.Zero(t, dir.calls["UTC"])
}

func TestEventMatcher_NoSamples(t *testing.T) {
	dir := newFakeDirectory()
	m := NewEventMatcher(dir, mustCatalog(t, "UTC"), discardLogger(), 0)

	res, err := m.Match(context.Background(), time.Now(), nil, domain.EventBirthday)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Empty(t, dir.calls)
}
