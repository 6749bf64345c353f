package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"eventnotifier/internal/domain"
	"eventnotifier/internal/tzcatalog"
)

const defaultLookupConcurrency = 16

// Match is a user whose event falls on today in their own zone.
type Match struct {
	User *domain.User
	Year int
}

// MatchResult is the fan-in of the per-zone lookups. Zones whose lookup failed
// are kept apart in FailedZones so partial failure is never mistaken for success.
type MatchResult struct {
	Matches     []Match
	FailedZones map[string]error
	Candidates  int
	Skipped     int
}

// Err returns a *ZoneLookupError when any zone lookup failed, nil otherwise.
func (r *MatchResult) Err() error {
	if len(r.FailedZones) == 0 {
		return nil
	}
	return &ZoneLookupError{Zones: r.FailedZones}
}

// ZoneLookupError reports the zones whose directory lookup failed.
type ZoneLookupError struct {
	Zones map[string]error
}

func (e *ZoneLookupError) Error() string {
	names := make([]string, 0, len(e.Zones))
	for z := range e.Zones {
		names = append(names, z)
	}
	sort.Strings(names)
	return fmt.Sprintf("user lookup failed for %d zone(s): %s", len(names), strings.Join(names, ", "))
}

func (e *ZoneLookupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Zones))
	for _, err := range e.Zones {
		errs = append(errs, err)
	}
	return errs
}

// EventMatcher selects the users whose event date is today in their zone.
type EventMatcher struct {
	directory   domain.UserDirectory
	catalog     *tzcatalog.Catalog
	logger      *slog.Logger
	concurrency int
}

// NewEventMatcher creates an EventMatcher. concurrency bounds the number of
// simultaneous zone lookups; values below 1 use the default.
func NewEventMatcher(directory domain.UserDirectory, catalog *tzcatalog.Catalog, logger *slog.Logger, concurrency int) *EventMatcher {
	if concurrency < 1 {
		concurrency = defaultLookupConcurrency
	}
	return &EventMatcher{directory: directory, catalog: catalog, logger: logger, concurrency: concurrency}
}

// Match looks up the users of every sampled zone concurrently and keeps those
// whose stored month and day equal today's in their own zone, computed from now.
// The returned error is non-nil only when ctx ended before the fan-out finished;
// lookup failures are reported per zone in the result.
func (m *EventMatcher) Match(ctx context.Context, now time.Time, samples []domain.TimeZoneSample, eventType domain.EventType) (*MatchResult, error) {
	res := &MatchResult{FailedZones: make(map[string]error)}
	if len(samples) == 0 {
		return res, nil
	}

	var (
		mu         sync.Mutex
		candidates = make(map[string]*domain.User)
	)
	g := new(errgroup.Group)
	g.SetLimit(m.concurrency)
	for _, s := range samples {
		zone := s.Zone
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				res.FailedZones[zone] = err
				mu.Unlock()
				return nil
			}
			users, err := m.directory.ListByTimeZone(ctx, zone)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.FailedZones[zone] = fmt.Errorf("list users in %s: %w", zone, err)
				return nil
			}
			for _, u := range users {
				if u == nil {
					continue
				}
				candidates[u.ID] = u
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil && len(res.FailedZones) > 0 {
		return res, err
	}

	res.Candidates = len(candidates)
	for _, u := range candidates {
		year, ok := m.matchUser(ctx, now, u, eventType)
		if !ok {
			continue
		}
		res.Matches = append(res.Matches, Match{User: u, Year: year})
	}
	res.Skipped = res.Candidates - len(res.Matches)
	sort.Slice(res.Matches, func(i, j int) bool { return res.Matches[i].User.ID < res.Matches[j].User.ID })

	for zone, err := range res.FailedZones {
		m.logger.ErrorContext(ctx, "zone lookup failed", "zone", zone, "event_type", eventType, "err", err)
	}
	return res, nil
}

// matchUser reports whether u's event is today in u's zone and, if so, the local year.
func (m *EventMatcher) matchUser(ctx context.Context, now time.Time, u *domain.User, eventType domain.EventType) (int, bool) {
	if u.TimeZone == "" {
		m.logger.WarnContext(ctx, "skipping user without time zone", "user_id", u.ID)
		return 0, false
	}
	loc, err := m.catalog.Location(u.TimeZone)
	if err != nil {
		m.logger.WarnContext(ctx, "skipping user with unknown time zone", "user_id", u.ID, "zone", u.TimeZone)
		return 0, false
	}
	date, ok := u.EventDate(eventType)
	if !ok {
		if eventType == domain.EventBirthday {
			m.logger.WarnContext(ctx, "skipping user without event date", "user_id", u.ID, "event_type", eventType)
		} else {
			m.logger.DebugContext(ctx, "user has no date for event", "user_id", u.ID, "event_type", eventType)
		}
		return 0, false
	}
	local := now.In(loc)
	if !date.SameMonthDay(local) {
		return 0, false
	}
	return local.Year(), true
}

// IsZoneLookupError reports whether err carries per-zone lookup failures.
func IsZoneLookupError(err error) bool {
	var zerr *ZoneLookupError
	return errors.As(err, &zerr)
}
