package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"eventnotifier/internal/domain"
)

// TriggerReport summarizes one invocation of the trigger pipeline.
// swagger:model TriggerReport
type TriggerReport struct {
	At          time.Time        `json:"at"`
	EventType   domain.EventType `json:"eventType"`
	Zones       []string         `json:"zones"`
	Candidates  int              `json:"candidates"`
	Matched     int              `json:"matched"`
	Emitted     int              `json:"emitted"`
	Skipped     int              `json:"skipped"`
	FailedZones []string         `json:"failedZones,omitempty"`
	FailedUsers []string         `json:"failedUsers,omitempty"`
}

// Trigger runs sample → match → emit for one event type.
type Trigger struct {
	eventType domain.EventType
	sampler   *TimeZoneSampler
	matcher   *EventMatcher
	gate      *DispatchGate
	clock     domain.Clock
	logger    *slog.Logger
}

// NewTrigger validates eventType before anything else; an unsupported value
// is a configuration error.
func NewTrigger(eventType string, sampler *TimeZoneSampler, matcher *EventMatcher, gate *DispatchGate, clock domain.Clock, logger *slog.Logger) (*Trigger, error) {
	t, err := domain.ParseEventType(eventType)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Trigger{eventType: t, sampler: sampler, matcher: matcher, gate: gate, clock: clock, logger: logger}, nil
}

// EventType returns the event type this trigger notifies.
func (t *Trigger) EventType() domain.EventType { return t.eventType }

// Run evaluates the pipeline at the current instant.
func (t *Trigger) Run(ctx context.Context) (*TriggerReport, error) {
	return t.RunAt(ctx, t.clock.Now())
}

// RunAt evaluates the pipeline at now. The same instant is used for sampling
// and for every per-user date check. Emission continues past individual
// failures; all failures are joined into the returned error. Re-running after
// any failure is safe because delivery is gated by the ledger.
func (t *Trigger) RunAt(ctx context.Context, now time.Time) (*TriggerReport, error) {
	now = now.UTC().Truncate(time.Minute)
	report := &TriggerReport{At: now, EventType: t.eventType}

	samples := t.sampler.Sample(now)
	for _, s := range samples {
		report.Zones = append(report.Zones, s.Zone)
	}
	if len(samples) == 0 {
		t.logger.DebugContext(ctx, "no time zones at notify hour, skipping", "at", now)
		return report, nil
	}
	t.logger.InfoContext(ctx, "time zones at notify hour",
		"at", now,
		"event_type", t.eventType,
		"count", len(samples),
		"zones", report.Zones,
	)

	res, err := t.matcher.Match(ctx, now, samples, t.eventType)
	if res != nil {
		report.Candidates = res.Candidates
		report.Matched = len(res.Matches)
		report.Skipped = res.Skipped
		for zone := range res.FailedZones {
			report.FailedZones = append(report.FailedZones, zone)
		}
		sort.Strings(report.FailedZones)
	}
	if err != nil {
		return report, fmt.Errorf("matching interrupted: %w", err)
	}

	var errs []error
	if zerr := res.Err(); zerr != nil {
		errs = append(errs, zerr)
	}
	t.logger.InfoContext(ctx, "users to process", "event_type", t.eventType, "count", len(res.Matches))

	for _, m := range res.Matches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		msg := domain.NewDispatchMessage(m.User, t.eventType, m.Year)
		if err := t.gate.Emit(ctx, msg); err != nil {
			report.FailedUsers = append(report.FailedUsers, m.User.ID)
			errs = append(errs, err)
			continue
		}
		report.Emitted++
	}

	if err := errors.Join(errs...); err != nil {
		t.logger.ErrorContext(ctx, "trigger finished with errors",
			"event_type", t.eventType,
			"emitted", report.Emitted,
			"err", err,
		)
		return report, err
	}
	return report, nil
}
