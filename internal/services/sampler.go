package services

import (
	"time"

	"eventnotifier/internal/domain"
	"eventnotifier/internal/tzcatalog"
)

// NotifyHour is the local wall-clock hour at which notifications go out.
const NotifyHour = 9

// TimeZoneSampler finds the zones whose local time is exactly NotifyHour:00.
type TimeZoneSampler struct {
	catalog *tzcatalog.Catalog
}

// NewTimeZoneSampler returns a sampler over the given catalog.
func NewTimeZoneSampler(catalog *tzcatalog.Catalog) *TimeZoneSampler {
	return &TimeZoneSampler{catalog: catalog}
}

// Sample returns every catalog zone whose local time at now, truncated to the
// minute, is 09:00. An empty result is normal.
func (s *TimeZoneSampler) Sample(now time.Time) []domain.TimeZoneSample {
	now = now.UTC().Truncate(time.Minute)
	var out []domain.TimeZoneSample
	s.catalog.Each(func(z tzcatalog.Zone) {
		local := now.In(z.Location)
		if local.Hour() == NotifyHour && local.Minute() == 0 {
			out = append(out, domain.TimeZoneSample{
				Zone:        z.Name,
				LocalTime:   local,
				OffsetLabel: offsetLabel(local),
			})
		}
	})
	return out
}

// offsetLabel renders the zone abbreviation, falling back to the numeric offset
// when the database has none ("+0530").
func offsetLabel(t time.Time) string {
	name, _ := t.Zone()
	if name == "" || name[0] == '+' || name[0] == '-' {
		return t.Format("-07:00")
	}
	return name
}
