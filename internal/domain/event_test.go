package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	for _, in := range []string{"birthday", "anniversary", " birthday "} {
		et, err := ParseEventType(in)
		require.NoError(t, err, in)
		assert.True(t, et.Valid())
	}
	for _, in := range []string{"unsupported", "", "Birthday"} {
		_, err := ParseEventType(in)
		assert.ErrorIs(t, err, ErrUnsupportedEventType, in)
	}
	assert.Equal(t, "birthday#2026", MessageKey(EventBirthday, 2026))
}

func TestUser_EventDate(t *testing.T) {
	anniversary := CalendarDate{Year: 2015, Month: time.June, Day: 1}
	u := &User{Birthday: CalendarDate{Month: time.January, Day: 20}, Anniversary: &anniversary}

	d, ok := u.EventDate(EventBirthday)
	assert.True(t, ok)
	assert.Equal(t, time.January, d.Month)

	d, ok = u.EventDate(EventAnniversary)
	assert.True(t, ok)
	assert.Equal(t, anniversary, d)

	_, ok = (&User{}).EventDate(EventBirthday)
	assert.False(t, ok)
	_, ok = (&User{}).EventDate(EventAnniversary)
	assert.False(t, ok)
	_, ok = u.EventDate("unsupported")
	assert.False(t, ok)
}
