package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestHolidays2026(t *testing.T) {
	want := map[string]string{
		"2026-01-01": "New Year's Day",
		"2026-01-19": "MLK Day",
		"2026-02-16": "Presidents' Day",
		"2026-05-25": "Memorial Day",
		"2026-06-19": "Juneteenth",
		"2026-07-03": "Independence Day", // July 4 is a Saturday
		"2026-09-07": "Labor Day",
		"2026-10-12": "Columbus Day",
		"2026-11-11": "Veterans Day",
		"2026-11-26": "Thanksgiving",
		"2026-12-25": "Christmas",
	}

	got := Holidays(2026)
	require.Len(t, got, len(want))
	for _, h := range got {
		name, ok := want[h.Date.Format("2006-01-02")]
		require.True(t, ok, "unexpected holiday %s on %s", h.Name, h.Date.Format("2006-01-02"))
		assert.Equal(t, name, h.Name)
	}

	for d, name := range want {
		ok, gotName := IsHoliday(mustDate(t, d))
		assert.True(t, ok, d)
		assert.Equal(t, name, gotName)
	}
}

func TestObservedShifts(t *testing.T) {
	cases := []struct {
		date string
		name string
	}{
		{"2027-07-05", "Independence Day"}, // Sunday -> Monday
		{"2027-12-24", "Christmas"},        // Saturday -> Friday
		{"2027-12-31", "New Year's Day"},   // Jan 1 2028 is a Saturday
		{"2023-01-02", "New Year's Day"},   // Sunday -> Monday
	}
	for _, tc := range cases {
		ok, name := IsHoliday(mustDate(t, tc.date))
		assert.True(t, ok, tc.date)
		assert.Equal(t, tc.name, name, tc.date)
	}

	ok, _ := IsHoliday(mustDate(t, "2027-07-04"))
	assert.False(t, ok, "the actual Sunday is not the observed day")
}

func TestGateCheck(t *testing.T) {
	loc := eastern(t)
	gate := NewGate(time.Date(2026, 1, 6, 0, 0, 0, 0, loc), loc)

	at := func(s string) time.Time {
		d := mustDate(t, s)
		return time.Date(d.Year(), d.Month(), d.Day(), 8, 30, 0, 0, loc)
	}

	assert.Equal(t, Weekend, gate.Check(at("2026-01-10"), true))
	assert.Equal(t, Weekend, gate.Check(at("2026-01-11"), false))
	assert.Equal(t, Holiday, gate.Check(at("2026-01-01"), true))
	assert.Equal(t, BeforeGoLive, gate.Check(at("2026-01-05"), true))
	assert.Equal(t, Open, gate.Check(at("2026-01-05"), false))
	assert.Equal(t, Open, gate.Check(at("2026-01-06"), true))
	assert.Equal(t, Open, gate.Check(at("2026-03-10"), true))
	assert.True(t, gate.IsOutreachDay(at("2026-03-10")))
	assert.False(t, gate.IsOutreachDay(at("2026-11-26")))
}

func TestGateUsesLocalDate(t *testing.T) {
	loc := eastern(t)
	gate := NewGate(time.Time{}, loc)

	// 2026-03-14 02:00 UTC is still Friday the 13th in New York.
	now := time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, Open, gate.Check(now, true))
	assert.Equal(t, "2026-03-13", gate.Today(now).Format("2006-01-02"))

	utc := NewGate(time.Time{}, nil)
	assert.Equal(t, Weekend, utc.Check(now, true))
}

func TestDaysBetween(t *testing.T) {
	loc := eastern(t)
	a := time.Date(2026, 3, 2, 23, 30, 0, 0, loc)
	b := time.Date(2026, 3, 3, 0, 15, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(a, b, loc))
	assert.Equal(t, 0, DaysBetween(b, b.Add(2*time.Hour), loc))
	assert.Equal(t, 31, DaysBetween(mustDate(t, "2026-01-01"), mustDate(t, "2026-02-01"), time.UTC))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "before_go_live", BeforeGoLive.String())
	assert.Equal(t, "open", Open.String())
}
