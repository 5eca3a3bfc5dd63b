package calendar

import (
	"sort"
	"time"
)

// ObservedHoliday is an observed US federal holiday.
type ObservedHoliday struct {
	Name string
	Date time.Time
}

type fixedHoliday struct {
	Name  string
	Month time.Month
	Day   int
}

var fixedHolidays = []fixedHoliday{
	{"New Year's Day", time.January, 1},
	{"Juneteenth", time.June, 19},
	{"Independence Day", time.July, 4},
	{"Veterans Day", time.November, 11},
	{"Christmas", time.December, 25},
}

type floatingHoliday struct {
	Name    string
	Month   time.Month
	Weekday time.Weekday
	N       int // 0 = last occurrence
}

var floatingHolidays = []floatingHoliday{
	{"MLK Day", time.January, time.Monday, 3},
	{"Presidents' Day", time.February, time.Monday, 3},
	{"Memorial Day", time.May, time.Monday, 0},
	{"Labor Day", time.September, time.Monday, 1},
	{"Columbus Day", time.October, time.Monday, 2},
	{"Thanksgiving", time.November, time.Thursday, 4},
}

// Holidays returns the observed federal holidays falling in a year, sorted by
// date. Fixed-date holidays landing on a Saturday are observed the Friday
// before, on a Sunday the Monday after. New Year's Day of the following year
// can be observed on December 31 and is then included in this year's list.
func Holidays(year int) []ObservedHoliday {
	out := make([]ObservedHoliday, 0, len(fixedHolidays)+len(floatingHolidays)+1)
	for _, h := range fixedHolidays {
		out = append(out, ObservedHoliday{Name: h.Name, Date: observed(date(year, h.Month, h.Day))})
	}
	for _, h := range floatingHolidays {
		var d time.Time
		if h.N == 0 {
			d = lastWeekdayInMonth(year, h.Month, h.Weekday)
		} else {
			d = nthWeekdayInMonth(year, h.Month, h.Weekday, h.N)
		}
		out = append(out, ObservedHoliday{Name: h.Name, Date: d})
	}

	// Jan 1 of next year on a Saturday is observed on Dec 31 of this year;
	// the same rule moves this year's Jan 1 out of the list.
	kept := out[:0]
	for _, h := range out {
		if h.Date.Year() == year {
			kept = append(kept, h)
		}
	}
	out = kept
	if next := observed(date(year+1, time.January, 1)); next.Year() == year {
		out = append(out, ObservedHoliday{Name: "New Year's Day", Date: next})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// IsHoliday reports whether the calendar date of t is an observed federal
// holiday, and its name.
func IsHoliday(t time.Time) (bool, string) {
	day := date(t.Year(), t.Month(), t.Day())
	for _, h := range Holidays(t.Year()) {
		if h.Date.Equal(day) {
			return true, h.Name
		}
	}
	return false, ""
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekdayInMonth(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekdayInMonth(year int, month time.Month, weekday time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
