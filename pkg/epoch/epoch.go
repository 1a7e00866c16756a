// Package epoch implements the epoch week number (EWN) calendar used as the
// universal key space for every week-scoped cache (timetable, homework).
// An EWN identifies a Monday–Sunday week as an integer counted from a fixed
// reference near the Unix epoch, so any two dates in the same week share a key.
// No external dependencies - uses only standard library.
package epoch

import (
	"time"
)

const (
	// week is the length of one EWN slot.
	week = 7 * 24 * time.Hour

	// adjust shifts the epoch onto a Monday boundary. 1970-01-01 was a
	// Thursday, so the Monday of the epoch week is 3 days earlier.
	// This constant is shared with persisted cache keys on every device;
	// changing it invalidates all of them.
	adjust = 3 * 24 * time.Hour

	// commonDayOffset places the representative instant of a week at
	// Wednesday 06:00 UTC (2 days past Monday, hour pinned so DST
	// transitions never move a date across a week boundary).
	commonDayOffset = 2*24*time.Hour + 6*time.Hour
)

// WeekCommonDay projects t onto the representative instant of its
// Monday-first week: Wednesday 06:00 UTC. Any two dates in the same
// Monday–Sunday week project onto the same instant.
//
// The calendar date is taken in t's own location; the result is built
// directly in UTC so the projection is timezone- and DST-stable.
func WeekCommonDay(t time.Time) time.Time {
	year, month, day := t.Date()
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Sunday
	}
	monday := time.Date(year, month, day-(wd-1), 0, 0, 0, 0, time.UTC)
	return monday.Add(commonDayOffset)
}

// ToWeekNumber maps a date to its epoch week number. The result is constant
// over any date within the same Monday–Sunday week.
func ToWeekNumber(t time.Time) int {
	shifted := WeekCommonDay(t).Add(adjust)
	ms := shifted.UnixMilli()
	weekMs := week.Milliseconds()
	// floor division, UnixMilli is negative for pre-1970 weeks
	q := ms / weekMs
	if ms%weekMs < 0 {
		q--
	}
	return int(q)
}

// WeekMonday returns Monday 00:00 UTC of the given epoch week.
func WeekMonday(ewn int) time.Time {
	return time.UnixMilli(int64(ewn)*week.Milliseconds() - adjust.Milliseconds()).UTC()
}

// WeekMiddleDate returns the representative middle instant of the given epoch
// week (Wednesday 06:00 UTC), the inverse of WeekCommonDay.
func WeekMiddleDate(ewn int) time.Time {
	return WeekMonday(ewn).Add(commonDayOffset)
}

// WeekDateRange returns the closed range covering every date that maps to
// ewn, extended by before/after whole weeks on each side.
func WeekDateRange(ewn, before, after int) (start, end time.Time) {
	start = WeekMonday(ewn - before)
	end = WeekMonday(ewn + after + 1).Add(-time.Millisecond)
	return start, end
}

// WeekDays returns the seven days of the given epoch week, Monday first,
// each at 00:00 UTC.
func WeekDays(ewn int) [7]time.Time {
	monday := WeekMonday(ewn)
	var days [7]time.Time
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// InWindow reports whether test falls within [EWN(ref)-before, EWN(ref)+after].
func InWindow(ref, test time.Time, before, after int) bool {
	refWN := ToWeekNumber(ref)
	testWN := ToWeekNumber(test)
	return testWN >= refWN-before && testWN <= refWN+after
}

// SchoolWeekNumber returns a 1..52 "week of the school year" indicator,
// anchored on September 1st of the date's calendar year. September 1st of
// any year is week 1.
func SchoolWeekNumber(t time.Time) int {
	septFirst := time.Date(t.Year(), time.September, 1, 12, 0, 0, 0, time.UTC)
	diff := ToWeekNumber(t) - ToWeekNumber(septFirst)
	return ((diff%52)+52)%52 + 1
}
