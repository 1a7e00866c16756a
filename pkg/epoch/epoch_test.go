package epoch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekCommonDay_SameWeekSameInstant(t *testing.T) {
	// Monday through Sunday of the same week, various hours
	days := []time.Time{
		time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),   // Monday
		time.Date(2024, 9, 4, 15, 30, 0, 0, time.UTC), // Wednesday
		time.Date(2024, 9, 7, 8, 0, 0, 0, time.UTC),   // Saturday
		time.Date(2024, 9, 8, 23, 59, 59, 0, time.UTC), // Sunday
	}

	want := time.Date(2024, 9, 4, 6, 0, 0, 0, time.UTC)
	for _, d := range days {
		assert.Equal(t, want, WeekCommonDay(d), "date %s", d)
	}
}

func TestToWeekNumber_ConstantOverWeek(t *testing.T) {
	monday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	ref := ToWeekNumber(monday)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i).Add(13 * time.Hour)
		assert.Equal(t, ref, ToWeekNumber(d))
	}
	assert.Equal(t, ref+1, ToWeekNumber(monday.AddDate(0, 0, 7)))
	assert.Equal(t, ref-1, ToWeekNumber(monday.AddDate(0, 0, -1)))
}

func TestToWeekNumber_EpochWeekIsZero(t *testing.T) {
	assert.Equal(t, 0, ToWeekNumber(time.Unix(0, 0).UTC()))
	// the Monday before the epoch belongs to the same week
	assert.Equal(t, 0, ToWeekNumber(time.Date(1969, 12, 29, 0, 0, 0, 0, time.UTC)))
	// the week before
	assert.Equal(t, -1, ToWeekNumber(time.Date(1969, 12, 28, 0, 0, 0, 0, time.UTC)))
}

func TestToWeekNumber_DSTTransition(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// DST starts Sunday 2024-03-31 in Europe/Paris; the whole week must
	// share one key.
	before := time.Date(2024, 3, 25, 10, 0, 0, 0, paris) // Monday
	during := time.Date(2024, 3, 31, 3, 30, 0, 0, paris) // Sunday, after the jump
	assert.Equal(t, ToWeekNumber(before), ToWeekNumber(during))

	next := time.Date(2024, 4, 1, 0, 30, 0, 0, paris) // Monday of next week
	assert.Equal(t, ToWeekNumber(before)+1, ToWeekNumber(next))
}

func TestWeekDateRange_ContainsSourceDate(t *testing.T) {
	dates := []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 28, 23, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 6, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		ewn := ToWeekNumber(d)
		start, end := WeekDateRange(ewn, 0, 0)
		assert.False(t, d.Before(start), "start %s should not be after %s", start, d)
		assert.False(t, d.After(end), "end %s should not be before %s", end, d)
	}
}

func TestWeekDateRange_Extension(t *testing.T) {
	ewn := ToWeekNumber(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	start, end := WeekDateRange(ewn, 1, 2)
	assert.Equal(t, WeekMonday(ewn-1), start)
	assert.True(t, end.After(WeekMonday(ewn+2)))
	assert.True(t, end.Before(WeekMonday(ewn+3)))
}

func TestWeekMiddleDate_RoundTrip(t *testing.T) {
	for _, ewn := range []int{0, 1, 52, 2800, 2900, -3} {
		assert.Equal(t, ewn, ToWeekNumber(WeekMiddleDate(ewn)), "ewn %d", ewn)
	}
}

func TestWeekDays(t *testing.T) {
	ewn := ToWeekNumber(time.Date(2024, 9, 4, 0, 0, 0, 0, time.UTC))
	days := WeekDays(ewn)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Sunday, days[6].Weekday())
	for _, d := range days {
		assert.Equal(t, ewn, ToWeekNumber(d))
	}
}

func TestInWindow(t *testing.T) {
	ref := time.Date(2025, 5, 14, 9, 0, 0, 0, time.UTC)

	assert.True(t, InWindow(ref, ref, 0, 0))
	assert.True(t, InWindow(ref, ref.AddDate(0, 0, -7), 1, 0))
	assert.True(t, InWindow(ref, ref.AddDate(0, 0, 14), 0, 2))
	assert.False(t, InWindow(ref, ref.AddDate(0, 0, -7), 0, 0))
	assert.False(t, InWindow(ref, ref.AddDate(0, 0, 21), 0, 2))
}

func TestSchoolWeekNumber_SeptemberFirstIsOne(t *testing.T) {
	for year := 2019; year <= 2026; year++ {
		d := time.Date(year, 9, 1, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, 1, SchoolWeekNumber(d), "year %d", year)
	}
}

func TestSchoolWeekNumber_Range(t *testing.T) {
	d := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 80; i++ {
		n := SchoolWeekNumber(d.AddDate(0, 0, 7*i))
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 52)
	}
}
