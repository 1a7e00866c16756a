package record

import (
	"time"
)

// Period is a grading period (trimester, semester, custom range).
// Names are unique per account; one period is designated default by the
// adapter that produced the list.
type Period struct {
	Name           string `json:"name"`
	StartTimestamp int64  `json:"start_timestamp"`
	EndTimestamp   int64  `json:"end_timestamp"`
}

// Start returns the period start as a time.Time.
func (p Period) Start() time.Time {
	return time.UnixMilli(p.StartTimestamp)
}

// End returns the period end as a time.Time.
func (p Period) End() time.Time {
	return time.UnixMilli(p.EndTimestamp)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	ms := t.UnixMilli()
	return ms >= p.StartTimestamp && ms <= p.EndTimestamp
}

// PeriodList couples the periods of an account with the name of the default
// one, as produced by the adapter.
type PeriodList struct {
	Periods     []Period `json:"periods"`
	DefaultName string   `json:"default_name"`
}

// Default returns the default period, falling back to the first one when the
// adapter's designated default is absent from the list.
func (l PeriodList) Default() (Period, bool) {
	for _, p := range l.Periods {
		if p.Name == l.DefaultName {
			return p, true
		}
	}
	if len(l.Periods) > 0 {
		return l.Periods[0], true
	}
	return Period{}, false
}

// FullYearPeriods is the synthetic single-period list used for accounts whose
// backend has no period notion. The school year runs September through
// August.
func FullYearPeriods() PeriodList {
	now := time.Now().UTC()
	year := now.Year()
	if now.Month() < time.September {
		year--
	}
	start := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.August, 31, 23, 59, 59, 0, time.UTC)
	return PeriodList{
		Periods: []Period{{
			Name:           "Année",
			StartTimestamp: start.UnixMilli(),
			EndTimestamp:   end.UnixMilli(),
		}},
		DefaultName: "Année",
	}
}

// ByName looks a period up by its unique name.
func (l PeriodList) ByName(name string) (Period, bool) {
	for _, p := range l.Periods {
		if p.Name == name {
			return p, true
		}
	}
	return Period{}, false
}
