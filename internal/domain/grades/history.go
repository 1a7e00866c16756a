package grades

import (
	"sort"
	"time"

	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

// Diff describes the impact of a set of grades on a subject average.
type Diff struct {
	With       float64 `json:"with"`
	Without    float64 `json:"without"`
	Difference float64 `json:"difference"`
}

// HistoryPoint is one point of an average-over-time series.
type HistoryPoint struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// AverageDiff computes the subject average of list with and without the
// grades matching removed, and their difference. Matching is on (student
// value, coefficient) pairs. Any internal failure yields the all-zero Diff;
// this call never propagates an error.
func (e *Engine) AverageDiff(removed, list []record.Grade, target Target) (diff Diff) {
	defer func() {
		if recover() != nil {
			diff = Diff{}
		}
	}()

	with := e.SubjectAverage(list, target, false)

	kept := make([]record.Grade, 0, len(list))
	for _, g := range list {
		if !matchesAny(g, removed) {
			kept = append(kept, g)
		}
	}
	withoutAvg := e.SubjectAverage(kept, target, false)

	return Diff{
		With:       with,
		Without:    withoutAvg,
		Difference: withoutAvg - with,
	}
}

func matchesAny(g record.Grade, set []record.Grade) bool {
	for _, r := range set {
		if g.Student.Value == r.Student.Value && g.Coefficient == r.Coefficient {
			return true
		}
	}
	return false
}

// AveragesHistory builds the running overall-average series of a grade list:
// grades are accumulated in input order and one point is emitted per
// distinct calendar date encountered (the last accumulation of that date
// wins). Points are returned sorted by date ascending, with a final point
// timestamped now, valued either final (when non-nil) or a fresh overall
// average of the whole list.
func (e *Engine) AveragesHistory(grades []record.Grade, target Target, final *float64, useMath bool) []HistoryPoint {
	byDate := make(map[string]HistoryPoint)
	running := make([]record.Grade, 0, len(grades))

	for _, g := range grades {
		running = append(running, g)
		day := g.Date().UTC()
		key := day.Format("2006-01-02")
		byDate[key] = HistoryPoint{
			Value: e.OverallAverage(running, target, useMath),
			Date:  day,
		}
	}

	points := make([]HistoryPoint, 0, len(byDate)+1)
	for _, p := range byDate {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	last := HistoryPoint{Date: time.Now().UTC()}
	if final != nil {
		last.Value = *final
	} else {
		last.Value = e.OverallAverage(grades, target, useMath)
	}
	return append(points, last)
}
