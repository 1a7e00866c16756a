// Package grades implements the average computation engine: subject and
// overall weighted averages, with/without diffs and historical series over
// canonical grade records.
//
// Every result is either the sentinel NoAverage (-1, "not computable") or a
// value on the 0..20 display scale (raw weighted mean in math mode). The
// engine never returns an error for degenerate input; absence of data is a
// value, not a failure.
package grades

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

// NoAverage is the explicit "not computable" sentinel, distinct from 0.
const NoAverage float64 = -1

// Target selects which numeric slot of each grade an average is computed
// over.
type Target string

const (
	TargetStudent      Target = "student"
	TargetClassAverage Target = "class_average"
	TargetMin          Target = "min"
	TargetMax          Target = "max"
)

// slot extracts the targeted GradeValue from a grade.
func slot(g record.Grade, target Target) record.GradeValue {
	switch target {
	case TargetClassAverage:
		return g.ClassAverage
	case TargetMin:
		return g.Min
	case TargetMax:
		return g.Max
	default:
		return g.Student
	}
}

// DefaultMemoSize bounds the engine's memoization cache. One entry per
// distinct (grade list content, target, mode) tuple; a few hundred covers
// every period of every account of a running app.
const DefaultMemoSize = 512

// Engine computes averages over canonical grade lists.
//
// The memoization cache is owned by the instance and bounded; keys are
// derived from grade list content, so mutating a list can never serve a
// stale entry.
type Engine struct {
	memo *lru.Cache[memoKey, float64]
}

// NewEngine creates an engine with a bounded memoization cache.
// size <= 0 falls back to DefaultMemoSize.
func NewEngine(size int) *Engine {
	if size <= 0 {
		size = DefaultMemoSize
	}
	// lru.New only fails on a non-positive size
	cache, _ := lru.New[memoKey, float64](size)
	return &Engine{memo: cache}
}

// SubjectAverage computes the weighted average of one subject's grades for
// the given target. useMath selects the raw weighted mean instead of the
// 20-point display scale. Returns NoAverage when no grade is computable.
//
// Optional grades are reconsidered one level deep: each one is kept only if
// keeping it does not lower the subject average compared to dropping it. The
// decision is made per grade against the full list, not jointly optimized
// (see accumulate).
func (e *Engine) SubjectAverage(grades []record.Grade, target Target, useMath bool) float64 {
	return e.average(grades, target, useMath, true)
}

// average runs one accumulation pass. reconsiderOptionals enables the
// with/without evaluation of optional grades; the nested evaluations run
// with it off, which bounds the recursion to a single level.
func (e *Engine) average(grades []record.Grade, target Target, useMath, reconsiderOptionals bool) float64 {
	key := buildMemoKey(grades, target, useMath, reconsiderOptionals)
	if v, ok := e.memo.Get(key); ok {
		return v
	}

	var num, den float64
	for i, g := range grades {
		tv := slot(g, target)
		if !tv.Usable() || g.Coefficient == 0 {
			continue
		}

		if g.IsOptional && reconsiderOptionals {
			avgWithout := e.average(without(grades, i), target, useMath, false)
			avgWith := e.average(grades, target, useMath, false)
			if avgWithout > avgWith {
				// dropping the grade gives a better average,
				// so it does not count
				continue
			}
		}

		value := tv.Value
		outOf := g.OutOf.Value

		switch {
		case g.IsBonus:
			// bonus grades credit their surplus over half-scale,
			// outside the normal weighting
			surplus := value - outOf/2
			if surplus >= 0 {
				num += surplus
				den++
			}

		case useMath:
			num += value * g.Coefficient
			den += g.Coefficient

		case value > 20 || (g.Coefficient < 1 && outOf-20 >= -5) || outOf > 20:
			// rescale to the 20-point basis
			num += value / outOf * 20 * g.Coefficient
			den += g.Coefficient

		default:
			num += value * g.Coefficient
			den += outOf / 20 * g.Coefficient
		}
	}

	result := NoAverage
	switch {
	case den == 0:
		// keep NoAverage
	case useMath:
		result = num / den
	default:
		result = math.Min(num/den, 20)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		result = NoAverage
	}

	e.memo.Add(key, result)
	return result
}

// OverallAverage groups grades by subject, averages each group and returns
// the unweighted mean of every computable subject average. Returns NoAverage
// when no subject is computable.
func (e *Engine) OverallAverage(grades []record.Grade, target Target, useMath bool) float64 {
	groups, order := groupBySubject(grades)

	var sum float64
	var count int
	for _, key := range order {
		avg := e.SubjectAverage(groups[key], target, useMath)
		if avg == NoAverage {
			continue
		}
		sum += avg
		count++
	}
	if count == 0 {
		return NoAverage
	}
	return sum / float64(count)
}

// Overview builds the derived per-period view: overall student and class
// averages plus one entry per subject. Recomputed on every call, never
// cached or persisted.
func (e *Engine) Overview(grades []record.Grade) record.AverageOverview {
	groups, order := groupBySubject(grades)

	overview := record.AverageOverview{
		Overall:      e.asValue(e.OverallAverage(grades, TargetStudent, false)),
		ClassOverall: e.asValue(e.OverallAverage(grades, TargetClassAverage, false)),
		Subjects:     make([]record.SubjectAverage, 0, len(order)),
	}

	for _, key := range order {
		group := groups[key]
		name := group[0].SubjectName
		overview.Subjects = append(overview.Subjects, record.SubjectAverage{
			SubjectKey:   key,
			SubjectName:  name,
			Student:      e.asValue(e.SubjectAverage(group, TargetStudent, false)),
			ClassAverage: e.asValue(e.SubjectAverage(group, TargetClassAverage, false)),
			Min:          e.asValue(e.SubjectAverage(group, TargetMin, false)),
			Max:          e.asValue(e.SubjectAverage(group, TargetMax, false)),
			OutOf:        record.Num(20),
		})
	}
	return overview
}

// asValue wraps an engine result as a GradeValue; NoAverage becomes an
// invalid (empty) slot.
func (e *Engine) asValue(avg float64) record.GradeValue {
	if avg == NoAverage {
		return record.GradeValue{}
	}
	return record.Num(avg)
}

// groupBySubject splits grades into per-subject groups, preserving first
// encounter order.
func groupBySubject(grades []record.Grade) (map[string][]record.Grade, []string) {
	groups := make(map[string][]record.Grade)
	var order []string
	for _, g := range grades {
		key := g.SubjectKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], g)
	}
	return groups, order
}

// without returns a copy of grades with index i removed.
func without(grades []record.Grade, i int) []record.Grade {
	out := make([]record.Grade, 0, len(grades)-1)
	out = append(out, grades[:i]...)
	out = append(out, grades[i+1:]...)
	return out
}
