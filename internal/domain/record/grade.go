// Package record defines the canonical, backend-agnostic representation of
// academic facts: grades, periods, attendance, timetable lessons, homework,
// skill evaluations, chats and canteen data. Every backend adapter normalizes
// its native shapes into these types; everything downstream (averages, caches,
// the UI) consumes only them.
package record

import (
	"time"
)

// GradeStatus is the non-numeric state a backend can attach to a grade slot
// instead of (or alongside) a numeric value.
type GradeStatus string

const (
	// StatusNone means the slot carries a plain numeric value.
	StatusNone GradeStatus = ""
	// StatusAbsent marks a student absent for the assessment ("Abs").
	StatusAbsent GradeStatus = "Abs"
	// StatusExempted marks a student exempted from the assessment ("Disp").
	StatusExempted GradeStatus = "Disp"
	// StatusUngraded marks an assessment that was not graded ("N.Not").
	StatusUngraded GradeStatus = "N.Not"
	// StatusUnreturned marks work that was not handed in ("N.Rendu").
	StatusUnreturned GradeStatus = "N.Rendu"
)

// GradeValue is one numeric slot of a grade (student mark, class average,
// min, max, or the out-of denominator).
//
// Valid is false when the backend sent no numeric value at all. Disabled
// means the value must never enter any arithmetic even when numerically
// present. The two are distinct on purpose: some backends legitimately pair
// a numeric value with a status (e.g. "absent, graded zero") and those values
// DO count.
type GradeValue struct {
	Value    float64     `json:"value"`
	Valid    bool        `json:"valid"`
	Disabled bool        `json:"disabled"`
	Status   GradeStatus `json:"status,omitempty"`
}

// Usable reports whether the slot may participate in average arithmetic.
func (v GradeValue) Usable() bool {
	return v.Valid && !v.Disabled && v.Value >= 0
}

// Num builds a plain numeric grade value.
func Num(value float64) GradeValue {
	return GradeValue{Value: value, Valid: true}
}

// Grade is one canonical grade record.
//
// Subject identity is SubjectID when the backend provides a stable one,
// SubjectName otherwise; at least one is non-empty.
type Grade struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
	Description string `json:"description,omitempty"`
	PeriodName  string `json:"period_name"`

	Student      GradeValue `json:"student"`
	ClassAverage GradeValue `json:"class_average"`
	Min          GradeValue `json:"min"`
	Max          GradeValue `json:"max"`
	OutOf        GradeValue `json:"out_of"`

	// Coefficient weights the grade inside its subject. Zero means the
	// grade never contributes to any average.
	Coefficient float64 `json:"coefficient"`

	// Bonus grades are counted as surplus credit above half of their
	// scale, outside the normal weighting.
	IsBonus bool `json:"is_bonus"`

	// Optional grades only count when keeping them does not lower the
	// subject average.
	IsOptional bool `json:"is_optional"`

	// Timestamp is the grade date in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// SubjectKey returns the grouping identity of the grade: the stable backend
// subject ID when present, the display name otherwise.
func (g Grade) SubjectKey() string {
	if g.SubjectID != "" {
		return g.SubjectID
	}
	return g.SubjectName
}

// Date returns the grade timestamp as a time.Time.
func (g Grade) Date() time.Time {
	return time.UnixMilli(g.Timestamp)
}

// SubjectAverage is the computed average of one subject.
type SubjectAverage struct {
	SubjectKey   string     `json:"subject_key"`
	SubjectName  string     `json:"subject_name"`
	Student      GradeValue `json:"student"`
	ClassAverage GradeValue `json:"class_average"`
	Min          GradeValue `json:"min"`
	Max          GradeValue `json:"max"`
	OutOf        GradeValue `json:"out_of"`
}

// AverageOverview is the derived view of a whole period: overall averages
// plus one entry per subject. It is recomputed from the cached grade list on
// every read and never persisted.
type AverageOverview struct {
	Overall      GradeValue       `json:"overall"`
	ClassOverall GradeValue       `json:"class_overall"`
	Subjects     []SubjectAverage `json:"subjects"`
}
