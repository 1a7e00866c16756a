package record

// AbsenceKind distinguishes the attendance event families backends report.
type AbsenceKind string

const (
	KindAbsence     AbsenceKind = "absence"
	KindDelay       AbsenceKind = "delay"
	KindPunishment  AbsenceKind = "punishment"
	KindObservation AbsenceKind = "observation"
)

// AttendanceEvent is one canonical attendance record: an absence, a delay,
// a punishment or a teacher observation.
type AttendanceEvent struct {
	ID         string      `json:"id"`
	Kind       AbsenceKind `json:"kind"`
	PeriodName string      `json:"period_name"`

	// FromTimestamp and ToTimestamp bound the event in Unix milliseconds.
	// Delays and observations are instants: ToTimestamp equals
	// FromTimestamp.
	FromTimestamp int64 `json:"from_timestamp"`
	ToTimestamp   int64 `json:"to_timestamp"`

	// DurationMinutes is the reported length for absences and delays.
	DurationMinutes int `json:"duration_minutes,omitempty"`

	Reason    string `json:"reason,omitempty"`
	Justified bool   `json:"justified"`

	// SubjectName is set when the event is tied to one lesson.
	SubjectName string `json:"subject_name,omitempty"`
}
