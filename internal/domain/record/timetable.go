package record

import (
	"time"
)

// LessonStatus carries backend-reported schedule changes.
type LessonStatus string

const (
	LessonRegular   LessonStatus = ""
	LessonCancelled LessonStatus = "cancelled"
	LessonModified  LessonStatus = "modified"
	LessonExam      LessonStatus = "exam"
)

// Lesson is one canonical timetable entry. Timetables are cached per epoch
// week number, so a lesson always belongs to exactly one week key.
type Lesson struct {
	ID          string       `json:"id"`
	SubjectID   string       `json:"subject_id,omitempty"`
	SubjectName string       `json:"subject_name"`
	Teacher     string       `json:"teacher,omitempty"`
	Room        string       `json:"room,omitempty"`
	Status      LessonStatus `json:"status,omitempty"`
	StatusText  string       `json:"status_text,omitempty"`

	StartTimestamp int64 `json:"start_timestamp"`
	EndTimestamp   int64 `json:"end_timestamp"`
}

// Start returns the lesson start as a time.Time.
func (l Lesson) Start() time.Time {
	return time.UnixMilli(l.StartTimestamp)
}

// End returns the lesson end as a time.Time.
func (l Lesson) End() time.Time {
	return time.UnixMilli(l.EndTimestamp)
}
