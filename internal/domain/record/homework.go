package record

import (
	"time"
)

// Homework is one canonical homework assignment, cached per epoch week
// number of its due date.
type Homework struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name"`
	Content     string `json:"content"`
	Done        bool   `json:"done"`

	// DueTimestamp is the due date in Unix milliseconds; it decides the
	// week key the assignment is cached under.
	DueTimestamp int64 `json:"due_timestamp"`

	// ReturnOnline is set when the work must be handed in through the
	// backend itself.
	ReturnOnline bool `json:"return_online,omitempty"`
}

// Due returns the due date as a time.Time.
func (h Homework) Due() time.Time {
	return time.UnixMilli(h.DueTimestamp)
}
