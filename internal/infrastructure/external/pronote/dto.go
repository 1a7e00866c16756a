// Package pronote implements the Pronote backend adapter. It talks to a
// Pronote instance through its mobile API gateway and normalizes the native
// shapes into canonical records.
package pronote

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// NATIVE SHAPES
// Pronote slots are polymorphic: a numeric value, or a kind marker such as
// "Absent" or "Dispense". Kind strings follow the mobile gateway wording.
// ══════════════════════════════════════════════════════════════════════════════

// slotDTO is one polymorphic grade slot.
type slotDTO struct {
	Value *float64 `json:"value"`
	Kind  string   `json:"kind,omitempty"`
}

// Pronote slot kinds.
const (
	kindGrade          = "Grade"
	kindAbsent         = "Absent"
	kindExempted       = "Exempted"
	kindNotGraded      = "NotGraded"
	kindUnreturned     = "Unreturned"
	kindAbsentZero     = "AbsentZero"
	kindUnreturnedZero = "UnreturnedZero"
)

type subjectDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type periodDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	IsDefault bool      `json:"is_default"`
}

type gradeDTO struct {
	ID          string     `json:"id"`
	Subject     subjectDTO `json:"subject"`
	Comment     string     `json:"comment,omitempty"`
	Date        time.Time  `json:"date"`
	Value       slotDTO    `json:"value"`
	OutOf       slotDTO    `json:"out_of"`
	Average     slotDTO    `json:"average"`
	Min         slotDTO    `json:"min"`
	Max         slotDTO    `json:"max"`
	Coefficient float64    `json:"coefficient"`
	IsBonus     bool       `json:"is_bonus"`
	IsOptional  bool       `json:"is_optional"`
}

type absenceDTO struct {
	ID        string    `json:"id"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Minutes   int       `json:"minutes"`
	Justified bool      `json:"justified"`
	Reason    string    `json:"reason,omitempty"`
}

type delayDTO struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Minutes   int       `json:"minutes"`
	Justified bool      `json:"justified"`
	Reason    string    `json:"reason,omitempty"`
}

type punishmentDTO struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Nature  string    `json:"nature"`
	Reason  string    `json:"reason,omitempty"`
	Subject string    `json:"subject,omitempty"`
}

type attendanceDTO struct {
	Absences    []absenceDTO    `json:"absences"`
	Delays      []delayDTO      `json:"delays"`
	Punishments []punishmentDTO `json:"punishments"`
}

type lessonDTO struct {
	ID        string     `json:"id"`
	Subject   subjectDTO `json:"subject"`
	Teacher   string     `json:"teacher,omitempty"`
	Room      string     `json:"room,omitempty"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    time.Time  `json:"ends_at"`
	Cancelled bool       `json:"is_cancelled"`
	Exam      bool       `json:"is_exam"`
	Status    string     `json:"status,omitempty"`
}

type homeworkDTO struct {
	ID          string     `json:"id"`
	Subject     subjectDTO `json:"subject"`
	Description string     `json:"description"`
	Due         time.Time  `json:"due"`
	Done        bool       `json:"done"`
	Online      bool       `json:"return_online"`
}

type skillDTO struct {
	Domain string `json:"domain,omitempty"`
	Name   string `json:"name"`
	// Level is Pronote's 1..5 mastery index, 0 for absent.
	Level int `json:"level"`
}

type evaluationDTO struct {
	ID          string     `json:"id"`
	Subject     subjectDTO `json:"subject"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Date        time.Time  `json:"date"`
	Coefficient float64    `json:"coefficient"`
	Skills      []skillDTO `json:"skills"`
}

type discussionDTO struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Recipient  string    `json:"recipient,omitempty"`
	Creator    string    `json:"creator,omitempty"`
	Unread     int       `json:"unread"`
	LastActive time.Time `json:"last_active"`
}

type messageDTO struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
	FromMe  bool      `json:"from_me"`
}

// instanceDTO carries the instance parameters returned at login.
type instanceDTO struct {
	Name string `json:"name"`
	// FirstMonday anchors the instance's own week numbering.
	FirstMonday time.Time `json:"first_monday"`
}

type loginResponseDTO struct {
	Token    string      `json:"token"`
	Instance instanceDTO `json:"instance"`
}
