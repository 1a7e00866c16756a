package ecoledirecte

import (
	"strconv"
	"strings"
	"time"

	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - EcoleDirecte shapes to canonical records
// ══════════════════════════════════════════════════════════════════════════════

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// Mapper normalizes EcoleDirecte payloads into canonical records.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// parseDecimal parses an EcoleDirecte comma-decimal string. ok is false for
// empty or non-numeric input.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(s, layout string) int64 {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

func (m *Mapper) valueFromString(s string, disabled bool) record.GradeValue {
	v := record.GradeValue{Disabled: disabled}
	if parsed, ok := parseDecimal(s); ok {
		v.Value = parsed
		v.Valid = true
	}
	return v
}

// PeriodsFromDTO maps the period list bundled with the grades payload.
func (m *Mapper) PeriodsFromDTO(dtos []periodDTO) record.PeriodList {
	list := record.PeriodList{Periods: make([]record.Period, 0, len(dtos))}
	for _, dto := range dtos {
		list.Periods = append(list.Periods, record.Period{
			Name:           dto.Name,
			StartTimestamp: parseDate(dto.StartDate, dateLayout),
			EndTimestamp:   parseDate(dto.EndDate, dateLayout),
		})
		if dto.IsDefault {
			list.DefaultName = dto.Name
		}
	}
	if list.DefaultName == "" && len(list.Periods) > 0 {
		list.DefaultName = list.Periods[0].Name
	}
	return list
}

// GradesFromDTO maps the grades of one period. The payload carries every
// period's grades at once, so rows outside the requested period code are
// filtered out here.
func (m *Mapper) GradesFromDTO(data gradesDataDTO, periodCode, periodName string) []record.Grade {
	grades := make([]record.Grade, 0, len(data.Grades))
	for _, dto := range data.Grades {
		if periodCode != "" && dto.PeriodCode != periodCode {
			continue
		}
		coef, ok := parseDecimal(dto.Coefficient)
		if !ok || coef == 0 {
			coef = 1
		}
		grades = append(grades, record.Grade{
			ID:           strconv.FormatInt(dto.ID, 10),
			SubjectID:    dto.SubjectCode,
			SubjectName:  dto.SubjectName,
			Description:  dto.Comment,
			PeriodName:   periodName,
			Student:      m.valueFromString(dto.Value, dto.NotSignificant),
			ClassAverage: m.valueFromString(dto.Average, false),
			Min:          m.valueFromString(dto.Min, false),
			Max:          m.valueFromString(dto.Max, false),
			OutOf:        m.valueFromString(dto.OutOf, false),
			Coefficient:  coef,
			IsOptional:   dto.IsOptional,
			Timestamp:    parseDate(dto.Date, dateLayout),
		})
	}
	return grades
}

// kindFromElement maps EcoleDirecte's typeElement labels.
func kindFromElement(kind string) record.AbsenceKind {
	switch strings.ToLower(kind) {
	case "retard":
		return record.KindDelay
	case "punition", "sanction":
		return record.KindPunishment
	case "encouragement", "observation":
		return record.KindObservation
	default:
		return record.KindAbsence
	}
}

// AttendanceFromDTO flattens absences, delays and sanctions into the
// canonical event list.
func (m *Mapper) AttendanceFromDTO(data attendanceDataDTO, periodName string) []record.AttendanceEvent {
	rows := make([]absenceDTO, 0, len(data.Absences)+len(data.Sanction))
	rows = append(rows, data.Absences...)
	rows = append(rows, data.Sanction...)

	events := make([]record.AttendanceEvent, 0, len(rows))
	for _, dto := range rows {
		at := parseDate(dto.Date, dateTimeLayout)
		if at == 0 {
			at = parseDate(dto.Date, dateLayout)
		}
		events = append(events, record.AttendanceEvent{
			ID:              strconv.FormatInt(dto.ID, 10),
			Kind:            kindFromElement(dto.Kind),
			PeriodName:      periodName,
			FromTimestamp:   at,
			ToTimestamp:     at,
			DurationMinutes: dto.MinutesAway,
			Justified:       dto.Justified,
			Reason:          dto.Reason,
			SubjectName:     dto.SubjectLabel,
		})
	}
	return events
}

// HomeworkFromDTO flattens the per-day homework map, stamping each item with
// its due date.
func (m *Mapper) HomeworkFromDTO(data homeworkDataDTO) []record.Homework {
	homework := make([]record.Homework, 0, len(data))
	for day, items := range data {
		due := parseDate(day, dateLayout)
		for _, dto := range items {
			homework = append(homework, record.Homework{
				ID:           strconv.FormatInt(dto.ID, 10),
				SubjectID:    dto.SubjectCode,
				SubjectName:  dto.SubjectName,
				Content:      dto.Content,
				Done:         dto.Done,
				DueTimestamp: due,
				ReturnOnline: dto.Online,
			})
		}
	}
	return homework
}

// LessonsFromDTO maps one week of timetable.
func (m *Mapper) LessonsFromDTO(dtos []lessonDTO) []record.Lesson {
	lessons := make([]record.Lesson, 0, len(dtos))
	for _, dto := range dtos {
		status := record.LessonRegular
		switch {
		case dto.IsCancelled:
			status = record.LessonCancelled
		case dto.IsModified:
			status = record.LessonModified
		}
		lessons = append(lessons, record.Lesson{
			ID:             strconv.FormatInt(dto.ID, 10),
			SubjectID:      dto.SubjectCode,
			SubjectName:    dto.SubjectName,
			Teacher:        dto.Teacher,
			Room:           dto.Room,
			Status:         status,
			StatusText:     dto.Text,
			StartTimestamp: parseDate(dto.StartDate, dateTimeLayout),
			EndTimestamp:   parseDate(dto.EndDate, dateTimeLayout),
		})
	}
	return lessons
}
