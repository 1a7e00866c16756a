package pronote

import (
	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - native shapes to canonical records
// ══════════════════════════════════════════════════════════════════════════════

// Mapper translates Pronote native shapes into canonical records, protecting
// the domain from gateway changes.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// valueFromSlot maps a polymorphic slot into a GradeValue.
//
// The zero-graded kinds (AbsentZero, UnreturnedZero) keep their numeric
// value and DO count in averages; the plain marker kinds disable the slot.
func (m *Mapper) valueFromSlot(dto slotDTO) record.GradeValue {
	v := record.GradeValue{}
	if dto.Value != nil {
		v.Value = *dto.Value
		v.Valid = true
	}

	switch dto.Kind {
	case "", kindGrade:
		// plain numeric slot
	case kindAbsent:
		v.Status = record.StatusAbsent
		v.Disabled = true
	case kindExempted:
		v.Status = record.StatusExempted
		v.Disabled = true
	case kindNotGraded:
		v.Status = record.StatusUngraded
		v.Disabled = true
	case kindUnreturned:
		v.Status = record.StatusUnreturned
		v.Disabled = true
	case kindAbsentZero:
		v.Status = record.StatusAbsent
		v.Value = 0
		v.Valid = true
	case kindUnreturnedZero:
		v.Status = record.StatusUnreturned
		v.Value = 0
		v.Valid = true
	default:
		v.Disabled = true
	}
	return v
}

// PeriodsFromDTO maps the period list, designating the default period.
func (m *Mapper) PeriodsFromDTO(dtos []periodDTO) record.PeriodList {
	list := record.PeriodList{Periods: make([]record.Period, 0, len(dtos))}
	for _, dto := range dtos {
		list.Periods = append(list.Periods, record.Period{
			Name:           dto.Name,
			StartTimestamp: dto.StartsAt.UnixMilli(),
			EndTimestamp:   dto.EndsAt.UnixMilli(),
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

// GradesFromDTO maps a period's grades.
func (m *Mapper) GradesFromDTO(dtos []gradeDTO, periodName string) []record.Grade {
	grades := make([]record.Grade, 0, len(dtos))
	for _, dto := range dtos {
		grades = append(grades, record.Grade{
			ID:           dto.ID,
			SubjectID:    dto.Subject.ID,
			SubjectName:  dto.Subject.Name,
			Description:  dto.Comment,
			PeriodName:   periodName,
			Student:      m.valueFromSlot(dto.Value),
			ClassAverage: m.valueFromSlot(dto.Average),
			Min:          m.valueFromSlot(dto.Min),
			Max:          m.valueFromSlot(dto.Max),
			OutOf:        m.valueFromSlot(dto.OutOf),
			Coefficient:  dto.Coefficient,
			IsBonus:      dto.IsBonus,
			IsOptional:   dto.IsOptional,
			Timestamp:    dto.Date.UnixMilli(),
		})
	}
	return grades
}

// AttendanceFromDTO flattens the three Pronote attendance families into one
// canonical event list.
func (m *Mapper) AttendanceFromDTO(dto attendanceDTO, periodName string) []record.AttendanceEvent {
	events := make([]record.AttendanceEvent, 0, len(dto.Absences)+len(dto.Delays)+len(dto.Punishments))

	for _, a := range dto.Absences {
		events = append(events, record.AttendanceEvent{
			ID:              a.ID,
			Kind:            record.KindAbsence,
			PeriodName:      periodName,
			FromTimestamp:   a.From.UnixMilli(),
			ToTimestamp:     a.To.UnixMilli(),
			DurationMinutes: a.Minutes,
			Justified:       a.Justified,
			Reason:          a.Reason,
		})
	}
	for _, d := range dto.Delays {
		events = append(events, record.AttendanceEvent{
			ID:              d.ID,
			Kind:            record.KindDelay,
			PeriodName:      periodName,
			FromTimestamp:   d.Date.UnixMilli(),
			ToTimestamp:     d.Date.UnixMilli(),
			DurationMinutes: d.Minutes,
			Justified:       d.Justified,
			Reason:          d.Reason,
		})
	}
	for _, p := range dto.Punishments {
		events = append(events, record.AttendanceEvent{
			ID:            p.ID,
			Kind:          record.KindPunishment,
			PeriodName:    periodName,
			FromTimestamp: p.Date.UnixMilli(),
			ToTimestamp:   p.Date.UnixMilli(),
			Reason:        p.Reason,
			SubjectName:   p.Subject,
		})
	}
	return events
}

// LessonsFromDTO maps one week of timetable.
func (m *Mapper) LessonsFromDTO(dtos []lessonDTO) []record.Lesson {
	lessons := make([]record.Lesson, 0, len(dtos))
	for _, dto := range dtos {
		status := record.LessonRegular
		switch {
		case dto.Cancelled:
			status = record.LessonCancelled
		case dto.Exam:
			status = record.LessonExam
		case dto.Status != "":
			status = record.LessonModified
		}
		lessons = append(lessons, record.Lesson{
			ID:             dto.ID,
			SubjectID:      dto.Subject.ID,
			SubjectName:    dto.Subject.Name,
			Teacher:        dto.Teacher,
			Room:           dto.Room,
			Status:         status,
			StatusText:     dto.Status,
			StartTimestamp: dto.StartsAt.UnixMilli(),
			EndTimestamp:   dto.EndsAt.UnixMilli(),
		})
	}
	return lessons
}

// HomeworkFromDTO maps one week of homework.
func (m *Mapper) HomeworkFromDTO(dtos []homeworkDTO) []record.Homework {
	homework := make([]record.Homework, 0, len(dtos))
	for _, dto := range dtos {
		homework = append(homework, record.Homework{
			ID:           dto.ID,
			SubjectID:    dto.Subject.ID,
			SubjectName:  dto.Subject.Name,
			Content:      dto.Description,
			Done:         dto.Done,
			DueTimestamp: dto.Due.UnixMilli(),
			ReturnOnline: dto.Online,
		})
	}
	return homework
}

// skillLevels indexes Pronote's 1..5 mastery scale onto the canonical one.
var skillLevels = [...]record.SkillLevel{
	record.SkillAbsent,
	record.SkillNotReached,
	record.SkillFragile,
	record.SkillSufficient,
	record.SkillGood,
	record.SkillExcellent,
}

// EvaluationsFromDTO maps a period's competence evaluations.
func (m *Mapper) EvaluationsFromDTO(dtos []evaluationDTO, periodName string) []record.Evaluation {
	evals := make([]record.Evaluation, 0, len(dtos))
	for _, dto := range dtos {
		skills := make([]record.Skill, 0, len(dto.Skills))
		for _, s := range dto.Skills {
			level := record.SkillAbsent
			if s.Level >= 0 && s.Level < len(skillLevels) {
				level = skillLevels[s.Level]
			}
			skills = append(skills, record.Skill{
				Domain: s.Domain,
				Name:   s.Name,
				Level:  level,
			})
		}
		evals = append(evals, record.Evaluation{
			ID:          dto.ID,
			SubjectID:   dto.Subject.ID,
			SubjectName: dto.Subject.Name,
			Name:        dto.Name,
			Description: dto.Description,
			PeriodName:  periodName,
			Coefficient: dto.Coefficient,
			Timestamp:   dto.Date.UnixMilli(),
			Skills:      skills,
		})
	}
	return evals
}

// ChatsFromDTO maps the discussion list.
func (m *Mapper) ChatsFromDTO(dtos []discussionDTO) []record.ChatThread {
	threads := make([]record.ChatThread, 0, len(dtos))
	for _, dto := range dtos {
		threads = append(threads, record.ChatThread{
			ID:           dto.ID,
			Subject:      dto.Subject,
			Recipient:    dto.Recipient,
			Creator:      dto.Creator,
			Unread:       dto.Unread,
			LastActiveAt: dto.LastActive.UnixMilli(),
		})
	}
	return threads
}

// MessagesFromDTO maps the messages of one thread.
func (m *Mapper) MessagesFromDTO(dtos []messageDTO, threadID string) []record.ChatMessage {
	messages := make([]record.ChatMessage, 0, len(dtos))
	for _, dto := range dtos {
		messages = append(messages, record.ChatMessage{
			ID:        dto.ID,
			ThreadID:  threadID,
			Author:    dto.Author,
			Content:   dto.Content,
			Timestamp: dto.Date.UnixMilli(),
			FromMe:    dto.FromMe,
		})
	}
	return messages
}
