// Package skolengo implements the Skolengo backend adapter. The gateway
// speaks JSON:API: every record is a typed resource with an attributes
// object, unwrapped here before mapping to canonical records.
package skolengo

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/epoch"
	"github.com/papillon-hub/papillon-core/pkg/logger"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

// ══════════════════════════════════════════════════════════════════════════════
// NATIVE SHAPES
// ══════════════════════════════════════════════════════════════════════════════

// resourceDTO is one JSON:API resource.
type resourceDTO[T any] struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes T      `json:"attributes"`
}

type documentDTO[T any] struct {
	Data []resourceDTO[T] `json:"data"`
}

type periodAttrsDTO struct {
	Label     string    `json:"label"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Current   bool      `json:"current"`
}

type gradeAttrsDTO struct {
	SubjectCode  string    `json:"subjectCode"`
	SubjectLabel string    `json:"subjectLabel"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	Mark         *float64  `json:"mark"`
	Scale        float64   `json:"scale"`
	Average      *float64  `json:"average"`
	Coefficient  float64   `json:"coefficient"`
	NonEvaluated bool      `json:"nonEvaluated"`
}

type absenceAttrsDTO struct {
	Reason        string    `json:"reason"`
	Justified     bool      `json:"justified"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Type          string    `json:"type"`
}

type lessonAttrsDTO struct {
	SubjectCode   string    `json:"subjectCode"`
	SubjectLabel  string    `json:"subjectLabel"`
	TeacherName   string    `json:"teacherName"`
	Location      string    `json:"location"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Canceled      bool      `json:"canceled"`
}

type tokenDTO struct {
	AccessToken string `json:"access_token"`
	SchoolName  string `json:"school_name"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// Session is the live Skolengo session handle.
type Session struct {
	AccessToken string
}

// Adapter is the Skolengo backend adapter. It serves grades, attendance and
// timetable.
type Adapter struct {
	client *transport.Client
	box    *sealbox.Box
	log    *logger.Logger
}

// New creates the Skolengo adapter.
func New(client *transport.Client, box *sealbox.Box, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Default()
	}
	return &Adapter{
		client: client,
		box:    box,
		log:    log.With(logger.Service(string(account.ServiceSkolengo))),
	}
}

func (a *Adapter) session(acct *account.Account) (*Session, error) {
	sess, ok := acct.Session.(*Session)
	if !ok || sess == nil || sess.AccessToken == "" {
		return nil, shared.ErrUnauthenticated
	}
	return sess, nil
}

func (a *Adapter) authed(sess *Session) map[string]string {
	return map[string]string{"Authorization": "Bearer " + sess.AccessToken}
}

// Login exchanges the stored credentials for an access token.
func (a *Adapter) Login(ctx context.Context, acct *account.Account) error {
	password, err := a.box.Open(acct.Credentials.Secret)
	if err != nil {
		return shared.WrapError("skolengo", "Login", shared.ErrValidation, "unseal credentials", err)
	}

	var token tokenDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/oauth/token",
		Body: map[string]string{
			"grant_type": "password",
			"username":   acct.Credentials.Username,
			"password":   string(password),
		},
	}, &token)
	if err != nil {
		return fmt.Errorf("skolengo login: %w", err)
	}

	acct.Session = &Session{AccessToken: token.AccessToken}
	if acct.SchoolName == "" {
		acct.SchoolName = token.SchoolName
	}
	a.log.Info("session established", logger.AccountID(acct.ID.String()))
	return nil
}

// Periods lists the evaluation periods.
func (a *Adapter) Periods(ctx context.Context, acct *account.Account) (record.PeriodList, error) {
	sess, err := a.session(acct)
	if err != nil {
		return record.PeriodList{}, err
	}

	var doc documentDTO[periodAttrsDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/v1/evaluations-settings",
		Headers: a.authed(sess),
	}, &doc)
	if err != nil {
		return record.PeriodList{}, fmt.Errorf("skolengo periods: %w", err)
	}

	list := record.PeriodList{Periods: make([]record.Period, 0, len(doc.Data))}
	for _, res := range doc.Data {
		list.Periods = append(list.Periods, record.Period{
			Name:           res.Attributes.Label,
			StartTimestamp: res.Attributes.StartDate.UnixMilli(),
			EndTimestamp:   res.Attributes.EndDate.UnixMilli(),
		})
		if res.Attributes.Current {
			list.DefaultName = res.Attributes.Label
		}
	}
	if list.DefaultName == "" && len(list.Periods) > 0 {
		list.DefaultName = list.Periods[0].Name
	}
	return list, nil
}

// Grades fetches the canonical grades of one period.
func (a *Adapter) Grades(ctx context.Context, acct *account.Account, periodName string) ([]record.Grade, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var doc documentDTO[gradeAttrsDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/v1/evaluations",
		Query:   map[string]string{"filter[period.label]": periodName},
		Headers: a.authed(sess),
	}, &doc)
	if err != nil {
		return nil, fmt.Errorf("skolengo grades: %w", err)
	}

	grades := make([]record.Grade, 0, len(doc.Data))
	for _, res := range doc.Data {
		attrs := res.Attributes
		coef := attrs.Coefficient
		if coef == 0 {
			coef = 1
		}
		student := record.GradeValue{Disabled: attrs.NonEvaluated}
		if attrs.Mark != nil {
			student.Value = *attrs.Mark
			student.Valid = true
		}
		average := record.GradeValue{}
		if attrs.Average != nil {
			average.Value = *attrs.Average
			average.Valid = true
		}
		outOf := record.GradeValue{}
		if attrs.Scale > 0 {
			outOf.Value = attrs.Scale
			outOf.Valid = true
		}
		grades = append(grades, record.Grade{
			ID:           res.ID,
			SubjectID:    attrs.SubjectCode,
			SubjectName:  attrs.SubjectLabel,
			Description:  attrs.Title,
			PeriodName:   periodName,
			Student:      student,
			ClassAverage: average,
			OutOf:        outOf,
			Coefficient:  coef,
			Timestamp:    attrs.Date.UnixMilli(),
		})
	}
	return grades, nil
}

// Attendance fetches the attendance files of one period. Skolengo does not
// scope the endpoint by period, so events outside the requested period are
// kept; the caller's period key still owns the cache slot.
func (a *Adapter) Attendance(ctx context.Context, acct *account.Account, periodName string) ([]record.AttendanceEvent, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var doc documentDTO[absenceAttrsDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/v1/absence-files",
		Headers: a.authed(sess),
	}, &doc)
	if err != nil {
		return nil, fmt.Errorf("skolengo attendance: %w", err)
	}

	events := make([]record.AttendanceEvent, 0, len(doc.Data))
	for _, res := range doc.Data {
		attrs := res.Attributes
		kind := record.KindAbsence
		if attrs.Type == "LATENESS" {
			kind = record.KindDelay
		}
		minutes := int(attrs.EndDateTime.Sub(attrs.StartDateTime).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		events = append(events, record.AttendanceEvent{
			ID:              res.ID,
			Kind:            kind,
			PeriodName:      periodName,
			FromTimestamp:   attrs.StartDateTime.UnixMilli(),
			ToTimestamp:     attrs.EndDateTime.UnixMilli(),
			DurationMinutes: minutes,
			Justified:       attrs.Justified,
			Reason:          attrs.Reason,
		})
	}
	return events, nil
}

// Timetable fetches the lessons of one epoch week.
func (a *Adapter) Timetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	start, end := epoch.WeekDateRange(week, 0, 0)
	var doc documentDTO[lessonAttrsDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/v1/agendas",
		Query: map[string]string{
			"filter[date][GE]": start.Format("2006-01-02"),
			"filter[date][LE]": end.Format("2006-01-02"),
		},
		Headers: a.authed(sess),
	}, &doc)
	if err != nil {
		return nil, fmt.Errorf("skolengo timetable: %w", err)
	}

	lessons := make([]record.Lesson, 0, len(doc.Data))
	for _, res := range doc.Data {
		attrs := res.Attributes
		status := record.LessonRegular
		if attrs.Canceled {
			status = record.LessonCancelled
		}
		lessons = append(lessons, record.Lesson{
			ID:             res.ID,
			SubjectID:      attrs.SubjectCode,
			SubjectName:    attrs.SubjectLabel,
			Teacher:        attrs.TeacherName,
			Room:           attrs.Location,
			Status:         status,
			StartTimestamp: attrs.StartDateTime.UnixMilli(),
			EndTimestamp:   attrs.EndDateTime.UnixMilli(),
		})
	}
	return lessons, nil
}
