// Package uphf implements the UPHF backend adapter. The university portal
// only exposes the student timetable, so this is the smallest adapter:
// authentication plus one week-scoped fetch.
package uphf

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

type sessionDTO struct {
	SessionID string `json:"sessionId"`
}

type courseDTO struct {
	ID        string    `json:"id"`
	Module    string    `json:"module"`
	Type      string    `json:"type"`
	Teacher   string    `json:"teacher"`
	Room      string    `json:"room"`
	StartsAt  time.Time `json:"start"`
	EndsAt    time.Time `json:"end"`
	IsExam    bool      `json:"exam"`
	Cancelled bool      `json:"cancelled"`
}

// Session is the live UPHF portal session handle.
type Session struct {
	SessionID string
}

// Adapter is the UPHF backend adapter.
type Adapter struct {
	client *transport.Client
	box    *sealbox.Box
	log    *logger.Logger
}

// New creates the UPHF adapter.
func New(client *transport.Client, box *sealbox.Box, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Default()
	}
	return &Adapter{
		client: client,
		box:    box,
		log:    log.With(logger.Service(string(account.ServiceUPHF))),
	}
}

func (a *Adapter) session(acct *account.Account) (*Session, error) {
	sess, ok := acct.Session.(*Session)
	if !ok || sess == nil || sess.SessionID == "" {
		return nil, shared.ErrUnauthenticated
	}
	return sess, nil
}

// Login opens a portal session from the stored credentials.
func (a *Adapter) Login(ctx context.Context, acct *account.Account) error {
	password, err := a.box.Open(acct.Credentials.Secret)
	if err != nil {
		return shared.WrapError("uphf", "Login", shared.ErrValidation, "unseal credentials", err)
	}

	var resp sessionDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/session",
		Body: map[string]string{
			"username": acct.Credentials.Username,
			"password": string(password),
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("uphf login: %w", err)
	}

	acct.Session = &Session{SessionID: resp.SessionID}
	a.log.Info("session established", logger.AccountID(acct.ID.String()))
	return nil
}

// Timetable fetches the courses of one epoch week.
func (a *Adapter) Timetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	start, end := epoch.WeekDateRange(week, 0, 0)
	var courses []courseDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/edt/courses",
		Query: map[string]string{
			"from": start.Format("2006-01-02"),
			"to":   end.Format("2006-01-02"),
		},
		Headers: map[string]string{"X-Session-Id": sess.SessionID},
	}, &courses)
	if err != nil {
		return nil, fmt.Errorf("uphf timetable: %w", err)
	}

	lessons := make([]record.Lesson, 0, len(courses))
	for _, c := range courses {
		status := record.LessonRegular
		switch {
		case c.Cancelled:
			status = record.LessonCancelled
		case c.IsExam:
			status = record.LessonExam
		}
		name := c.Module
		if c.Type != "" {
			name = c.Module + " (" + c.Type + ")"
		}
		lessons = append(lessons, record.Lesson{
			ID:             c.ID,
			SubjectName:    name,
			Teacher:        c.Teacher,
			Room:           c.Room,
			Status:         status,
			StartTimestamp: c.StartsAt.UnixMilli(),
			EndTimestamp:   c.EndsAt.UnixMilli(),
		})
	}
	return lessons, nil
}
