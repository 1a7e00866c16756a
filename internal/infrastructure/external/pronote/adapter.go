package pronote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/epoch"
	"github.com/papillon-hub/papillon-core/pkg/logger"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

// Session is the live Pronote session handle attached to an account after
// login.
type Session struct {
	Token string

	// FirstMonday anchors the instance's own week numbering; zero when
	// the instance did not report one.
	FirstMonday time.Time
}

// Adapter is the Pronote backend adapter.
type Adapter struct {
	client *transport.Client
	mapper *Mapper
	box    *sealbox.Box
	log    *logger.Logger
}

// New creates the Pronote adapter. box opens sealed account credentials at
// login time.
func New(client *transport.Client, box *sealbox.Box, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Default()
	}
	return &Adapter{
		client: client,
		mapper: NewMapper(),
		box:    box,
		log:    log.With(logger.Service(string(account.ServicePronote))),
	}
}

// session extracts the live session or fails with the unauthenticated error.
func (a *Adapter) session(acct *account.Account) (*Session, error) {
	sess, ok := acct.Session.(*Session)
	if !ok || sess == nil || sess.Token == "" {
		return nil, shared.ErrUnauthenticated
	}
	return sess, nil
}

// Login opens the sealed credentials and establishes a session on the
// account.
func (a *Adapter) Login(ctx context.Context, acct *account.Account) error {
	password, err := a.box.Open(acct.Credentials.Secret)
	if err != nil {
		return shared.WrapError("pronote", "Login", shared.ErrValidation, "unseal credentials", err)
	}

	var resp loginResponseDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body: map[string]string{
			"username": acct.Credentials.Username,
			"password": string(password),
			"instance": acct.Credentials.InstanceURL,
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("pronote login: %w", err)
	}

	acct.Session = &Session{
		Token:       resp.Token,
		FirstMonday: resp.Instance.FirstMonday,
	}
	a.log.Info("session established", logger.AccountID(acct.ID.String()))
	return nil
}

func (a *Adapter) authed(sess *Session) map[string]string {
	return map[string]string{"Authorization": "Bearer " + sess.Token}
}

// Periods lists the grading periods of the account.
func (a *Adapter) Periods(ctx context.Context, acct *account.Account) (record.PeriodList, error) {
	sess, err := a.session(acct)
	if err != nil {
		return record.PeriodList{}, err
	}

	var dtos []periodDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/periods",
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return record.PeriodList{}, fmt.Errorf("pronote periods: %w", err)
	}
	return a.mapper.PeriodsFromDTO(dtos), nil
}

// Grades fetches the canonical grades of one period.
func (a *Adapter) Grades(ctx context.Context, acct *account.Account, periodName string) ([]record.Grade, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var dtos []gradeDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/grades",
		Query:   map[string]string{"period": periodName},
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return nil, fmt.Errorf("pronote grades: %w", err)
	}
	return a.mapper.GradesFromDTO(dtos, periodName), nil
}

// Attendance fetches the attendance events of one period.
func (a *Adapter) Attendance(ctx context.Context, acct *account.Account, periodName string) ([]record.AttendanceEvent, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var dto attendanceDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/attendance",
		Query:   map[string]string{"period": periodName},
		Headers: a.authed(sess),
	}, &dto)
	if err != nil {
		return nil, fmt.Errorf("pronote attendance: %w", err)
	}
	return a.mapper.AttendanceFromDTO(dto, periodName), nil
}

// Timetable fetches the lessons of one epoch week, translated to the
// instance's own week index.
func (a *Adapter) Timetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var dtos []lessonDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/timetable",
		Query:   map[string]string{"week": fmt.Sprint(InstanceWeekNumber(acct, week))},
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return nil, fmt.Errorf("pronote timetable: %w", err)
	}
	return a.mapper.LessonsFromDTO(dtos), nil
}

// Homework fetches the homework due during one epoch week.
func (a *Adapter) Homework(ctx context.Context, acct *account.Account, week int) ([]record.Homework, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	start, end := epoch.WeekDateRange(week, 0, 0)
	var dtos []homeworkDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/homework",
		Query: map[string]string{
			"from": start.Format("2006-01-02"),
			"to":   end.Format("2006-01-02"),
		},
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return nil, fmt.Errorf("pronote homework: %w", err)
	}
	return a.mapper.HomeworkFromDTO(dtos), nil
}

// Evaluations fetches the competence evaluations of one period.
func (a *Adapter) Evaluations(ctx context.Context, acct *account.Account, periodName string) ([]record.Evaluation, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var dtos []evaluationDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/evaluations",
		Query:   map[string]string{"period": periodName},
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return nil, fmt.Errorf("pronote evaluations: %w", err)
	}
	return a.mapper.EvaluationsFromDTO(dtos, periodName), nil
}

// Chats lists the discussion threads.
func (a *Adapter) Chats(ctx context.Context, acct *account.Account) ([]record.ChatThread, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var dtos []discussionDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/discussions",
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return nil, fmt.Errorf("pronote discussions: %w", err)
	}
	return a.mapper.ChatsFromDTO(dtos), nil
}

// ChatMessages fetches the messages of one thread.
func (a *Adapter) ChatMessages(ctx context.Context, acct *account.Account, threadID string) ([]record.ChatMessage, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var dtos []messageDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    "/discussions/" + url.PathEscape(threadID) + "/messages",
		Headers: a.authed(sess),
	}, &dtos)
	if err != nil {
		return nil, fmt.Errorf("pronote messages: %w", err)
	}
	return a.mapper.MessagesFromDTO(dtos, threadID), nil
}

// SendChatMessage posts a message to a thread. User-initiated: a dead
// session is an error, never a silent no-op.
func (a *Adapter) SendChatMessage(ctx context.Context, acct *account.Account, threadID, content string) error {
	sess, err := a.session(acct)
	if err != nil {
		return err
	}

	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/discussions/" + url.PathEscape(threadID) + "/messages",
		Headers: a.authed(sess),
		Body:    map[string]string{"content": content},
	}, nil)
	if err != nil {
		return fmt.Errorf("pronote send message: %w", err)
	}
	return nil
}
