package ecoledirecte

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/epoch"
	"github.com/papillon-hub/papillon-core/pkg/logger"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

// EcoleDirecte application status codes carried inside a 200 response.
const (
	codeOK           = 200
	codeTokenExpired = 525
	codeSessionGone  = 520
)

// Session is the live EcoleDirecte session handle.
type Session struct {
	Token     string
	StudentID int64
}

// Adapter is the EcoleDirecte backend adapter. It serves grades, attendance,
// homework and timetable.
type Adapter struct {
	client *transport.Client
	mapper *Mapper
	box    *sealbox.Box
	log    *logger.Logger
}

// New creates the EcoleDirecte adapter.
func New(client *transport.Client, box *sealbox.Box, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Default()
	}
	return &Adapter{
		client: client,
		mapper: NewMapper(),
		box:    box,
		log:    log.With(logger.Service(string(account.ServiceEcoleDirecte))),
	}
}

func (a *Adapter) session(acct *account.Account) (*Session, error) {
	sess, ok := acct.Session.(*Session)
	if !ok || sess == nil || sess.Token == "" {
		return nil, shared.ErrUnauthenticated
	}
	return sess, nil
}

// checkEnvelope translates EcoleDirecte application status codes into the
// shared error taxonomy. The gateway answers HTTP 200 even on failure.
func checkEnvelope(op string, code int, message string) error {
	switch code {
	case codeOK:
		return nil
	case codeTokenExpired, codeSessionGone:
		return shared.ErrUnauthenticated
	default:
		return shared.WrapError("ecoledirecte", op, shared.ErrExternalService,
			fmt.Sprintf("code %d: %s", code, message), nil)
	}
}

// Login authenticates against the gateway and keeps the returned token and
// student identity on the account.
func (a *Adapter) Login(ctx context.Context, acct *account.Account) error {
	password, err := a.box.Open(acct.Credentials.Secret)
	if err != nil {
		return shared.WrapError("ecoledirecte", "Login", shared.ErrValidation, "unseal credentials", err)
	}

	var env envelopeDTO[loginDataDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v3/login.awp",
		Body: map[string]string{
			"identifiant": acct.Credentials.Username,
			"motdepasse":  string(password),
		},
	}, &env)
	if err != nil {
		return fmt.Errorf("ecoledirecte login: %w", err)
	}
	if err := checkEnvelope("Login", env.Code, env.Message); err != nil {
		return err
	}
	if len(env.Data.Accounts) == 0 {
		return shared.WrapError("ecoledirecte", "Login", shared.ErrInvalidFormat, "login response carries no account", nil)
	}

	first := env.Data.Accounts[0]
	acct.Session = &Session{Token: env.Token, StudentID: first.ID}
	if acct.SchoolName == "" {
		acct.SchoolName = first.SchoolName
	}
	a.log.Info("session established", logger.AccountID(acct.ID.String()))
	return nil
}

func (a *Adapter) authed(sess *Session) map[string]string {
	return map[string]string{"X-Token": sess.Token}
}

func (a *Adapter) studentPath(sess *Session, suffix string) string {
	return "/v3/eleves/" + strconv.FormatInt(sess.StudentID, 10) + suffix
}

// fetchGradesData pulls the combined periods-and-grades payload.
func (a *Adapter) fetchGradesData(ctx context.Context, sess *Session) (gradesDataDTO, error) {
	var env envelopeDTO[gradesDataDTO]
	err := a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    a.studentPath(sess, "/notes.awp"),
		Headers: a.authed(sess),
	}, &env)
	if err != nil {
		return gradesDataDTO{}, fmt.Errorf("ecoledirecte grades: %w", err)
	}
	if err := checkEnvelope("Grades", env.Code, env.Message); err != nil {
		return gradesDataDTO{}, err
	}
	return env.Data, nil
}

// Periods lists the grading periods.
func (a *Adapter) Periods(ctx context.Context, acct *account.Account) (record.PeriodList, error) {
	sess, err := a.session(acct)
	if err != nil {
		return record.PeriodList{}, err
	}
	data, err := a.fetchGradesData(ctx, sess)
	if err != nil {
		return record.PeriodList{}, err
	}
	return a.mapper.PeriodsFromDTO(data.Periods), nil
}

// Grades fetches the canonical grades of one period. The gateway bundles all
// periods in one payload; the requested period name selects its rows.
func (a *Adapter) Grades(ctx context.Context, acct *account.Account, periodName string) ([]record.Grade, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}
	data, err := a.fetchGradesData(ctx, sess)
	if err != nil {
		return nil, err
	}

	code := ""
	for _, p := range data.Periods {
		if p.Name == periodName {
			code = p.Code
			break
		}
	}
	return a.mapper.GradesFromDTO(data, code, periodName), nil
}

// Attendance fetches the attendance events of one period.
func (a *Adapter) Attendance(ctx context.Context, acct *account.Account, periodName string) ([]record.AttendanceEvent, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var env envelopeDTO[attendanceDataDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    a.studentPath(sess, "/viescolaire.awp"),
		Headers: a.authed(sess),
	}, &env)
	if err != nil {
		return nil, fmt.Errorf("ecoledirecte attendance: %w", err)
	}
	if err := checkEnvelope("Attendance", env.Code, env.Message); err != nil {
		return nil, err
	}
	return a.mapper.AttendanceFromDTO(env.Data, periodName), nil
}

// Homework fetches the homework due during one epoch week.
func (a *Adapter) Homework(ctx context.Context, acct *account.Account, week int) ([]record.Homework, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var env envelopeDTO[homeworkDataDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    a.studentPath(sess, "/cahierdetexte.awp"),
		Headers: a.authed(sess),
	}, &env)
	if err != nil {
		return nil, fmt.Errorf("ecoledirecte homework: %w", err)
	}
	if err := checkEnvelope("Homework", env.Code, env.Message); err != nil {
		return nil, err
	}

	// The gateway returns the whole agenda; only the requested week's due
	// dates survive.
	start, end := epoch.WeekDateRange(week, 0, 0)
	all := a.mapper.HomeworkFromDTO(env.Data)
	homework := make([]record.Homework, 0, len(all))
	for _, h := range all {
		if due := h.Due(); !due.Before(start) && !due.After(end) {
			homework = append(homework, h)
		}
	}
	return homework, nil
}

// Timetable fetches the lessons of one epoch week.
func (a *Adapter) Timetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	start, end := epoch.WeekDateRange(week, 0, 0)
	var env envelopeDTO[[]lessonDTO]
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    a.studentPath(sess, "/emploidutemps.awp"),
		Headers: a.authed(sess),
		Body: map[string]string{
			"dateDebut": start.Format(dateLayout),
			"dateFin":   end.Format(dateLayout),
		},
	}, &env)
	if err != nil {
		return nil, fmt.Errorf("ecoledirecte timetable: %w", err)
	}
	if err := checkEnvelope("Timetable", env.Code, env.Message); err != nil {
		return nil, err
	}
	return a.mapper.LessonsFromDTO(env.Data), nil
}
