package pronote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/epoch"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

func TestValueFromSlotKinds(t *testing.T) {
	m := NewMapper()
	ten := 10.0

	tests := []struct {
		name     string
		dto      slotDTO
		usable   bool
		status   record.GradeStatus
		disabled bool
	}{
		{"numeric", slotDTO{Value: &ten}, true, record.StatusNone, false},
		{"absent marker", slotDTO{Kind: kindAbsent}, false, record.StatusAbsent, true},
		{"exempted marker", slotDTO{Kind: kindExempted}, false, record.StatusExempted, true},
		{"unreturned marker", slotDTO{Kind: kindUnreturned}, false, record.StatusUnreturned, true},
		{"absent graded zero", slotDTO{Kind: kindAbsentZero}, true, record.StatusAbsent, false},
		{"unreturned graded zero", slotDTO{Kind: kindUnreturnedZero}, true, record.StatusUnreturned, false},
		{"unknown kind", slotDTO{Value: &ten, Kind: "Mystery"}, false, record.StatusNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := m.valueFromSlot(tt.dto)
			assert.Equal(t, tt.usable, v.Usable())
			assert.Equal(t, tt.status, v.Status)
			assert.Equal(t, tt.disabled, v.Disabled)
		})
	}
}

func TestGradesFromDTOParsesGatewayJSON(t *testing.T) {
	payload := `[{
		"id": "g-1",
		"subject": {"id": "MATH", "name": "Mathématiques"},
		"comment": "Contrôle chapitre 3",
		"date": "2025-01-14T08:00:00Z",
		"value": {"value": 15.5},
		"out_of": {"value": 20},
		"average": {"value": 11.2},
		"min": {"value": 4},
		"max": {"value": 19},
		"coefficient": 2,
		"is_bonus": false,
		"is_optional": false
	}, {
		"id": "g-2",
		"subject": {"id": "HIST", "name": "Histoire"},
		"date": "2025-01-15T08:00:00Z",
		"value": {"kind": "Absent"},
		"out_of": {"value": 20},
		"average": {"value": 12},
		"min": {"kind": "NotGraded"},
		"max": {"value": 18},
		"coefficient": 1
	}]`

	var dtos []gradeDTO
	require.NoError(t, json.Unmarshal([]byte(payload), &dtos))

	grades := NewMapper().GradesFromDTO(dtos, "Trimestre 2")
	require.Len(t, grades, 2)

	assert.Equal(t, "MATH", grades[0].SubjectID)
	assert.Equal(t, "Trimestre 2", grades[0].PeriodName)
	assert.InDelta(t, 15.5, grades[0].Student.Value, 1e-9)
	assert.True(t, grades[0].Student.Usable())
	assert.InDelta(t, 20, grades[0].OutOf.Value, 1e-9)
	assert.InDelta(t, 2, grades[0].Coefficient, 1e-9)

	assert.False(t, grades[1].Student.Usable())
	assert.Equal(t, record.StatusAbsent, grades[1].Student.Status)
	assert.True(t, grades[1].Min.Disabled)
}

func TestAttendanceFromDTOFlattensFamilies(t *testing.T) {
	dto := attendanceDTO{
		Absences: []absenceDTO{{
			ID:        "a-1",
			From:      time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
			To:        time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
			Minutes:   120,
			Justified: true,
			Reason:    "maladie",
		}},
		Delays: []delayDTO{{
			ID:      "d-1",
			Date:    time.Date(2025, 1, 12, 8, 10, 0, 0, time.UTC),
			Minutes: 10,
		}},
		Punishments: []punishmentDTO{{
			ID:      "p-1",
			Date:    time.Date(2025, 1, 13, 16, 0, 0, 0, time.UTC),
			Nature:  "retenue",
			Subject: "Histoire",
		}},
	}

	events := NewMapper().AttendanceFromDTO(dto, "Trimestre 2")
	require.Len(t, events, 3)
	assert.Equal(t, record.KindAbsence, events[0].Kind)
	assert.Equal(t, 120, events[0].DurationMinutes)
	assert.True(t, events[0].Justified)
	assert.Equal(t, record.KindDelay, events[1].Kind)
	assert.Equal(t, record.KindPunishment, events[2].Kind)
	assert.Equal(t, "Histoire", events[2].SubjectName)
}

func TestEvaluationSkillLevels(t *testing.T) {
	dto := evaluationDTO{
		ID:      "e-1",
		Subject: subjectDTO{ID: "SVT", Name: "SVT"},
		Name:    "Démarche scientifique",
		Date:    time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC),
		Skills: []skillDTO{
			{Name: "absent", Level: 0},
			{Name: "fragile", Level: 2},
			{Name: "excellent", Level: 5},
			{Name: "garbage", Level: 9},
		},
	}

	evals := NewMapper().EvaluationsFromDTO([]evaluationDTO{dto}, "Trimestre 2")
	require.Len(t, evals, 1)
	require.Len(t, evals[0].Skills, 4)
	assert.Equal(t, record.SkillAbsent, evals[0].Skills[0].Level)
	assert.Equal(t, record.SkillFragile, evals[0].Skills[1].Level)
	assert.Equal(t, record.SkillExcellent, evals[0].Skills[2].Level)
	assert.Equal(t, record.SkillAbsent, evals[0].Skills[3].Level)
}

func TestLessonStatusMapping(t *testing.T) {
	dtos := []lessonDTO{
		{ID: "l-1"},
		{ID: "l-2", Cancelled: true, Status: "Prof absent"},
		{ID: "l-3", Exam: true},
		{ID: "l-4", Status: "Salle modifiée"},
	}

	lessons := NewMapper().LessonsFromDTO(dtos)
	require.Len(t, lessons, 4)
	assert.Equal(t, record.LessonRegular, lessons[0].Status)
	assert.Equal(t, record.LessonCancelled, lessons[1].Status)
	assert.Equal(t, record.LessonExam, lessons[2].Status)
	assert.Equal(t, record.LessonModified, lessons[3].Status)
	assert.Equal(t, "Salle modifiée", lessons[3].StatusText)
}

func TestInstanceWeekNumber(t *testing.T) {
	firstMonday := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	acct := newTestAccount(t)
	acct.Session = &Session{Token: "tok", FirstMonday: firstMonday}

	anchor := epoch.ToWeekNumber(firstMonday)
	assert.Equal(t, 1, InstanceWeekNumber(acct, anchor))
	assert.Equal(t, 5, InstanceWeekNumber(acct, anchor+4))
	assert.Equal(t, 1, InstanceWeekNumber(acct, anchor-3))
}

func TestInstanceWeekNumberWithoutAnchor(t *testing.T) {
	acct := newTestAccount(t)
	assert.Equal(t, 1, InstanceWeekNumber(acct, 2900))

	acct.Session = &Session{Token: "tok"}
	assert.Equal(t, 1, InstanceWeekNumber(acct, 2900))
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "eleve", body["username"])
		assert.Equal(t, "motdepasse", body["password"])

		json.NewEncoder(w).Encode(loginResponseDTO{
			Token: "session-token",
			Instance: instanceDTO{
				Name:        "Collège Test",
				FirstMonday: time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
			},
		})
	}))
	defer srv.Close()

	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	secret, err := box.Seal([]byte("motdepasse"))
	require.NoError(t, err)

	acct, err := account.New(account.ServicePronote, "Eleve Test", account.Credentials{
		Username:    "eleve",
		Secret:      secret,
		InstanceURL: "https://demo.index-education.net",
	})
	require.NoError(t, err)

	adapter := New(transport.NewClient(transport.DefaultConfig("pronote", srv.URL)), box, nil)
	require.NoError(t, adapter.Login(context.Background(), acct))

	sess, ok := acct.Session.(*Session)
	require.True(t, ok)
	assert.Equal(t, "session-token", sess.Token)
	assert.False(t, sess.FirstMonday.IsZero())
}

func TestFetchWithoutSessionFailsUnauthenticated(t *testing.T) {
	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	adapter := New(transport.NewClient(transport.DefaultConfig("pronote", "http://unused")), box, nil)

	acct := newTestAccount(t)
	_, err = adapter.Grades(context.Background(), acct, "Trimestre 1")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	err = adapter.SendChatMessage(context.Background(), acct, "th-1", "bonjour")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestGradesRoundTripThroughGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/grades", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "Trimestre 1", r.URL.Query().Get("period"))

		w.Write([]byte(`[{
			"id": "g-1",
			"subject": {"id": "PHYS", "name": "Physique"},
			"date": "2025-01-20T08:00:00Z",
			"value": {"value": 12},
			"out_of": {"value": 20},
			"average": {"value": 10},
			"min": {"value": 2},
			"max": {"value": 18},
			"coefficient": 1
		}]`))
	}))
	defer srv.Close()

	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	adapter := New(transport.NewClient(transport.DefaultConfig("pronote", srv.URL)), box, nil)

	acct := newTestAccount(t)
	acct.Session = &Session{Token: "tok"}

	grades, err := adapter.Grades(context.Background(), acct, "Trimestre 1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "PHYS", grades[0].SubjectID)
	assert.InDelta(t, 12, grades[0].Student.Value, 1e-9)
}

func newTestAccount(t *testing.T) *account.Account {
	t.Helper()
	acct, err := account.New(account.ServicePronote, "Eleve Test", account.Credentials{
		Username:    "eleve",
		Secret:      []byte("sealed"),
		InstanceURL: "https://demo.index-education.net",
	})
	require.NoError(t, err)
	return acct
}
