package ecoledirecte

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"15,5", 15.5, true},
		{"15.5", 15.5, true},
		{" 20 ", 20, true},
		{"", 0, false},
		{"Abs", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDecimal(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}

func TestGradesFromDTOFiltersPeriodAndNormalizes(t *testing.T) {
	payload := `{
		"periodes": [
			{"codePeriode": "A001", "periode": "Trimestre 1", "dateDebut": "2024-09-02", "dateFin": "2024-11-29"},
			{"codePeriode": "A002", "periode": "Trimestre 2", "dateDebut": "2024-12-02", "dateFin": "2025-03-07", "periodeEnCours": true}
		],
		"notes": [
			{"id": 1, "codeMatiere": "MATHS", "libelleMatiere": "Mathématiques", "codePeriode": "A002",
			 "date": "2025-01-14", "valeur": "15,5", "noteSur": "20", "moyenneClasse": "11,2",
			 "minClasse": "4", "maxClasse": "19", "coef": "2"},
			{"id": 2, "codeMatiere": "HIST", "libelleMatiere": "Histoire", "codePeriode": "A001",
			 "date": "2024-10-03", "valeur": "12", "noteSur": "20", "coef": "1"},
			{"id": 3, "codeMatiere": "EPS", "libelleMatiere": "EPS", "codePeriode": "A002",
			 "date": "2025-01-20", "valeur": "Abs", "noteSur": "20", "coef": "", "nonSignificatif": true}
		]
	}`

	var data gradesDataDTO
	require.NoError(t, json.Unmarshal([]byte(payload), &data))

	grades := NewMapper().GradesFromDTO(data, "A002", "Trimestre 2")
	require.Len(t, grades, 2)

	assert.Equal(t, "MATHS", grades[0].SubjectID)
	assert.InDelta(t, 15.5, grades[0].Student.Value, 1e-9)
	assert.InDelta(t, 2, grades[0].Coefficient, 1e-9)
	assert.Equal(t, "Trimestre 2", grades[0].PeriodName)

	// "Abs" never parses to a value and the non-significant flag disables
	// the slot either way.
	assert.False(t, grades[1].Student.Usable())
	assert.InDelta(t, 1, grades[1].Coefficient, 1e-9)
}

func TestPeriodsDefaultDesignation(t *testing.T) {
	list := NewMapper().PeriodsFromDTO([]periodDTO{
		{Code: "A001", Name: "Trimestre 1", StartDate: "2024-09-02", EndDate: "2024-11-29"},
		{Code: "A002", Name: "Trimestre 2", StartDate: "2024-12-02", EndDate: "2025-03-07", IsDefault: true},
	})
	assert.Equal(t, "Trimestre 2", list.DefaultName)
	require.Len(t, list.Periods, 2)
	def, ok := list.Default()
	require.True(t, ok)
	assert.Equal(t, "Trimestre 2", def.Name)
}

func TestAttendanceKindMapping(t *testing.T) {
	events := NewMapper().AttendanceFromDTO(attendanceDataDTO{
		Absences: []absenceDTO{
			{ID: 1, Kind: "Absence", Date: "2025-01-10 08:00", MinutesAway: 120, Justified: true},
			{ID: 2, Kind: "Retard", Date: "2025-01-12 08:10", MinutesAway: 10},
		},
		Sanction: []absenceDTO{
			{ID: 3, Kind: "Punition", Date: "2025-01-13", Reason: "bavardage"},
		},
	}, "Trimestre 2")

	require.Len(t, events, 3)
	assert.Equal(t, record.KindAbsence, events[0].Kind)
	assert.Equal(t, record.KindDelay, events[1].Kind)
	assert.Equal(t, record.KindPunishment, events[2].Kind)
	assert.NotZero(t, events[2].FromTimestamp)
}

func TestEnvelopeCodesMapToErrors(t *testing.T) {
	assert.NoError(t, checkEnvelope("Grades", codeOK, ""))
	assert.ErrorIs(t, checkEnvelope("Grades", codeTokenExpired, "token expire"), shared.ErrUnauthenticated)
	assert.ErrorIs(t, checkEnvelope("Grades", 505, "identifiants invalides"), shared.ErrExternalService)
}

func TestLoginKeepsTokenAndStudent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/login.awp", r.URL.Path)
		w.Write([]byte(`{
			"code": 200,
			"token": "ed-token",
			"data": {"accounts": [{"id": 4242, "prenom": "Test", "nom": "Eleve", "nomEtablissement": "Lycée Test"}]}
		}`))
	}))
	defer srv.Close()

	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	secret, err := box.Seal([]byte("motdepasse"))
	require.NoError(t, err)

	acct, err := account.New(account.ServiceEcoleDirecte, "Eleve Test", account.Credentials{
		Username: "eleve",
		Secret:   secret,
	})
	require.NoError(t, err)

	adapter := New(transport.NewClient(transport.DefaultConfig("ecoledirecte", srv.URL)), box, nil)
	require.NoError(t, adapter.Login(context.Background(), acct))

	sess, ok := acct.Session.(*Session)
	require.True(t, ok)
	assert.Equal(t, "ed-token", sess.Token)
	assert.Equal(t, int64(4242), sess.StudentID)
	assert.Equal(t, "Lycée Test", acct.SchoolName)
}

func TestFetchWithoutSessionFailsUnauthenticated(t *testing.T) {
	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	adapter := New(transport.NewClient(transport.DefaultConfig("ecoledirecte", "http://unused")), box, nil)

	acct, err := account.New(account.ServiceEcoleDirecte, "Eleve Test", account.Credentials{Username: "eleve"})
	require.NoError(t, err)

	_, err = adapter.Grades(context.Background(), acct, "Trimestre 1")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}
