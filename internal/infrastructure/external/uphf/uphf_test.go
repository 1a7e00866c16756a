package uphf

import (
	"context"
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

func newAdapter(t *testing.T, baseURL string) (*Adapter, *account.Account) {
	t.Helper()
	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	acct, err := account.New(account.ServiceUPHF, "Etudiant Test", account.Credentials{Username: "etudiant"})
	require.NoError(t, err)
	return New(transport.NewClient(transport.DefaultConfig("uphf", baseURL)), box, nil), acct
}

func TestTimetableMapsCourses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/edt/courses", r.URL.Path)
		require.Equal(t, "sess-1", r.Header.Get("X-Session-Id"))
		require.NotEmpty(t, r.URL.Query().Get("from"))
		require.NotEmpty(t, r.URL.Query().Get("to"))
		w.Write([]byte(`[
			{"id": "c-1", "module": "Analyse", "type": "CM", "teacher": "M. Durand", "room": "A204",
			 "start": "2025-09-08T08:00:00Z", "end": "2025-09-08T10:00:00Z"},
			{"id": "c-2", "module": "Algorithmique", "type": "TD", "room": "B101",
			 "start": "2025-09-08T10:15:00Z", "end": "2025-09-08T12:15:00Z", "cancelled": true},
			{"id": "c-3", "module": "Physique", "type": "", "room": "Amphi 2",
			 "start": "2025-09-09T14:00:00Z", "end": "2025-09-09T16:00:00Z", "exam": true}
		]`))
	}))
	defer srv.Close()

	adapter, acct := newAdapter(t, srv.URL)
	acct.Session = &Session{SessionID: "sess-1"}

	lessons, err := adapter.Timetable(context.Background(), acct, 2907)
	require.NoError(t, err)
	require.Len(t, lessons, 3)

	assert.Equal(t, "Analyse (CM)", lessons[0].SubjectName)
	assert.Equal(t, record.LessonRegular, lessons[0].Status)
	assert.Equal(t, record.LessonCancelled, lessons[1].Status)
	assert.Equal(t, record.LessonExam, lessons[2].Status)
	// no course type, name stays bare
	assert.Equal(t, "Physique", lessons[2].SubjectName)
	assert.Less(t, lessons[0].StartTimestamp, lessons[0].EndTimestamp)
}

func TestTimetableRequiresSession(t *testing.T) {
	adapter, acct := newAdapter(t, "http://unused")
	_, err := adapter.Timetable(context.Background(), acct, 2907)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/session", r.URL.Path)
		w.Write([]byte(`{"sessionId": "sess-42"}`))
	}))
	defer srv.Close()

	adapter, acct := newAdapter(t, srv.URL)
	sealed, err := adapter.box.Seal([]byte("motdepasse"))
	require.NoError(t, err)
	acct.Credentials.Secret = sealed

	require.NoError(t, adapter.Login(context.Background(), acct))
	sess, ok := acct.Session.(*Session)
	require.True(t, ok)
	assert.Equal(t, "sess-42", sess.SessionID)
}
