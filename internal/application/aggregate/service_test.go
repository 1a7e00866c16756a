package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/grades"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/persistence/memory"
)

// fakeDispatcher returns canned data and counts fetches.
type fakeDispatcher struct {
	periods record.PeriodList
	grades  []record.Grade
	err     error

	gradesFetches int
}

func (f *fakeDispatcher) Periods(context.Context, *account.Account) (record.PeriodList, error) {
	if f.err != nil {
		return record.PeriodList{}, f.err
	}
	return f.periods, nil
}

func (f *fakeDispatcher) Grades(context.Context, *account.Account, string) ([]record.Grade, error) {
	f.gradesFetches++
	return f.grades, f.err
}

func (f *fakeDispatcher) Attendance(context.Context, *account.Account, string) ([]record.AttendanceEvent, error) {
	return []record.AttendanceEvent{}, f.err
}

func (f *fakeDispatcher) Evaluations(context.Context, *account.Account, string) ([]record.Evaluation, error) {
	return []record.Evaluation{}, f.err
}

func (f *fakeDispatcher) Timetable(context.Context, *account.Account, int) ([]record.Lesson, error) {
	return []record.Lesson{}, f.err
}

func (f *fakeDispatcher) Homework(context.Context, *account.Account, int) ([]record.Homework, error) {
	return []record.Homework{}, f.err
}

func (f *fakeDispatcher) Chats(context.Context, *account.Account) ([]record.ChatThread, error) {
	return []record.ChatThread{}, f.err
}

func (f *fakeDispatcher) Balance(context.Context, *account.Account) ([]record.Balance, error) {
	return []record.Balance{}, f.err
}

func (f *fakeDispatcher) Bookings(context.Context, *account.Account, int) ([]record.BookingDay, error) {
	return []record.BookingDay{}, f.err
}

func grade(id string, value float64) record.Grade {
	return record.Grade{
		ID:          id,
		SubjectID:   "MATH",
		SubjectName: "Maths",
		Student:     record.Num(value),
		OutOf:       record.Num(20),
		Coefficient: 1,
	}
}

func newService(dispatcher Dispatcher) (*Service, *account.Account) {
	acct, _ := account.New(account.ServicePronote, "Test", account.Credentials{Username: "u"})
	return NewService(memory.NewCacheStore(), dispatcher, grades.NewEngine(grades.DefaultMemoSize), nil), acct
}

func TestReadsAreCacheOnly(t *testing.T) {
	fake := &fakeDispatcher{grades: []record.Grade{grade("g-1", 15)}}
	svc, acct := newService(fake)

	// nothing cached, nothing fetched
	assert.Empty(t, svc.Grades(acct, "T1"))
	assert.Zero(t, fake.gradesFetches)

	_, err := svc.RefreshGrades(context.Background(), acct, "T1")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.gradesFetches)

	got := svc.Grades(acct, "T1")
	require.Len(t, got, 1)
	assert.Equal(t, "g-1", got[0].ID)
}

func TestRefreshReplacesWholesale(t *testing.T) {
	fake := &fakeDispatcher{grades: []record.Grade{grade("g-1", 15), grade("g-2", 12)}}
	svc, acct := newService(fake)

	_, err := svc.RefreshGrades(context.Background(), acct, "T1")
	require.NoError(t, err)

	fake.grades = []record.Grade{grade("g-3", 10)}
	_, err = svc.RefreshGrades(context.Background(), acct, "T1")
	require.NoError(t, err)

	got := svc.Grades(acct, "T1")
	require.Len(t, got, 1)
	assert.Equal(t, "g-3", got[0].ID)
}

func TestRefreshErrorKeepsCache(t *testing.T) {
	fake := &fakeDispatcher{grades: []record.Grade{grade("g-1", 15)}}
	svc, acct := newService(fake)

	_, err := svc.RefreshGrades(context.Background(), acct, "T1")
	require.NoError(t, err)

	fake.err = shared.ErrUnauthenticated
	_, err = svc.RefreshGrades(context.Background(), acct, "T1")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	// the stale entry survives the failed refresh
	got := svc.Grades(acct, "T1")
	require.Len(t, got, 1)
}

func TestPeriodsFetchedOnceThenCached(t *testing.T) {
	fake := &fakeDispatcher{periods: record.PeriodList{
		Periods:     []record.Period{{Name: "T1"}, {Name: "T2"}},
		DefaultName: "T2",
	}}
	svc, acct := newService(fake)

	list, err := svc.Periods(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "T2", list.DefaultName)

	// second read comes from the store
	fake.err = shared.ErrUnauthenticated
	list, err = svc.Periods(context.Background(), acct)
	require.NoError(t, err)
	assert.Len(t, list.Periods, 2)
}

func TestGradesOverviewDerivedFromCache(t *testing.T) {
	fake := &fakeDispatcher{grades: []record.Grade{grade("g-1", 15)}}
	svc, acct := newService(fake)

	// empty cache derives the no-average view
	overview := svc.GradesOverview(acct, "T1")
	assert.False(t, overview.Overall.Valid)

	_, err := svc.RefreshGrades(context.Background(), acct, "T1")
	require.NoError(t, err)

	overview = svc.GradesOverview(acct, "T1")
	require.True(t, overview.Overall.Valid)
	assert.InDelta(t, 15, overview.Overall.Value, 1e-9)
	require.Len(t, overview.Subjects, 1)
}

func TestRefreshCurrentCoversAllDomains(t *testing.T) {
	fake := &fakeDispatcher{
		periods: record.PeriodList{Periods: []record.Period{{Name: "T1"}}, DefaultName: "T1"},
		grades:  []record.Grade{grade("g-1", 15)},
	}
	svc, acct := newService(fake)

	require.NoError(t, svc.RefreshCurrent(context.Background(), acct, 2900))

	assert.Len(t, svc.Grades(acct, "T1"), 1)
	assert.NotNil(t, svc.Timetable(acct, 2900))
	_, ok := svc.Store().Homework.Get(memory.WeekKey(acct.ID, account.FeatureHomework, 2900))
	assert.True(t, ok)
}

func TestRefreshCurrentAbortsOnDeadSession(t *testing.T) {
	fake := &fakeDispatcher{
		periods: record.PeriodList{Periods: []record.Period{{Name: "T1"}}, DefaultName: "T1"},
		err:     shared.ErrUnauthenticated,
	}
	svc, acct := newService(fake)

	err := svc.RefreshCurrent(context.Background(), acct, 2900)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}
