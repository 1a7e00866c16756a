package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
)

// fakeGradesAdapter serves grades only.
type fakeGradesAdapter struct {
	grades []record.Grade
	err    error
}

func (f *fakeGradesAdapter) Grades(_ context.Context, _ *account.Account, _ string) ([]record.Grade, error) {
	return f.grades, f.err
}

// fakeFullAdapter also serves timetable and chats.
type fakeFullAdapter struct {
	fakeGradesAdapter
	lessons []record.Lesson
	sent    []string
}

func (f *fakeFullAdapter) Timetable(_ context.Context, _ *account.Account, _ int) ([]record.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeFullAdapter) Chats(_ context.Context, _ *account.Account) ([]record.ChatThread, error) {
	return nil, nil
}

func (f *fakeFullAdapter) ChatMessages(_ context.Context, _ *account.Account, _ string) ([]record.ChatMessage, error) {
	return nil, nil
}

func (f *fakeFullAdapter) SendChatMessage(_ context.Context, _ *account.Account, _ string, content string) error {
	f.sent = append(f.sent, content)
	return nil
}

// fakeRepo resolves bindings from a map.
type fakeRepo struct {
	accounts map[uuid.UUID]*account.Account
}

func (r *fakeRepo) Create(context.Context, *account.Account) error { return nil }
func (r *fakeRepo) Update(context.Context, *account.Account) error { return nil }
func (r *fakeRepo) Delete(context.Context, uuid.UUID) error        { return nil }
func (r *fakeRepo) List(context.Context) ([]*account.Account, error) {
	return nil, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	if acct, ok := r.accounts[id]; ok {
		return acct, nil
	}
	return nil, shared.ErrAccountNotFound
}

func newConcreteAccount(t *testing.T, service account.Service) *account.Account {
	t.Helper()
	acct, err := account.New(service, "Test", account.Credentials{Username: "u"})
	require.NoError(t, err)
	return acct
}

func TestGradesRoutedToRegisteredAdapter(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Register(account.ServicePronote, &fakeGradesAdapter{
		grades: []record.Grade{{ID: "g-1", SubjectName: "Maths"}},
	})

	acct := newConcreteAccount(t, account.ServicePronote)
	grades, err := d.Grades(context.Background(), acct, "T1")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "g-1", grades[0].ID)
}

func TestUnsupportedFeatureResolvesEmpty(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Register(account.ServiceTurboself, &fakeGradesAdapter{})

	acct := newConcreteAccount(t, account.ServiceTurboself)

	// the fake serves no timetable capability
	lessons, err := d.Timetable(context.Background(), acct, 2900)
	require.NoError(t, err)
	assert.NotNil(t, lessons)
	assert.Empty(t, lessons)
}

func TestUnregisteredServiceResolvesEmpty(t *testing.T) {
	d := NewDispatcher(nil, nil)
	acct := newConcreteAccount(t, account.ServiceSkolengo)

	grades, err := d.Grades(context.Background(), acct, "T1")
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestBackendFailureResolvesEmpty(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Register(account.ServicePronote, &fakeGradesAdapter{err: errors.New("gateway down")})

	acct := newConcreteAccount(t, account.ServicePronote)
	grades, err := d.Grades(context.Background(), acct, "T1")
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestUnauthenticatedPropagates(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Register(account.ServicePronote, &fakeGradesAdapter{err: shared.ErrUnauthenticated})

	acct := newConcreteAccount(t, account.ServicePronote)
	_, err := d.Grades(context.Background(), acct, "T1")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestVirtualAccountFollowsBinding(t *testing.T) {
	backing := newConcreteAccount(t, account.ServicePronote)
	repo := &fakeRepo{accounts: map[uuid.UUID]*account.Account{backing.ID: backing}}

	d := NewDispatcher(repo, nil)
	d.Register(account.ServicePronote, &fakeGradesAdapter{
		grades: []record.Grade{{ID: "g-1"}},
	})

	virtual := account.NewMulti("Multi", map[account.Feature]uuid.UUID{
		account.FeatureGrades: backing.ID,
	})

	grades, err := d.Grades(context.Background(), virtual, "T1")
	require.NoError(t, err)
	require.Len(t, grades, 1)

	// no timetable binding configured
	lessons, err := d.Timetable(context.Background(), virtual, 2900)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestNestedVirtualBindingResolvesEmpty(t *testing.T) {
	inner := account.NewMulti("Inner", nil)
	repo := &fakeRepo{accounts: map[uuid.UUID]*account.Account{inner.ID: inner}}

	d := NewDispatcher(repo, nil)
	outer := account.NewMulti("Outer", map[account.Feature]uuid.UUID{
		account.FeatureGrades: inner.ID,
	})

	grades, err := d.Grades(context.Background(), outer, "T1")
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestSendChatMessageErrorsSurface(t *testing.T) {
	d := NewDispatcher(nil, nil)
	full := &fakeFullAdapter{}
	d.Register(account.ServicePronote, full)

	acct := newConcreteAccount(t, account.ServicePronote)
	require.NoError(t, d.SendChatMessage(context.Background(), acct, "th-1", "bonjour"))
	assert.Equal(t, []string{"bonjour"}, full.sent)

	// grades-only adapter has no chat capability and mutations never
	// soft-fail
	d2 := NewDispatcher(nil, nil)
	d2.Register(account.ServicePronote, &fakeGradesAdapter{})
	err := d2.SendChatMessage(context.Background(), acct, "th-1", "bonjour")
	assert.ErrorIs(t, err, shared.ErrUnsupportedFeature)
}

func TestPeriodsFallBackToFullYear(t *testing.T) {
	d := NewDispatcher(nil, nil)
	d.Register(account.ServiceTurboself, &fakeGradesAdapter{})

	acct := newConcreteAccount(t, account.ServiceTurboself)
	list, err := d.Periods(context.Background(), acct)
	require.NoError(t, err)
	require.Len(t, list.Periods, 1)
	assert.Equal(t, "Année", list.DefaultName)
}
