// Package aggregate is the application layer: it ties the dispatch layer,
// the cache store and the average engine into the read and refresh
// operations callers actually use.
//
// Reads are cache-first and never touch a backend. Refreshes go through the
// dispatcher, replace cache entries wholesale and order concurrent attempts
// by issuance, so a slow stale fetch cannot overwrite a newer one.
package aggregate

import (
	"context"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/grades"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/persistence/memory"
	"github.com/papillon-hub/papillon-core/pkg/logger"
)

// Dispatcher is the dispatch surface the service consumes. Implemented by
// service.Dispatcher; narrowed to an interface so tests can fake backends.
type Dispatcher interface {
	Periods(ctx context.Context, acct *account.Account) (record.PeriodList, error)
	Grades(ctx context.Context, acct *account.Account, periodName string) ([]record.Grade, error)
	Attendance(ctx context.Context, acct *account.Account, periodName string) ([]record.AttendanceEvent, error)
	Evaluations(ctx context.Context, acct *account.Account, periodName string) ([]record.Evaluation, error)
	Timetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error)
	Homework(ctx context.Context, acct *account.Account, week int) ([]record.Homework, error)
	Chats(ctx context.Context, acct *account.Account) ([]record.ChatThread, error)
	Balance(ctx context.Context, acct *account.Account) ([]record.Balance, error)
	Bookings(ctx context.Context, acct *account.Account, week int) ([]record.BookingDay, error)
}

// Service aggregates canonical records across backends.
type Service struct {
	store      *memory.CacheStore
	dispatcher Dispatcher
	engine     *grades.Engine
	log        *logger.Logger
}

// NewService creates the aggregation service.
func NewService(store *memory.CacheStore, dispatcher Dispatcher, engine *grades.Engine, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	if engine == nil {
		engine = grades.NewEngine(grades.DefaultMemoSize)
	}
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		engine:     engine,
		log:        log.With(logger.Component("aggregate")),
	}
}

// Store exposes the cache store, for snapshot persistence.
func (s *Service) Store() *memory.CacheStore {
	return s.store
}

// unkeyedPeriod is the pseudo period name of domains cached once per account
// (chats, balances).
const unkeyedPeriod = ""

// ─────────────────────────────────────────────────────────────────────────────
// Reads (cache only)
// ─────────────────────────────────────────────────────────────────────────────

// Periods returns the cached period list, fetching it once when the account
// was never refreshed.
func (s *Service) Periods(ctx context.Context, acct *account.Account) (record.PeriodList, error) {
	if list, ok := s.store.Periods(acct.ID); ok {
		return list, nil
	}
	return s.RefreshPeriods(ctx, acct)
}

// Grades returns the cached grades of one period. A key never refreshed
// reads as empty.
func (s *Service) Grades(acct *account.Account, periodName string) []record.Grade {
	records, _ := s.store.Grades.Get(memory.PeriodKey(acct.ID, account.FeatureGrades, periodName))
	return records
}

// Attendance returns the cached attendance events of one period.
func (s *Service) Attendance(acct *account.Account, periodName string) []record.AttendanceEvent {
	records, _ := s.store.Attendance.Get(memory.PeriodKey(acct.ID, account.FeatureAttendance, periodName))
	return records
}

// Evaluations returns the cached evaluations of one period.
func (s *Service) Evaluations(acct *account.Account, periodName string) []record.Evaluation {
	records, _ := s.store.Evaluations.Get(memory.PeriodKey(acct.ID, account.FeatureEvaluations, periodName))
	return records
}

// Timetable returns the cached lessons of one epoch week.
func (s *Service) Timetable(acct *account.Account, week int) []record.Lesson {
	records, _ := s.store.Timetable.Get(memory.WeekKey(acct.ID, account.FeatureTimetable, week))
	return records
}

// Homework returns the cached homework of one epoch week.
func (s *Service) Homework(acct *account.Account, week int) []record.Homework {
	records, _ := s.store.Homework.Get(memory.WeekKey(acct.ID, account.FeatureHomework, week))
	return records
}

// Chats returns the cached discussion threads.
func (s *Service) Chats(acct *account.Account) []record.ChatThread {
	records, _ := s.store.Chats.Get(memory.PeriodKey(acct.ID, account.FeatureChats, unkeyedPeriod))
	return records
}

// Balance returns the cached canteen balances.
func (s *Service) Balance(acct *account.Account) []record.Balance {
	records, _ := s.store.Balances.Get(memory.PeriodKey(acct.ID, account.FeatureBalance, unkeyedPeriod))
	return records
}

// Bookings returns the cached meal bookings of one epoch week.
func (s *Service) Bookings(acct *account.Account, week int) []record.BookingDay {
	records, _ := s.store.Bookings.Get(memory.WeekKey(acct.ID, account.FeatureBookings, week))
	return records
}

// GradesOverview recomputes the averages view from the cached grades of one
// period. Derived on every read, never cached.
func (s *Service) GradesOverview(acct *account.Account, periodName string) record.AverageOverview {
	return s.engine.Overview(s.Grades(acct, periodName))
}

// GradesHistory recomputes the running-average curve from the cached grades
// of one period.
func (s *Service) GradesHistory(acct *account.Account, periodName string, target grades.Target) []grades.HistoryPoint {
	return s.engine.AveragesHistory(s.Grades(acct, periodName), target, nil, false)
}

// ─────────────────────────────────────────────────────────────────────────────
// Refreshes (dispatcher, ordered by issuance)
// ─────────────────────────────────────────────────────────────────────────────

// refresh runs one ordered refresh against a table.
func refresh[T any](ctx context.Context, table *memory.Table[T], key memory.Key,
	fetch func(ctx context.Context) ([]T, error)) ([]T, error) {

	gen := table.Begin(key)
	records, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	table.SetIfNewer(key, gen, records)
	return records, nil
}

// RefreshPeriods refetches the period list of an account.
func (s *Service) RefreshPeriods(ctx context.Context, acct *account.Account) (record.PeriodList, error) {
	list, err := s.dispatcher.Periods(ctx, acct)
	if err != nil {
		return record.PeriodList{}, err
	}
	s.store.SetPeriods(acct.ID, list.Periods, list.DefaultName)
	return list, nil
}

// RefreshGrades refetches the grades of one period.
func (s *Service) RefreshGrades(ctx context.Context, acct *account.Account, periodName string) ([]record.Grade, error) {
	return refresh(ctx, s.store.Grades, memory.PeriodKey(acct.ID, account.FeatureGrades, periodName),
		func(ctx context.Context) ([]record.Grade, error) {
			return s.dispatcher.Grades(ctx, acct, periodName)
		})
}

// RefreshAttendance refetches the attendance events of one period.
func (s *Service) RefreshAttendance(ctx context.Context, acct *account.Account, periodName string) ([]record.AttendanceEvent, error) {
	return refresh(ctx, s.store.Attendance, memory.PeriodKey(acct.ID, account.FeatureAttendance, periodName),
		func(ctx context.Context) ([]record.AttendanceEvent, error) {
			return s.dispatcher.Attendance(ctx, acct, periodName)
		})
}

// RefreshEvaluations refetches the evaluations of one period.
func (s *Service) RefreshEvaluations(ctx context.Context, acct *account.Account, periodName string) ([]record.Evaluation, error) {
	return refresh(ctx, s.store.Evaluations, memory.PeriodKey(acct.ID, account.FeatureEvaluations, periodName),
		func(ctx context.Context) ([]record.Evaluation, error) {
			return s.dispatcher.Evaluations(ctx, acct, periodName)
		})
}

// RefreshTimetable refetches the lessons of one epoch week.
func (s *Service) RefreshTimetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error) {
	return refresh(ctx, s.store.Timetable, memory.WeekKey(acct.ID, account.FeatureTimetable, week),
		func(ctx context.Context) ([]record.Lesson, error) {
			return s.dispatcher.Timetable(ctx, acct, week)
		})
}

// RefreshHomework refetches the homework of one epoch week.
func (s *Service) RefreshHomework(ctx context.Context, acct *account.Account, week int) ([]record.Homework, error) {
	return refresh(ctx, s.store.Homework, memory.WeekKey(acct.ID, account.FeatureHomework, week),
		func(ctx context.Context) ([]record.Homework, error) {
			return s.dispatcher.Homework(ctx, acct, week)
		})
}

// RefreshChats refetches the discussion threads.
func (s *Service) RefreshChats(ctx context.Context, acct *account.Account) ([]record.ChatThread, error) {
	return refresh(ctx, s.store.Chats, memory.PeriodKey(acct.ID, account.FeatureChats, unkeyedPeriod),
		func(ctx context.Context) ([]record.ChatThread, error) {
			return s.dispatcher.Chats(ctx, acct)
		})
}

// RefreshBalance refetches the canteen balances.
func (s *Service) RefreshBalance(ctx context.Context, acct *account.Account) ([]record.Balance, error) {
	return refresh(ctx, s.store.Balances, memory.PeriodKey(acct.ID, account.FeatureBalance, unkeyedPeriod),
		func(ctx context.Context) ([]record.Balance, error) {
			return s.dispatcher.Balance(ctx, acct)
		})
}

// RefreshBookings refetches the meal bookings of one epoch week.
func (s *Service) RefreshBookings(ctx context.Context, acct *account.Account, week int) ([]record.BookingDay, error) {
	return refresh(ctx, s.store.Bookings, memory.WeekKey(acct.ID, account.FeatureBookings, week),
		func(ctx context.Context) ([]record.BookingDay, error) {
			return s.dispatcher.Bookings(ctx, acct, week)
		})
}

// RefreshCurrent refreshes the default period's record domains and the
// current week's scheduled domains in one pass. Soft-failing domains come
// back empty; the first hard error (a dead session) aborts the pass.
func (s *Service) RefreshCurrent(ctx context.Context, acct *account.Account, week int) error {
	list, err := s.RefreshPeriods(ctx, acct)
	if err != nil {
		return err
	}

	periodName := list.DefaultName
	if _, err := s.RefreshGrades(ctx, acct, periodName); err != nil {
		return err
	}
	if _, err := s.RefreshAttendance(ctx, acct, periodName); err != nil {
		return err
	}
	if _, err := s.RefreshEvaluations(ctx, acct, periodName); err != nil {
		return err
	}
	if _, err := s.RefreshTimetable(ctx, acct, week); err != nil {
		return err
	}
	if _, err := s.RefreshHomework(ctx, acct, week); err != nil {
		return err
	}
	if _, err := s.RefreshChats(ctx, acct); err != nil {
		return err
	}
	if _, err := s.RefreshBalance(ctx, acct); err != nil {
		return err
	}
	if _, err := s.RefreshBookings(ctx, acct, week); err != nil {
		return err
	}

	s.log.Info("account refreshed",
		logger.AccountID(acct.ID.String()),
		logger.PeriodName(periodName),
		logger.WeekNumber(week),
	)
	return nil
}
