// Package service contains the dispatch layer: the single entry point
// through which callers reach backend adapters. It routes on the account's
// service tag, discovers adapter capabilities by type assertion and resolves
// unsupported or failing fetches to empty canonical results so one broken
// backend never takes the aggregate view down.
package service

import (
	"context"
	"errors"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/pkg/logger"
)

// Dispatcher routes record operations to the adapter registered for the
// account's service tag.
//
// Fetch operations soft-fail: a missing adapter, a missing capability or a
// backend failure yields an empty result and a log line. The one error that
// escapes is shared.ErrUnauthenticated, because only the caller can trigger
// a reconnection. User-initiated mutations (SendChatMessage, SetBooking)
// return every error.
type Dispatcher struct {
	accounts account.Repository
	adapters map[account.Service]any
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher. accounts resolves multi-service
// bindings; it may be nil when no virtual accounts exist.
func NewDispatcher(accounts account.Repository, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Default()
	}
	return &Dispatcher{
		accounts: accounts,
		adapters: make(map[account.Service]any),
		log:      log.With(logger.Component("dispatch")),
	}
}

// Register binds an adapter to a service tag. The adapter exposes whatever
// subset of the record provider interfaces its backend can serve.
func (d *Dispatcher) Register(service account.Service, adapter any) {
	d.adapters[service] = adapter
}

// resolve follows at most one level of multi-service indirection and returns
// the concrete account to fetch with. A virtual account with no binding for
// the feature resolves to nil, the empty default.
func (d *Dispatcher) resolve(ctx context.Context, acct *account.Account, feature account.Feature) (*account.Account, error) {
	if !acct.IsVirtual() {
		return acct, nil
	}

	id, ok := acct.BindingFor(feature)
	if !ok {
		d.log.Debug("virtual account has no binding",
			logger.AccountID(acct.ID.String()), logger.Feature(string(feature)))
		return nil, nil
	}
	if d.accounts == nil {
		return nil, nil
	}

	target, err := d.accounts.GetByID(ctx, id)
	if err != nil {
		d.log.Warn("binding resolution failed",
			logger.AccountID(acct.ID.String()), logger.Feature(string(feature)), logger.Err(err))
		return nil, nil
	}
	// one level only: a virtual account never backs another virtual account
	if target.IsVirtual() {
		d.log.Warn("nested virtual binding ignored",
			logger.AccountID(acct.ID.String()), logger.Feature(string(feature)))
		return nil, nil
	}
	return target, nil
}

// adapterFor returns the registered adapter for the account's service.
func (d *Dispatcher) adapterFor(acct *account.Account) (any, bool) {
	adapter, ok := d.adapters[acct.Service]
	return adapter, ok
}

// fetch runs one soft-failing list fetch: capability discovery, the backend
// call, and the empty-on-failure contract.
func fetch[T any](d *Dispatcher, ctx context.Context, acct *account.Account, feature account.Feature,
	call func(ctx context.Context, adapter any, target *account.Account) ([]T, bool, error)) ([]T, error) {

	target, err := d.resolve(ctx, acct, feature)
	if err != nil {
		return []T{}, err
	}
	if target == nil {
		return []T{}, nil
	}

	adapter, ok := d.adapterFor(target)
	if !ok {
		d.log.Debug("no adapter registered",
			logger.Service(string(target.Service)), logger.Feature(string(feature)))
		return []T{}, nil
	}

	result, supported, err := call(ctx, adapter, target)
	if !supported {
		d.log.Debug("feature not supported",
			logger.Service(string(target.Service)), logger.Feature(string(feature)),
			logger.Err(shared.ErrUnsupportedFeature))
		return []T{}, nil
	}
	if err != nil {
		if errors.Is(err, shared.ErrUnauthenticated) {
			return nil, err
		}
		d.log.Warn("backend fetch failed",
			logger.Service(string(target.Service)), logger.Feature(string(feature)), logger.Err(err))
		return []T{}, nil
	}
	if result == nil {
		result = []T{}
	}
	return result, nil
}

// Login establishes a session on a concrete account. Virtual accounts own no
// session; logging one in is a no-op.
func (d *Dispatcher) Login(ctx context.Context, acct *account.Account) error {
	if acct.IsVirtual() {
		return nil
	}
	adapter, ok := d.adapterFor(acct)
	if !ok {
		return shared.ErrUnknownService
	}
	auth, ok := adapter.(record.Authenticator)
	if !ok {
		return shared.ErrUnsupportedFeature
	}
	return auth.Login(ctx, acct)
}

// Periods lists the grading periods of the grades-backing account. Accounts
// whose backend has no period notion get a single synthetic full-year
// period, so period-scoped caching always has a key.
func (d *Dispatcher) Periods(ctx context.Context, acct *account.Account) (record.PeriodList, error) {
	target, err := d.resolve(ctx, acct, account.FeatureGrades)
	if err != nil {
		return record.PeriodList{}, err
	}
	if target != nil {
		if adapter, ok := d.adapterFor(target); ok {
			if provider, ok := adapter.(record.PeriodsProvider); ok {
				list, err := provider.Periods(ctx, target)
				if err != nil {
					if errors.Is(err, shared.ErrUnauthenticated) {
						return record.PeriodList{}, err
					}
					d.log.Warn("periods fetch failed",
						logger.Service(string(target.Service)), logger.Err(err))
				} else if len(list.Periods) > 0 {
					return list, nil
				}
			}
		}
	}
	return record.FullYearPeriods(), nil
}

// Grades fetches the canonical grades of one period.
func (d *Dispatcher) Grades(ctx context.Context, acct *account.Account, periodName string) ([]record.Grade, error) {
	return fetch(d, ctx, acct, account.FeatureGrades,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.Grade, bool, error) {
			provider, ok := adapter.(record.GradesProvider)
			if !ok {
				return nil, false, nil
			}
			grades, err := provider.Grades(ctx, target, periodName)
			return grades, true, err
		})
}

// Attendance fetches the attendance events of one period.
func (d *Dispatcher) Attendance(ctx context.Context, acct *account.Account, periodName string) ([]record.AttendanceEvent, error) {
	return fetch(d, ctx, acct, account.FeatureAttendance,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.AttendanceEvent, bool, error) {
			provider, ok := adapter.(record.AttendanceProvider)
			if !ok {
				return nil, false, nil
			}
			events, err := provider.Attendance(ctx, target, periodName)
			return events, true, err
		})
}

// Evaluations fetches the competence evaluations of one period.
func (d *Dispatcher) Evaluations(ctx context.Context, acct *account.Account, periodName string) ([]record.Evaluation, error) {
	return fetch(d, ctx, acct, account.FeatureEvaluations,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.Evaluation, bool, error) {
			provider, ok := adapter.(record.EvaluationsProvider)
			if !ok {
				return nil, false, nil
			}
			evals, err := provider.Evaluations(ctx, target, periodName)
			return evals, true, err
		})
}

// Timetable fetches the lessons of one epoch week.
func (d *Dispatcher) Timetable(ctx context.Context, acct *account.Account, week int) ([]record.Lesson, error) {
	return fetch(d, ctx, acct, account.FeatureTimetable,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.Lesson, bool, error) {
			provider, ok := adapter.(record.TimetableProvider)
			if !ok {
				return nil, false, nil
			}
			lessons, err := provider.Timetable(ctx, target, week)
			return lessons, true, err
		})
}

// Homework fetches the homework due during one epoch week.
func (d *Dispatcher) Homework(ctx context.Context, acct *account.Account, week int) ([]record.Homework, error) {
	return fetch(d, ctx, acct, account.FeatureHomework,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.Homework, bool, error) {
			provider, ok := adapter.(record.HomeworkProvider)
			if !ok {
				return nil, false, nil
			}
			homework, err := provider.Homework(ctx, target, week)
			return homework, true, err
		})
}

// Chats lists the discussion threads.
func (d *Dispatcher) Chats(ctx context.Context, acct *account.Account) ([]record.ChatThread, error) {
	return fetch(d, ctx, acct, account.FeatureChats,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.ChatThread, bool, error) {
			provider, ok := adapter.(record.ChatsProvider)
			if !ok {
				return nil, false, nil
			}
			threads, err := provider.Chats(ctx, target)
			return threads, true, err
		})
}

// ChatMessages fetches the messages of one thread.
func (d *Dispatcher) ChatMessages(ctx context.Context, acct *account.Account, threadID string) ([]record.ChatMessage, error) {
	return fetch(d, ctx, acct, account.FeatureChats,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.ChatMessage, bool, error) {
			provider, ok := adapter.(record.ChatsProvider)
			if !ok {
				return nil, false, nil
			}
			messages, err := provider.ChatMessages(ctx, target, threadID)
			return messages, true, err
		})
}

// SendChatMessage posts a message. User-initiated, so every error surfaces.
func (d *Dispatcher) SendChatMessage(ctx context.Context, acct *account.Account, threadID, content string) error {
	target, err := d.resolve(ctx, acct, account.FeatureChats)
	if err != nil {
		return err
	}
	if target == nil {
		return shared.ErrUnsupportedFeature
	}
	adapter, ok := d.adapterFor(target)
	if !ok {
		return shared.ErrUnknownService
	}
	provider, ok := adapter.(record.ChatsProvider)
	if !ok {
		return shared.ErrUnsupportedFeature
	}
	return provider.SendChatMessage(ctx, target, threadID, content)
}

// Balance fetches the canteen-payment balances.
func (d *Dispatcher) Balance(ctx context.Context, acct *account.Account) ([]record.Balance, error) {
	return fetch(d, ctx, acct, account.FeatureBalance,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.Balance, bool, error) {
			provider, ok := adapter.(record.BalanceProvider)
			if !ok {
				return nil, false, nil
			}
			balances, err := provider.Balance(ctx, target)
			return balances, true, err
		})
}

// Bookings fetches the meal bookings of one epoch week.
func (d *Dispatcher) Bookings(ctx context.Context, acct *account.Account, week int) ([]record.BookingDay, error) {
	return fetch(d, ctx, acct, account.FeatureBookings,
		func(ctx context.Context, adapter any, target *account.Account) ([]record.BookingDay, bool, error) {
			provider, ok := adapter.(record.BookingsProvider)
			if !ok {
				return nil, false, nil
			}
			days, err := provider.Bookings(ctx, target, week)
			return days, true, err
		})
}

// SetBooking books or cancels one meal. User-initiated, so every error
// surfaces.
func (d *Dispatcher) SetBooking(ctx context.Context, acct *account.Account, bookingID string, booked bool) (record.BookingDay, error) {
	target, err := d.resolve(ctx, acct, account.FeatureBookings)
	if err != nil {
		return record.BookingDay{}, err
	}
	if target == nil {
		return record.BookingDay{}, shared.ErrUnsupportedFeature
	}
	adapter, ok := d.adapterFor(target)
	if !ok {
		return record.BookingDay{}, shared.ErrUnknownService
	}
	provider, ok := adapter.(record.BookingsProvider)
	if !ok {
		return record.BookingDay{}, shared.ErrUnsupportedFeature
	}
	return provider.SetBooking(ctx, target, bookingID, booked)
}
