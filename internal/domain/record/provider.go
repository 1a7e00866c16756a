package record

import (
	"context"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
)

// Provider interfaces define the contract between the dispatch layer and the
// backend adapters. Every adapter implements the subset matching what its
// backend can serve; the dispatcher discovers capabilities by type assertion
// and resolves the rest to empty canonical results.
//
// Fetch operations soft-fail: an adapter that cannot produce data for a
// benign reason returns an empty list, not an error. User-initiated
// mutations (SendChatMessage, SetBooking) are the exception and return
// shared.ErrUnauthenticated on a dead session.

// Authenticator establishes a live backend session on the account from its
// stored credentials.
type Authenticator interface {
	Login(ctx context.Context, acct *account.Account) error
}

// PeriodsProvider lists the grading periods of an account and designates the
// default one.
type PeriodsProvider interface {
	Periods(ctx context.Context, acct *account.Account) (PeriodList, error)
}

// GradesProvider fetches the canonical grades of one period.
type GradesProvider interface {
	Grades(ctx context.Context, acct *account.Account, periodName string) ([]Grade, error)
}

// AttendanceProvider fetches the attendance events of one period.
type AttendanceProvider interface {
	Attendance(ctx context.Context, acct *account.Account, periodName string) ([]AttendanceEvent, error)
}

// EvaluationsProvider fetches the competence evaluations of one period.
type EvaluationsProvider interface {
	Evaluations(ctx context.Context, acct *account.Account, periodName string) ([]Evaluation, error)
}

// TimetableProvider fetches the lessons of one epoch week.
type TimetableProvider interface {
	Timetable(ctx context.Context, acct *account.Account, week int) ([]Lesson, error)
}

// HomeworkProvider fetches the homework due during one epoch week.
type HomeworkProvider interface {
	Homework(ctx context.Context, acct *account.Account, week int) ([]Homework, error)
}

// ChatsProvider serves discussion threads. SendChatMessage is user-initiated
// and requires a live session.
type ChatsProvider interface {
	Chats(ctx context.Context, acct *account.Account) ([]ChatThread, error)
	ChatMessages(ctx context.Context, acct *account.Account, threadID string) ([]ChatMessage, error)
	SendChatMessage(ctx context.Context, acct *account.Account, threadID, content string) error
}

// BalanceProvider fetches canteen-payment balances; providers with several
// wallets return one Balance per wallet.
type BalanceProvider interface {
	Balance(ctx context.Context, acct *account.Account) ([]Balance, error)
}

// BookingsProvider serves meal bookings. SetBooking is user-initiated and
// requires a live session.
type BookingsProvider interface {
	Bookings(ctx context.Context, acct *account.Account, week int) ([]BookingDay, error)
	SetBooking(ctx context.Context, acct *account.Account, bookingID string, booked bool) (BookingDay, error)
}
