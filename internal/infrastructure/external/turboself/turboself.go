// Package turboself implements the Turboself backend adapter for canteen
// payments and meal bookings. Amounts arrive in euro cents and stay in cents
// through the canonical records.
package turboself

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/record"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/logger"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

type loginDTO struct {
	Token  string `json:"token"`
	HostID int64  `json:"hostId"`
}

type walletDTO struct {
	Label       string `json:"label"`
	AmountCents int64  `json:"amount"`
	PriceCents  int64  `json:"mealPrice"`
	UpdatedAt   string `json:"updatedAt"`
}

type bookingDayDTO struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Booked   bool   `json:"booked"`
	CanBook  bool   `json:"canBook"`
	MealName string `json:"mealName"`
}

type bookingWeekDTO struct {
	Days []bookingDayDTO `json:"days"`
}

// Session is the live Turboself session handle.
type Session struct {
	Token  string
	HostID int64
}

// Adapter is the Turboself backend adapter.
type Adapter struct {
	client *transport.Client
	box    *sealbox.Box
	log    *logger.Logger
}

// New creates the Turboself adapter.
func New(client *transport.Client, box *sealbox.Box, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Default()
	}
	return &Adapter{
		client: client,
		box:    box,
		log:    log.With(logger.Service(string(account.ServiceTurboself))),
	}
}

func (a *Adapter) session(acct *account.Account) (*Session, error) {
	sess, ok := acct.Session.(*Session)
	if !ok || sess == nil || sess.Token == "" {
		return nil, shared.ErrUnauthenticated
	}
	return sess, nil
}

func (a *Adapter) authed(sess *Session) map[string]string {
	return map[string]string{"Authorization": "Bearer " + sess.Token}
}

func (a *Adapter) hostPath(sess *Session, suffix string) string {
	return "/v1/hosts/" + strconv.FormatInt(sess.HostID, 10) + suffix
}

// Login authenticates and keeps the host identity the canteen endpoints are
// scoped by.
func (a *Adapter) Login(ctx context.Context, acct *account.Account) error {
	password, err := a.box.Open(acct.Credentials.Secret)
	if err != nil {
		return shared.WrapError("turboself", "Login", shared.ErrValidation, "unseal credentials", err)
	}

	var resp loginDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/v1/auth/login",
		Body: map[string]string{
			"username": acct.Credentials.Username,
			"password": string(password),
		},
	}, &resp)
	if err != nil {
		return fmt.Errorf("turboself login: %w", err)
	}

	acct.Session = &Session{Token: resp.Token, HostID: resp.HostID}
	a.log.Info("session established", logger.AccountID(acct.ID.String()))
	return nil
}

func balanceFromWallet(w walletDTO) record.Balance {
	remaining := -1
	if w.PriceCents > 0 {
		remaining = int(w.AmountCents / w.PriceCents)
	}
	updated := int64(0)
	if t, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
		updated = t.UnixMilli()
	}
	return record.Balance{
		Amount:         w.AmountCents,
		MealPrice:      w.PriceCents,
		RemainingMeals: remaining,
		Currency:       "EUR",
		Label:          w.Label,
		UpdatedAt:      updated,
	}
}

// Balance fetches one Balance per wallet the host owns.
func (a *Adapter) Balance(ctx context.Context, acct *account.Account) ([]record.Balance, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var wallets []walletDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    a.hostPath(sess, "/wallets"),
		Headers: a.authed(sess),
	}, &wallets)
	if err != nil {
		return nil, fmt.Errorf("turboself balance: %w", err)
	}

	balances := make([]record.Balance, 0, len(wallets))
	for _, w := range wallets {
		balances = append(balances, balanceFromWallet(w))
	}
	return balances, nil
}

func bookingFromDTO(dto bookingDayDTO) record.BookingDay {
	date := int64(0)
	if t, err := time.Parse("2006-01-02", dto.Date); err == nil {
		date = t.UnixMilli()
	}
	return record.BookingDay{
		ID:      dto.ID,
		Date:    date,
		Booked:  dto.Booked,
		CanBook: dto.CanBook,
		Meal:    dto.MealName,
	}
}

// Bookings fetches the meal bookings of one epoch week.
func (a *Adapter) Bookings(ctx context.Context, acct *account.Account, week int) ([]record.BookingDay, error) {
	sess, err := a.session(acct)
	if err != nil {
		return nil, err
	}

	var resp bookingWeekDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodGet,
		Path:    a.hostPath(sess, "/bookings"),
		Query:   map[string]string{"week": strconv.Itoa(week)},
		Headers: a.authed(sess),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("turboself bookings: %w", err)
	}

	days := make([]record.BookingDay, 0, len(resp.Days))
	for _, dto := range resp.Days {
		days = append(days, bookingFromDTO(dto))
	}
	return days, nil
}

// SetBooking books or cancels one meal. User-initiated: a dead session is an
// error, never a silent no-op.
func (a *Adapter) SetBooking(ctx context.Context, acct *account.Account, bookingID string, booked bool) (record.BookingDay, error) {
	sess, err := a.session(acct)
	if err != nil {
		return record.BookingDay{}, err
	}

	var resp bookingDayDTO
	err = a.client.DoJSON(ctx, transport.Request{
		Method:  http.MethodPut,
		Path:    a.hostPath(sess, "/bookings/"+bookingID),
		Headers: a.authed(sess),
		Body:    map[string]bool{"booked": booked},
	}, &resp)
	if err != nil {
		return record.BookingDay{}, fmt.Errorf("turboself set booking: %w", err)
	}
	return bookingFromDTO(resp), nil
}
