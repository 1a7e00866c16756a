package turboself

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

func newAdapter(t *testing.T, baseURL string) (*Adapter, *account.Account) {
	t.Helper()
	box, err := sealbox.New([]byte("device-secret"))
	require.NoError(t, err)
	acct, err := account.New(account.ServiceTurboself, "Eleve Test", account.Credentials{Username: "eleve"})
	require.NoError(t, err)
	return New(transport.NewClient(transport.DefaultConfig("turboself", baseURL)), box, nil), acct
}

func TestBalanceComputesRemainingMeals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/hosts/77/wallets", r.URL.Path)
		w.Write([]byte(`[
			{"label": "Self", "amount": 2350, "mealPrice": 385, "updatedAt": "2025-01-14T12:00:00Z"},
			{"label": "Cafétéria", "amount": 500}
		]`))
	}))
	defer srv.Close()

	adapter, acct := newAdapter(t, srv.URL)
	acct.Session = &Session{Token: "tok", HostID: 77}

	balances, err := adapter.Balance(context.Background(), acct)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	assert.Equal(t, int64(2350), balances[0].Amount)
	assert.Equal(t, 6, balances[0].RemainingMeals)
	assert.Equal(t, "EUR", balances[0].Currency)

	// no meal price reported
	assert.Equal(t, -1, balances[1].RemainingMeals)
}

func TestBookingsWeekFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/hosts/77/bookings", r.URL.Path)
		require.Equal(t, "2900", r.URL.Query().Get("week"))
		w.Write([]byte(`{"days": [
			{"id": "b-1", "date": "2025-07-28", "booked": true, "canBook": true, "mealName": "Déjeuner"},
			{"id": "b-2", "date": "2025-07-29", "booked": false, "canBook": false}
		]}`))
	}))
	defer srv.Close()

	adapter, acct := newAdapter(t, srv.URL)
	acct.Session = &Session{Token: "tok", HostID: 77}

	days, err := adapter.Bookings(context.Background(), acct, 2900)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.True(t, days[0].Booked)
	assert.False(t, days[1].CanBook)
	assert.NotZero(t, days[0].Date)
}

func TestSetBookingRequiresSession(t *testing.T) {
	adapter, acct := newAdapter(t, "http://unused")
	_, err := adapter.SetBooking(context.Background(), acct, "b-1", true)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestSetBookingRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/hosts/77/bookings/b-1", r.URL.Path)
		w.Write([]byte(`{"id": "b-1", "date": "2025-07-28", "booked": true, "canBook": true}`))
	}))
	defer srv.Close()

	adapter, acct := newAdapter(t, srv.URL)
	acct.Session = &Session{Token: "tok", HostID: 77}

	day, err := adapter.SetBooking(context.Background(), acct, "b-1", true)
	require.NoError(t, err)
	assert.True(t, day.Booked)
}
