package record

import (
	"time"
)

// Balance is the canonical canteen-payment account state.
type Balance struct {
	// Amount is the current balance in cents to avoid float drift on
	// money.
	Amount int64 `json:"amount"`

	// MealPrice is the unit price of one meal in cents, when the provider
	// reports it.
	MealPrice int64 `json:"meal_price,omitempty"`

	// RemainingMeals is Amount divided by MealPrice, floored; -1 when the
	// provider reports no meal price.
	RemainingMeals int `json:"remaining_meals"`

	Currency  string `json:"currency"`
	Label     string `json:"label,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// BookingDay is the canonical meal-booking state for one day, cached per
// epoch week number.
type BookingDay struct {
	ID     string `json:"id"`
	Date   int64  `json:"date"`
	Booked bool   `json:"booked"`

	// CanBook is false once the provider's booking deadline has passed.
	CanBook bool `json:"can_book"`

	Meal string `json:"meal,omitempty"`
}

// Day returns the booking date as a time.Time.
func (b BookingDay) Day() time.Time {
	return time.UnixMilli(b.Date)
}
