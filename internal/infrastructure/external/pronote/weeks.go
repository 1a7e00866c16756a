package pronote

import (
	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/pkg/epoch"
)

// InstanceWeekNumber translates an epoch week number into the instance's own
// week index, anchored on the first Monday the instance reported at login.
// Pronote weeks start at 1; an unresolvable anchor or an out-of-range result
// falls back to week 1 so a fetch never fails on week arithmetic alone.
func InstanceWeekNumber(acct *account.Account, ewn int) int {
	sess, ok := acct.Session.(*Session)
	if !ok || sess == nil || sess.FirstMonday.IsZero() {
		return 1
	}

	anchor := epoch.ToWeekNumber(sess.FirstMonday)
	n := ewn - anchor + 1
	if n < 1 {
		return 1
	}
	return n
}
