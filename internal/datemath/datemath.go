// Package datemath computes ages and the time left until the next anniversary.
package datemath

import "time"

// Remaining returns the time from today to the next anniversary of birth,
// expressed in 30-day months and leftover days. An anniversary falling on
// today yields (0, 0).
func Remaining(birth, today time.Time) (months, days int) {
	ty, tm, td := today.Date()
	_, bm, bd := birth.Date()

	year := ty
	if tm > bm || (tm == bm && td > bd) {
		year++
	}

	from := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	next := time.Date(year, bm, bd, 0, 0, 0, 0, time.UTC)
	diff := int(next.Sub(from).Hours() / 24)
	return diff / 30, diff % 30
}

// Age returns the number of completed years between birth and today.
func Age(birth, today time.Time) int {
	ty, tm, td := today.Date()
	by, bm, bd := birth.Date()

	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}
