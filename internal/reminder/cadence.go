package reminder

import (
	"fmt"
	"sort"
	"time"

	"github.com/MatMasIt/birthdaybot/internal/datemath"
	"github.com/MatMasIt/birthdaybot/internal/domain"
)

// SelectCadence picks the one cadence applied to u today. Monthly wins on the
// first of the month, weekly on Mondays, daily otherwise. Unless strictDaily
// is set the daily fallback does not look at the user's daily flag; ok is
// false only when strictDaily excludes the user.
func SelectCadence(u domain.User, today time.Time, strictDaily bool) (c domain.Cadence, ok bool) {
	switch {
	case today.Day() == 1 && u.Enabled(domain.CadenceMonthly):
		return domain.CadenceMonthly, true
	case today.Weekday() == time.Monday && u.Enabled(domain.CadenceWeekly):
		return domain.CadenceWeekly, true
	case strictDaily && !u.Enabled(domain.CadenceDaily):
		return domain.CadenceDaily, false
	default:
		return domain.CadenceDaily, true
	}
}

// Candidates filters the records due under c and orders them by the
// month + day/100 key.
func Candidates(c domain.Cadence, list []domain.Birthday, today time.Time) []domain.Birthday {
	_, month, day := today.Date()

	out := make([]domain.Birthday, 0, len(list))
	for _, b := range list {
		_, bm, bd := b.Birth.Date()
		if bm != month {
			continue
		}
		switch c {
		case domain.CadenceMonthly:
			out = append(out, b)
		case domain.CadenceWeekly:
			// The window does not spill into the next month.
			if day <= bd && bd < day+7 {
				out = append(out, b)
			}
		case domain.CadenceDaily:
			if bd == day {
				out = append(out, b)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return sortKey(out[i]) < sortKey(out[j]) })
	return out
}

func sortKey(b domain.Birthday) float64 {
	_, m, d := b.Birth.Date()
	return float64(m) + float64(d)/100
}

// Line formats one notification line.
func Line(b domain.Birthday, today time.Time) string {
	y, m, d := b.Birth.Date()
	return fmt.Sprintf("%s %s - %d/%d/%d, %d years", b.FirstName, b.LastName, d, int(m), y, datemath.Age(b.Birth, today))
}

// Header is the Markdown title sent before the lines of a cadence.
func Header(c domain.Cadence) string {
	switch c {
	case domain.CadenceMonthly:
		return "*Birthdays in this month*"
	case domain.CadenceWeekly:
		return "*Birthdays in this week*"
	default:
		return "*Birthdays today*"
	}
}
