package datemath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		today time.Time
		want  int
	}{
		{"before anniversary", date(1990, time.June, 15), date(2024, time.June, 14), 33},
		{"on anniversary", date(1990, time.June, 15), date(2024, time.June, 15), 34},
		{"after anniversary", date(1990, time.June, 15), date(2024, time.December, 1), 34},
		{"born today", date(2024, time.March, 3), date(2024, time.March, 3), 0},
		{"leap day in non-leap year", date(2000, time.February, 29), date(2023, time.February, 28), 22},
		{"leap day after march first", date(2000, time.February, 29), date(2023, time.March, 1), 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(tt.birth, tt.today))
		})
	}
}

func TestAgeNeverNegativeForPastBirths(t *testing.T) {
	birth := date(2020, time.January, 1)
	for d := birth; d.Before(date(2023, time.January, 1)); d = d.AddDate(0, 0, 1) {
		assert.GreaterOrEqual(t, Age(birth, d), 0, d.Format("2006-01-02"))
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name       string
		birth      time.Time
		today      time.Time
		wantMonths int
		wantDays   int
	}{
		{"today", date(1990, time.June, 15), date(2024, time.June, 15), 0, 0},
		{"tomorrow", date(1990, time.June, 16), date(2024, time.June, 15), 0, 1},
		{"yesterday wraps to next year", date(1990, time.June, 14), date(2023, time.June, 15), 12, 5},
		{"thirty days is one month", date(1990, time.July, 15), date(2024, time.June, 15), 1, 0},
		{"crosses year end", date(1985, time.January, 10), date(2024, time.December, 20), 0, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			months, days := Remaining(tt.birth, tt.today)
			assert.Equal(t, tt.wantMonths, months)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestRemainingBounds(t *testing.T) {
	today := date(2024, time.February, 29)
	for b := date(1999, time.January, 1); b.Year() == 1999; b = b.AddDate(0, 0, 1) {
		months, days := Remaining(b, today)
		assert.GreaterOrEqual(t, months, 0)
		assert.GreaterOrEqual(t, days, 0)
		assert.Less(t, days, 30)
	}
}

func TestRemainingIgnoresClock(t *testing.T) {
	birth := date(1990, time.June, 16)
	late := time.Date(2024, time.June, 15, 23, 59, 0, 0, time.UTC)
	months, days := Remaining(birth, late)
	assert.Equal(t, 0, months)
	assert.Equal(t, 1, days)
}
