package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a user or birthday does not exist.
var ErrNotFound = errors.New("not found")

type User struct {
	ID           int64 // Telegram user id
	Username     *string
	FirstName    string
	LastName     *string
	LanguageCode *string
	LastSeen     time.Time

	Daily   bool
	Weekly  bool
	Monthly bool
}

// Identity is what the transport knows about the sender of an event.
type Identity struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

type Birthday struct {
	ID            int64
	UserID        int64
	FirstName     string
	LastName      string
	Birth         time.Time // date-only semantics
	IsAnniversary bool
}

type Cadence int

const (
	CadenceDaily Cadence = iota
	CadenceWeekly
	CadenceMonthly
)

func (c Cadence) String() string {
	switch c {
	case CadenceDaily:
		return "daily"
	case CadenceWeekly:
		return "weekly"
	case CadenceMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// Enabled reports whether the user opted into cadence c.
func (u User) Enabled(c Cadence) bool {
	switch c {
	case CadenceDaily:
		return u.Daily
	case CadenceWeekly:
		return u.Weekly
	case CadenceMonthly:
		return u.Monthly
	}
	return false
}

type Field int

const (
	FieldBirth Field = iota
	FieldFirstName
	FieldLastName
)

func (f Field) String() string {
	switch f {
	case FieldBirth:
		return "birth"
	case FieldFirstName:
		return "first_name"
	case FieldLastName:
		return "last_name"
	default:
		return "unknown"
	}
}

// FieldUpdate changes one field of a birthday. Date is used for FieldBirth,
// Text for the name fields.
type FieldUpdate struct {
	Field Field
	Text  string
	Date  time.Time
}

// DateOnly strips the clock from t, keeping its location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
