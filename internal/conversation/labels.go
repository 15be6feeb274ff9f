package conversation

import "github.com/MatMasIt/birthdaybot/internal/domain"

// Keyboard button labels. The router maps them back to intents.
const (
	LabelAddBirthday   = "🎂➕ Add Birthday"
	LabelListBirthdays = "🎂📒 List Birthdays"
	LabelReminders     = "🔔 Set reminders"
	LabelAbout         = "ℹ️ About"
	LabelCancel        = "❌ Cancel"
	LabelHome          = "🏠 Home"
	LabelDelete        = "🗑️ Delete"
	LabelEdit          = "📝 Edit"
	LabelDeleteConfirm = "✅ Yes, delete"
	LabelEditDate      = "📅 Date of birth"
	LabelEditFirstName = "👤 First name"
	LabelEditLastName  = "👤 Last name"

	markOn  = "✅"
	markOff = "❌"
)

// CadenceName is the button wording of a cadence.
func CadenceName(c domain.Cadence) string {
	switch c {
	case domain.CadenceDaily:
		return "Daily"
	case domain.CadenceWeekly:
		return "Weekly"
	case domain.CadenceMonthly:
		return "Monthly"
	default:
		return ""
	}
}

// CadenceLabel renders a reminder toggle showing its current state.
func CadenceLabel(c domain.Cadence, enabled bool) string {
	mark := markOff
	if enabled {
		mark = markOn
	}
	return mark + " " + CadenceName(c)
}

// ParseCadenceLabel is the inverse of CadenceLabel. It reports the state the
// toggle showed, so tapping it asks for the opposite.
func ParseCadenceLabel(label string) (domain.Cadence, bool, bool) {
	for _, c := range []domain.Cadence{domain.CadenceWeekly, domain.CadenceMonthly, domain.CadenceDaily} {
		switch label {
		case CadenceLabel(c, true):
			return c, true, true
		case CadenceLabel(c, false):
			return c, false, true
		}
	}
	return 0, false, false
}

var (
	cancelKeyboard = [][]string{{LabelCancel}}
	homeKeyboard   = [][]string{{LabelHome}}
	recordKeyboard = [][]string{{LabelHome, LabelDelete, LabelEdit}}
	editKeyboard   = [][]string{
		{LabelEditDate},
		{LabelEditFirstName, LabelEditLastName},
		{LabelHome},
	}
	deleteKeyboard = [][]string{{LabelDeleteConfirm}, {LabelHome}}
)

func mainKeyboard(hasBirthdays bool) [][]string {
	first := []string{LabelAddBirthday}
	if hasBirthdays {
		first = append(first, LabelListBirthdays)
	}
	return [][]string{first, {LabelReminders}, {LabelAbout}}
}

func remindersKeyboard(u domain.User) [][]string {
	rows := make([][]string, 0, 4)
	for _, c := range []domain.Cadence{domain.CadenceWeekly, domain.CadenceMonthly, domain.CadenceDaily} {
		rows = append(rows, []string{CadenceLabel(c, u.Enabled(c))})
	}
	return append(rows, []string{LabelHome})
}
