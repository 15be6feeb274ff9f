package conversation

import "github.com/MatMasIt/birthdaybot/internal/domain"

// Intent is what an inbound message asks for.
type Intent int

const (
	IntentText Intent = iota
	IntentStart
	IntentHome
	IntentCancel
	IntentAddBirthday
	IntentListBirthdays
	IntentView
	IntentEdit
	IntentEditDate
	IntentEditFirstName
	IntentEditLastName
	IntentDelete
	IntentDeleteConfirm
	IntentReminders
	IntentToggleCadence
	IntentAbout
)

// Event is one inbound message after routing. Text always carries the raw
// message so a flow waiting for input can consume it whatever the intent.
type Event struct {
	Intent Intent
	Text   string

	BirthdayID int64          // IntentView
	Cadence    domain.Cadence // IntentToggleCadence
	Enable     bool           // IntentToggleCadence
}

// Reply is one outbound message. A nil Keyboard leaves the client's
// keyboard untouched.
type Reply struct {
	Text        string
	Markdown    bool
	Keyboard    [][]string
	OneTime     bool
	Placeholder string
}
