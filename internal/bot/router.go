package bot

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MatMasIt/birthdaybot/internal/conversation"
)

var reView = regexp.MustCompile(`^` + regexp.QuoteMeta(conversation.ViewCommand) + `(\d+)$`)

var labelIntents = map[string]conversation.Intent{
	conversation.LabelCancel:        conversation.IntentCancel,
	conversation.LabelHome:          conversation.IntentHome,
	conversation.LabelAddBirthday:   conversation.IntentAddBirthday,
	conversation.LabelListBirthdays: conversation.IntentListBirthdays,
	conversation.LabelEdit:          conversation.IntentEdit,
	conversation.LabelEditDate:      conversation.IntentEditDate,
	conversation.LabelEditFirstName: conversation.IntentEditFirstName,
	conversation.LabelEditLastName:  conversation.IntentEditLastName,
	conversation.LabelDelete:        conversation.IntentDelete,
	conversation.LabelDeleteConfirm: conversation.IntentDeleteConfirm,
	conversation.LabelReminders:     conversation.IntentReminders,
	conversation.LabelAbout:         conversation.IntentAbout,
	"/cancel":                       conversation.IntentCancel,
}

// ParseEvent turns the text of an inbound message into an event. Unknown
// text becomes IntentText.
func ParseEvent(text string) conversation.Event {
	ev := conversation.Event{Intent: conversation.IntentText, Text: text}
	t := strings.TrimSpace(text)

	if fields := strings.Fields(t); len(fields) > 0 && fields[0] == "/start" {
		ev.Intent = conversation.IntentStart
		return ev
	}
	if intent, ok := labelIntents[t]; ok {
		ev.Intent = intent
		return ev
	}
	if m := reView.FindStringSubmatch(t); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			ev.Intent = conversation.IntentView
			ev.BirthdayID = id
		}
		return ev
	}
	if c, shown, ok := conversation.ParseCadenceLabel(t); ok {
		ev.Intent = conversation.IntentToggleCadence
		ev.Cadence = c
		ev.Enable = !shown
	}
	return ev
}
