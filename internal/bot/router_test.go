package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MatMasIt/birthdaybot/internal/conversation"
	"github.com/MatMasIt/birthdaybot/internal/domain"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		text string
		want conversation.Event
	}{
		{"/start", conversation.Event{Intent: conversation.IntentStart}},
		{"/start deep-link", conversation.Event{Intent: conversation.IntentStart}},
		{"/cancel", conversation.Event{Intent: conversation.IntentCancel}},
		{conversation.LabelCancel, conversation.Event{Intent: conversation.IntentCancel}},
		{conversation.LabelHome, conversation.Event{Intent: conversation.IntentHome}},
		{conversation.LabelAddBirthday, conversation.Event{Intent: conversation.IntentAddBirthday}},
		{conversation.LabelListBirthdays, conversation.Event{Intent: conversation.IntentListBirthdays}},
		{conversation.LabelDeleteConfirm, conversation.Event{Intent: conversation.IntentDeleteConfirm}},
		{conversation.LabelEditDate, conversation.Event{Intent: conversation.IntentEditDate}},
		{"/view_bd_42", conversation.Event{Intent: conversation.IntentView, BirthdayID: 42}},
		{"/view_bd_", conversation.Event{Intent: conversation.IntentText}},
		{"/view_bd_4x", conversation.Event{Intent: conversation.IntentText}},
		{"Alice", conversation.Event{Intent: conversation.IntentText}},
		{
			conversation.CadenceLabel(domain.CadenceWeekly, true),
			conversation.Event{Intent: conversation.IntentToggleCadence, Cadence: domain.CadenceWeekly, Enable: false},
		},
		{
			conversation.CadenceLabel(domain.CadenceMonthly, false),
			conversation.Event{Intent: conversation.IntentToggleCadence, Cadence: domain.CadenceMonthly, Enable: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseEvent(tt.text)
			tt.want.Text = tt.text
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEvent_KeepsRawText(t *testing.T) {
	got := ParseEvent("  Bob  ")
	assert.Equal(t, conversation.IntentText, got.Intent)
	assert.Equal(t, "  Bob  ", got.Text)
}
