package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/quickmsg/pkg/reminder"
)

func TestReminderIn(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	o := ReminderOptions{Title: " Call back ", In: "90", Recurrence: "Weekly", Priority: "HIGH"}

	r, err := o.Reminder(now)
	require.NoError(t, err)
	assert.Equal(t, "Call back", r.Title)
	assert.Equal(t, now.Add(90*time.Minute), r.DateTime)
	assert.Equal(t, reminder.RecurWeekly, r.Recurrence)
	assert.Equal(t, reminder.PriorityHigh, r.Priority)
}

func TestReminderAt(t *testing.T) {
	o := ReminderOptions{Title: "Standup", At: "2024-03-04 09:30"}

	r, err := o.Reminder(time.Now())
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 4, 9, 30, 0, 0, time.Local).Equal(r.DateTime), r.DateTime.String())
	assert.Equal(t, reminder.RecurNone, r.Recurrence)
	assert.Equal(t, reminder.PriorityMedium, r.Priority)
}

func TestReminderDueErrors(t *testing.T) {
	for name, o := range map[string]ReminderOptions{
		"neither":    {Title: "x"},
		"both":       {Title: "x", At: "2024-03-04 09:30", In: "5m"},
		"bad at":     {Title: "x", At: "tomorrow"},
		"bad in":     {Title: "x", In: "soon"},
		"bad repeat": {Title: "x", In: "5m", Recurrence: "hourly"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := o.Reminder(time.Now())
			assert.Error(t, err)
		})
	}
}
