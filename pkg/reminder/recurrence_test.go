package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextOccurrence(t *testing.T) {
	tests := map[string]struct {
		from string
		rec  Recurrence
		want string
	}{
		"daily across month end":   {"2024-01-31T10:00", RecurDaily, "2024-02-01T10:00"},
		"weekly":                   {"2024-02-26T08:30", RecurWeekly, "2024-03-04T08:30"},
		"monthly":                  {"2024-01-15T09:00", RecurMonthly, "2024-02-15T09:00"},
		"monthly clamps leap year": {"2024-01-31T09:00", RecurMonthly, "2024-02-29T09:00"},
		"monthly clamps":           {"2023-01-31T09:00", RecurMonthly, "2023-02-28T09:00"},
		"monthly 30 day month":     {"2024-03-31T09:00", RecurMonthly, "2024-04-30T09:00"},
		"monthly year end":         {"2024-12-31T09:00", RecurMonthly, "2025-01-31T09:00"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := NextOccurrence(date(tc.from), tc.rec)
			assert.True(t, ok)
			assert.Equal(t, date(tc.want), got)
		})
	}

	_, ok := NextOccurrence(date("2024-01-31T10:00"), RecurNone)
	assert.False(t, ok)
}

func TestMonthlyAdvancesFromClampedDate(t *testing.T) {
	got := date("2024-01-31T09:00")
	var seen []time.Time
	for i := 0; i < 3; i++ {
		var ok bool
		got, ok = NextOccurrence(got, RecurMonthly)
		assert.True(t, ok)
		seen = append(seen, got)
	}
	assert.Equal(t, []time.Time{
		date("2024-02-29T09:00"),
		date("2024-03-29T09:00"),
		date("2024-04-29T09:00"),
	}, seen)

	next, ok := nextAfter(date("2024-01-31T09:00"), RecurMonthly, date("2024-03-01T00:00"))
	assert.True(t, ok)
	assert.Equal(t, date("2024-03-29T09:00"), next)
}

func TestNextAfterSkipsPastOccurrences(t *testing.T) {
	got, ok := nextAfter(date("2024-01-01T10:00"), RecurDaily, date("2024-01-05T12:00"))
	assert.True(t, ok)
	assert.Equal(t, date("2024-01-06T10:00"), got)
}

func TestParse(t *testing.T) {
	r, err := ParseRecurrence(" Weekly ")
	assert.NoError(t, err)
	assert.Equal(t, RecurWeekly, r)
	_, err = ParseRecurrence("hourly")
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	p, err := ParsePriority("")
	assert.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)
	_, err = ParsePriority("urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}
