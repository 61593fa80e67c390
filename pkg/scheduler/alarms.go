package scheduler

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/quickmsg/pkg/store"
)

// AlarmsKey holds the alarm table: reminder id to alarm time in unix
// milliseconds.
const AlarmsKey = "scheduledAlarms"

type alarmTable map[string]int64

// Alarm is one pending entry of the alarm table.
type Alarm struct {
	ReminderID string    `json:"reminderId"`
	At         time.Time `json:"at"`
}

func loadAlarms(ctx context.Context, b store.Bucket) (alarmTable, error) {
	t := make(alarmTable)
	if _, err := store.GetJSON(ctx, b, AlarmsKey, &t); err != nil {
		return nil, err
	}
	return t, nil
}

func saveAlarms(ctx context.Context, b store.Bucket, t alarmTable) error {
	return store.SetJSON(ctx, b, AlarmsKey, t)
}

// due splits off the entries at or before now.
func (t alarmTable) due(now time.Time) []string {
	cutoff := now.UnixMilli()
	var ids []string
	for id, at := range t {
		if at <= cutoff {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// next returns the earliest alarm time.
func (t alarmTable) next() (time.Time, bool) {
	var (
		earliest int64
		found    bool
	)
	for _, at := range t {
		if !found || at < earliest {
			earliest, found = at, true
		}
	}
	if !found {
		return time.Time{}, false
	}
	return time.UnixMilli(earliest), true
}

func (t alarmTable) list() []Alarm {
	out := make([]Alarm, 0, len(t))
	for id, at := range t {
		out = append(out, Alarm{ReminderID: id, At: time.UnixMilli(at)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ReminderID < out[j].ReminderID
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}
