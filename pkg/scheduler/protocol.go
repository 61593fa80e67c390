// Package scheduler raises reminder alarms. It owns a durable alarm table
// in the store, so pending alarms survive restarts, and accepts requests to
// set or clear alarms in-process, directly or over HTTP.
package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// RequestType names a scheduler operation.
type RequestType string

const (
	SetAlarm   RequestType = "SET_ALARM"
	ClearAlarm RequestType = "CLEAR_ALARM"
)

// Request asks the scheduler to set or clear the alarm for a reminder.
// AlarmTime is in unix milliseconds and only used by SET_ALARM.
type Request struct {
	Type       RequestType `json:"type"`
	ReminderID string      `json:"reminderId"`
	AlarmTime  int64       `json:"alarmTime,omitempty"`
}

// Response reports the outcome of a Request.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

var ErrInvalidRequest = errors.New("scheduler: invalid request")

// NewSetAlarm builds a SET_ALARM request.
func NewSetAlarm(id string, at time.Time) Request {
	return Request{Type: SetAlarm, ReminderID: id, AlarmTime: at.UnixMilli()}
}

// NewClearAlarm builds a CLEAR_ALARM request.
func NewClearAlarm(id string) Request {
	return Request{Type: ClearAlarm, ReminderID: id}
}

// Validate checks the request is well formed.
func (r Request) Validate() error {
	if r.ReminderID == "" {
		return fmt.Errorf("%w: reminderId is required", ErrInvalidRequest)
	}
	switch r.Type {
	case SetAlarm:
		if r.AlarmTime <= 0 {
			return fmt.Errorf("%w: alarmTime is required", ErrInvalidRequest)
		}
	case ClearAlarm:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, r.Type)
	}
	return nil
}

func succeeded() Response { return Response{Success: true} }

func failed(err error) Response { return Response{Error: err.Error()} }
