package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tableflip.dev/quickmsg/pkg/reminder"
)

// DefaultRequestTimeout bounds a single scheduler round trip.
const DefaultRequestTimeout = 5 * time.Second

func result(resp Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", reminder.ErrSchedulerUnavailable, err)
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", reminder.ErrSchedulerUnavailable, resp.Error)
	}
	return nil
}

// Client talks to a Scheduler whose Run loop is active in this process.
type Client struct {
	s       *Scheduler
	timeout time.Duration
}

// NewClient returns a Client for s. A non-positive timeout selects
// DefaultRequestTimeout.
func NewClient(s *Scheduler, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{s: s, timeout: timeout}
}

// Do sends req to the Run loop and waits for its response.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	env := envelope{req: req, reply: make(chan Response, 1)}
	select {
	case c.s.requests <- env:
	case <-ctx.Done():
		return Response{}, fmt.Errorf("scheduler not running: %w", ctx.Err())
	}
	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

func (c *Client) ScheduleAt(ctx context.Context, id string, at time.Time) error {
	return result(c.Do(ctx, NewSetAlarm(id, at)))
}

func (c *Client) Cancel(ctx context.Context, id string) error {
	return result(c.Do(ctx, NewClearAlarm(id)))
}

// Embedded applies requests to the alarm table directly. One-shot processes
// use it; a daemon running elsewhere sees the table change through its
// store watch or its next sweep.
type Embedded struct {
	s *Scheduler
}

// NewEmbedded returns an Embedded transport for s.
func NewEmbedded(s *Scheduler) *Embedded {
	return &Embedded{s: s}
}

func (e *Embedded) ScheduleAt(ctx context.Context, id string, at time.Time) error {
	return result(e.s.Handle(ctx, NewSetAlarm(id, at)), nil)
}

func (e *Embedded) Cancel(ctx context.Context, id string) error {
	return result(e.s.Handle(ctx, NewClearAlarm(id)), nil)
}

// HTTPClient sends requests to a `quickmsg serve` daemon.
type HTTPClient struct {
	base   string
	client *http.Client
	secret []byte
}

// NewHTTPClient returns a client for the daemon at addr, which may omit the
// scheme. A non-empty secret signs every request.
func NewHTTPClient(addr string, timeout time.Duration, secret string) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &HTTPClient{
		base:   base,
		client: &http.Client{Timeout: timeout},
		secret: []byte(secret),
	}
}

// Do posts req to the daemon's alarm endpoint.
func (c *HTTPClient) Do(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/alarms", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	if len(c.secret) > 0 {
		token, err := SignToken(c.secret, time.Now())
		if err != nil {
			return Response{}, err
		}
		hreq.Header.Set("Authorization", "Bearer "+token)
	}

	hresp, err := c.client.Do(hreq)
	if err != nil {
		return Response{}, err
	}
	defer hresp.Body.Close()

	var resp Response
	if err := json.NewDecoder(hresp.Body).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode %s response: %w", hresp.Status, err)
	}
	return resp, nil
}

func (c *HTTPClient) ScheduleAt(ctx context.Context, id string, at time.Time) error {
	return result(c.Do(ctx, NewSetAlarm(id, at)))
}

func (c *HTTPClient) Cancel(ctx context.Context, id string) error {
	return result(c.Do(ctx, NewClearAlarm(id)))
}
