package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/reminder"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Hub message types.
const (
	MessageFired  = "reminder_fired"
	MessageAction = "action"
	MessageResult = "action_result"
	MessageError  = "error"
)

// HubMessage travels over the /events socket in both directions. Clients
// send {"type":"action","reminderId":...,"action":...}; the hub sends
// reminder_fired, action_result and error messages.
type HubMessage struct {
	Type       string             `json:"type"`
	ReminderID string             `json:"reminderId,omitempty"`
	Action     Action             `json:"action,omitempty"`
	Reminder   *reminder.Reminder `json:"reminder,omitempty"`
	URL        string             `json:"url,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Hub pushes due reminders to connected websocket clients and relays their
// actions back. It is a Notifier.
type Hub struct {
	relay    *Relay
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a Hub. relay may be nil, in which case client actions are
// refused.
func NewHub(relay *Relay, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		relay: relay,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
		clients: make(map[*hubClient]struct{}),
	}
}

// Notify broadcasts a reminder_fired message.
func (h *Hub) Notify(_ context.Context, r reminder.Reminder) error {
	data, err := json.Marshal(HubMessage{Type: MessageFired, ReminderID: r.ID, Reminder: &r})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("dropping notification for slow client")
		}
	}
	return nil
}

// Clients reports how many sockets are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &hubClient{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("websocket client connected")

	go c.writePump()
	go c.readPump(r.Context())
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *hubClient) reply(msg HubMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *hubClient) readPump(ctx context.Context) {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()
	// The request context ends with the handler; actions need their own.
	ctx = context.WithoutCancel(ctx)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		var msg HubMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MessageAction {
			c.reply(HubMessage{Type: MessageError, Error: "expected an action message"})
			continue
		}
		c.reply(c.hub.act(ctx, msg))
	}
}

func (h *Hub) act(ctx context.Context, msg HubMessage) HubMessage {
	out := HubMessage{Type: MessageResult, ReminderID: msg.ReminderID, Action: msg.Action}
	if h.relay == nil {
		out.Type, out.Error = MessageError, "actions are not accepted here"
		return out
	}
	action, err := ParseAction(string(msg.Action))
	if err != nil {
		out.Type, out.Error = MessageError, err.Error()
		return out
	}
	res, err := h.relay.Do(ctx, msg.ReminderID, action)
	if err != nil {
		out.Type, out.Error = MessageError, err.Error()
		return out
	}
	out.Reminder = res.Reminder
	out.URL = res.URL
	return out
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
