package scheduler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"tableflip.dev/quickmsg/pkg/reminder"
)

// ServerOptions configures NewHandler.
type ServerOptions struct {
	// Relay enables POST /reminders/{id}/{action}.
	Relay *Relay
	// Hub enables the GET /events websocket.
	Hub *Hub
	// Metrics, when set, is served at GET /metrics without authentication.
	Metrics http.Handler
	Secret  []byte
	Log     *zap.Logger
}

// NewHandler exposes the scheduler over HTTP:
//
//	POST /alarms                   apply a Request, reply with a Response
//	GET  /alarms                   list pending alarms
//	POST /reminders/{id}/{action}  relay a notification action
//	GET  /events                   websocket of due reminders
//
// Browser pages from other origins are refused: POSTs must be JSON from the
// same origin, and the websocket checks Origin on upgrade.
func NewHandler(s *Scheduler, opts ServerOptions) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	api := http.NewServeMux()
	api.HandleFunc("POST /alarms", func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, failed(err))
			return
		}
		if err := s.apply(r.Context(), req); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrInvalidRequest) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, failed(err))
			return
		}
		writeJSON(w, http.StatusOK, succeeded())
	})
	api.HandleFunc("GET /alarms", func(w http.ResponseWriter, r *http.Request) {
		alarms, err := s.Alarms(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, failed(err))
			return
		}
		writeJSON(w, http.StatusOK, alarms)
	})
	if opts.Relay != nil {
		api.HandleFunc("POST /reminders/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
			action, err := ParseAction(r.PathValue("action"))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, failed(err))
				return
			}
			res, err := opts.Relay.Do(r.Context(), r.PathValue("id"), action)
			if err != nil {
				writeJSON(w, statusFor(err), failed(err))
				return
			}
			writeJSON(w, http.StatusOK, res)
		})
	}
	if opts.Hub != nil {
		api.Handle("GET /events", opts.Hub)
	}

	root := http.NewServeMux()
	if opts.Metrics != nil {
		root.Handle("GET /metrics", opts.Metrics)
	}
	root.Handle("/", RejectCrossSite(RequireToken(opts.Secret, api)))
	return root
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reminder.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reminder.ErrAlreadyAcknowledged):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
