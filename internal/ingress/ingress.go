// Package ingress exposes the HTTP endpoint trusted backend processes use
// to inject events into the socket fabric. The trust boundary is network
// reachability; the endpoint carries no per-request credentials.
package ingress

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Emitter fans an event out to a room or, for an empty target, everyone.
type Emitter interface {
	Emit(target, event string, data json.RawMessage) error
}

type notifyRequest struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type notifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NewHandler serves POST /api/notify. Success is acknowledged once the emit
// returns; delivery to individual sockets is fire-and-forget.
func NewHandler(logger *slog.Logger, emitter Emitter) http.Handler {
	logger = logger.With(slog.String("component", "ingress"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, notifyResponse{Message: "method not allowed"})
			return
		}

		var req notifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, notifyResponse{Message: "invalid JSON body"})
			return
		}
		if req.Event == "" || len(req.Data) == 0 || string(req.Data) == "null" {
			writeJSON(w, http.StatusBadRequest, notifyResponse{Message: "event and data are required"})
			return
		}

		if err := safeEmit(emitter, req.Room, req.Event, req.Data); err != nil {
			logger.Error("Event emission failed",
				slog.String("event", req.Event),
				slog.String("room", req.Room),
				slog.Any("error", err),
			)
			writeJSON(w, http.StatusInternalServerError, notifyResponse{Message: "internal error"})
			return
		}

		logger.Debug("Event relayed", slog.String("event", req.Event), slog.String("room", req.Room))
		writeJSON(w, http.StatusOK, notifyResponse{Success: true})
	})
}

// safeEmit keeps a misbehaving emitter from taking the process down; the
// caller's request cycle must never depend on more than an HTTP status.
func safeEmit(emitter Emitter, room, event string, data json.RawMessage) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("emit panicked: %v", rec)
		}
	}()
	return emitter.Emit(room, event, data)
}

func writeJSON(w http.ResponseWriter, status int, body notifyResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
