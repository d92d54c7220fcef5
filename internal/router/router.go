package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
)

// EventRouter dispatches inbound socket events to their handlers and
// resolves outbound targets (personal rooms, the admin room, or a full
// broadcast) against the connection registry.
type EventRouter struct {
	logger   *slog.Logger
	registry state.Manager
}

func NewEventRouter(logger *slog.Logger, registry state.Manager) *EventRouter {
	return &EventRouter{
		logger:   logger.With(slog.String("component", "event_router")),
		registry: registry,
	}
}

// HandleMessage is the transport's message callback.
func (r *EventRouter) HandleMessage(ctx context.Context, connID uuid.UUID, msg []byte) {
	conn, ok := r.registry.GetConnection(connID)
	if !ok {
		r.logger.Error("Received message for unknown connection", slog.String("connID", connID.String()))
		return
	}

	var in Message
	if err := json.Unmarshal(msg, &in); err != nil {
		r.logger.Warn("Failed to unmarshal client message", slog.String("connID", connID.String()), slog.Any("error", err))
		r.emitError(conn, "invalid message format")
		return
	}

	// events from sockets without a resolved identity are never processed.
	if conn.Profile.ID == "" {
		r.emitError(conn, "unauthenticated connection")
		return
	}

	r.logger.Debug("Handling client event", slog.String("event", in.Event), slog.String("connID", connID.String()))
	switch in.Event {
	case EventOrderStatusUpdate:
		r.handleOrderStatusUpdate(conn, in.Payload)
	case EventOrderNew:
		r.handleOrderNew(conn, in.Payload)
	case EventNotificationSend:
		r.handleNotificationSend(conn, in.Payload)
	case EventTypingStart:
		r.handleTyping(conn, in.Payload, EventTypingStarted)
	case EventTypingStop:
		r.handleTyping(conn, in.Payload, EventTypingStopped)
	default:
		r.logger.Warn("Received unknown event", slog.String("event", in.Event), slog.String("connID", connID.String()))
		r.emitError(conn, "unknown event")
	}
}

// AnnounceConnected greets a freshly registered connection.
func (r *EventRouter) AnnounceConnected(conn *state.Connection) {
	payload := map[string]any{
		"timestamp": timestamp(),
	}
	if conn.Profile.ID != "" {
		payload["userId"] = conn.Profile.ID
	}
	r.emitToConn(conn, EventConnected, payload)
}

// timestamp is the moment of emission on the relay, not any upstream event time.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
