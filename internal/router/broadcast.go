package router

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
)

// Emit resolves a target name and fans the event out. An empty or "all"
// target broadcasts to every connection; a room name with no members is a
// no-op. This is the entry point used by the HTTP ingress.
func (r *EventRouter) Emit(target, event string, data json.RawMessage) error {
	msg, err := encodeMessage(event, data)
	if err != nil {
		return err
	}

	if target == "" || target == TargetAll {
		r.deliver(r.registry.AllConnections(), uuid.Nil, msg)
		return nil
	}
	r.deliver(r.registry.RoomConnections(target), uuid.Nil, msg)
	return nil
}

func (r *EventRouter) broadcast(event string, payload any) {
	r.send(r.registry.AllConnections(), uuid.Nil, event, payload)
}

func (r *EventRouter) emitToRoom(roomID, event string, payload any) {
	r.send(r.registry.RoomConnections(roomID), uuid.Nil, event, payload)
}

func (r *EventRouter) emitToRoomExcept(roomID string, except uuid.UUID, event string, payload any) {
	r.send(r.registry.RoomConnections(roomID), except, event, payload)
}

func (r *EventRouter) emitToConn(conn *state.Connection, event string, payload any) {
	r.send([]*state.Connection{conn}, uuid.Nil, event, payload)
}

func (r *EventRouter) emitError(conn *state.Connection, message string) {
	r.emitToConn(conn, EventError, map[string]any{"message": message})
}

func (r *EventRouter) send(conns []*state.Connection, except uuid.UUID, event string, payload any) {
	msg, err := encodeMessage(event, payload)
	if err != nil {
		r.logger.Error("Failed to encode outbound event", slog.String("event", event), slog.Any("error", err))
		return
	}
	r.deliver(conns, except, msg)
}

// deliver is fire-and-forget: Send queues on each connection's buffered
// channel and never blocks the router.
func (r *EventRouter) deliver(conns []*state.Connection, except uuid.UUID, msg []byte) {
	for _, conn := range conns {
		if conn.ID == except {
			continue
		}
		conn.Transport.Send(msg)
	}
}

func encodeMessage(event string, payload any) ([]byte, error) {
	var raw json.RawMessage
	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding payload for event '%s': %w", event, err)
		}
		raw = encoded
	}

	msg, err := json.Marshal(Message{Event: event, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("encoding event '%s': %w", event, err)
	}
	return msg, nil
}
