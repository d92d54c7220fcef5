package router

import (
	"encoding/json"
	"log/slog"

	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
	"github.com/tidwall/gjson"
)

// handleOrderStatusUpdate relays an admin's status change. The admin room
// gets the full update; every connection gets the slim order:status:changed
// broadcast, since the relay has no order-ownership data to scope it with.
func (r *EventRouter) handleOrderStatusUpdate(conn *state.Connection, payload json.RawMessage) {
	if !conn.Profile.Roles.IsAdmin() {
		r.logger.Warn("Non-admin attempted order status update", slog.String("userID", conn.Profile.ID))
		r.emitError(conn, "unauthorized")
		return
	}

	orderID := gjson.GetBytes(payload, "orderId")
	status := gjson.GetBytes(payload, "status")
	if !orderID.Exists() || !status.Exists() {
		r.emitError(conn, "missing required fields")
		return
	}

	ts := timestamp()
	updated := map[string]any{
		"orderId":   orderID.Value(),
		"status":    status.String(),
		"updatedBy": conn.Profile.ID,
		"timestamp": ts,
	}
	if paymentStatus := gjson.GetBytes(payload, "paymentStatus"); paymentStatus.Exists() {
		updated["paymentStatus"] = paymentStatus.Value()
	}
	r.emitToRoom(state.AdminRoom, EventOrderStatusUpdated, updated)

	r.broadcast(EventOrderStatusChanged, map[string]any{
		"orderId":   orderID.Value(),
		"status":    status.String(),
		"timestamp": ts,
	})
}

// handleOrderNew notifies the admin room about a new order. There is no role
// check here; the storefront exposes this event to the checkout flow.
func (r *EventRouter) handleOrderNew(conn *state.Connection, payload json.RawMessage) {
	created := pickFields(payload, "orderId", "orderNumber", "customerName", "total")
	created["timestamp"] = timestamp()
	r.emitToRoom(state.AdminRoom, EventOrderCreated, created)
}

// handleNotificationSend delivers a direct notification to the target user's
// personal room. An offline target (empty room) is a silent no-op.
func (r *EventRouter) handleNotificationSend(conn *state.Connection, payload json.RawMessage) {
	userID := gjson.GetBytes(payload, "userId")
	message := gjson.GetBytes(payload, "message")
	if !userID.Exists() || !message.Exists() {
		r.emitError(conn, "missing required fields")
		return
	}

	kind := "info"
	if t := gjson.GetBytes(payload, "type"); t.Exists() && t.String() != "" {
		kind = t.String()
	}

	r.emitToRoom(state.UserRoom(userID.String()), EventNotificationReceived, map[string]any{
		"userId":    userID.Value(),
		"message":   message.String(),
		"type":      kind,
		"timestamp": timestamp(),
	})
}

// handleTyping relays a presence indicator to the other members of a
// caller-supplied room. Neither the room id format nor the sender's
// membership is validated; an unknown room is a no-op.
func (r *EventRouter) handleTyping(conn *state.Connection, payload json.RawMessage, outEvent string) {
	roomID := gjson.GetBytes(payload, "roomId").String()
	if roomID == "" {
		r.emitError(conn, "missing required fields")
		return
	}

	r.emitToRoomExcept(roomID, conn.ID, outEvent, map[string]any{
		"roomId":   roomID,
		"userId":   conn.Profile.ID,
		"userName": conn.Profile.Name,
	})
}

// pickFields copies the named payload fields that are present, preserving
// their JSON types.
func pickFields(payload json.RawMessage, keys ...string) map[string]any {
	out := make(map[string]any, len(keys)+1)
	for _, key := range keys {
		if value := gjson.GetBytes(payload, key); value.Exists() {
			out[key] = value.Value()
		}
	}
	return out
}
