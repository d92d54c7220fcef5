package router

import "encoding/json"

// Message is the wire format in both directions: one JSON object per frame.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// TargetAll is the sentinel room name meaning "every connection".
const TargetAll = "all"

// Inbound events accepted from clients.
const (
	EventOrderStatusUpdate = "order:status:update"
	EventOrderNew          = "order:new"
	EventNotificationSend  = "notification:send"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
)

// Outbound events emitted by the relay.
const (
	EventConnected            = "connected"
	EventError                = "error"
	EventOrderStatusUpdated   = "order:status:updated"
	EventOrderStatusChanged   = "order:status:changed"
	EventOrderCreated         = "order:created"
	EventNotificationReceived = "notification:received"
	EventTypingStarted        = "typing:started"
	EventTypingStopped        = "typing:stopped"
)
