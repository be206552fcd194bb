package ws

import "partner-hub/domain/event"

// Client-to-server frame types. Rooms are re-joined from scratch on
// every reconnect; there is no server-side subscription memory.
const (
	frameJoin       = "join"
	frameLeave      = "leave"
	frameTyping     = "typing"
	frameStopTyping = "stop_typing"
)

type clientFrame struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	ReceiverID string `json:"receiverId,omitempty"`
}

// envelope wraps every server-to-client event with its kind so the
// SPA can route it to the matching handler.
type envelope struct {
	Type    event.Kind  `json:"type"`
	Payload event.Event `json:"payload"`
}
