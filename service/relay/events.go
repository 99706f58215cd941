package relay

import (
	"encoding/json"
	"time"
)

// Event names on the wire. The frontend listens on these verbatim.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// Frame is the envelope for every server-to-client push.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// MessageEvent is the JSON mirror of a persisted message, forwarded
// verbatim to the recipient's sessions. The relay neither constructs nor
// validates its content.
type MessageEvent struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BuildPresenceFrame encodes the full online-user snapshot.
func BuildPresenceFrame(users []string) ([]byte, error) {
	if users == nil {
		users = []string{} // `[]`, not `null`
	}
	return json.Marshal(Frame{Event: EventOnlineUsers, Data: users})
}

// BuildMessageFrame encodes a message push.
func BuildMessageFrame(ev MessageEvent) ([]byte, error) {
	return json.Marshal(Frame{Event: EventNewMessage, Data: ev})
}
