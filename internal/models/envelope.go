package models

// Envelope type tags exchanged over the realtime channel.
const (
	EnvelopeMessage      = "message"
	EnvelopeGroupMessage = "group_message"
	EnvelopeCreateGroup  = "create_group"
	EnvelopeJoinGroup    = "join_group"

	EventConnected       = "connected"
	EventNewMessage      = "new_message"
	EventNewGroupMessage = "new_group_message"
	EventGroupCreated    = "group_created"
	EventGroupJoined     = "group_joined"
	EventError           = "error"
)

// Envelope is one inbound client message, discriminated by Type.
type Envelope struct {
	Type       string `json:"type"`
	VideoID    int    `json:"videoId,omitempty"`
	GroupID    int    `json:"groupId,omitempty"`
	Content    string `json:"content,omitempty"`
	Name       string `json:"name,omitempty"`
	InviteCode string `json:"inviteCode,omitempty"`

	// create_group extras carried by the web client's form.
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`
}

// Event is one outbound server message.
type Event struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorEvent builds an error envelope for the sender.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}
