package realtime

import "nepalmentor/internal/app/dto"

// Client-to-server event types.
const (
	EventJoin = "join"
	EventSend = "send"
)

// Server-to-client event types. join_denied means "you are not part of this
// conversation"; join_failed and the unavailable send reasons mean "could
// not check, try again".
const (
	EventHistory    = "history"
	EventMessage    = "message"
	EventJoinDenied = "join_denied"
	EventJoinFailed = "join_failed"
	EventSendFailed = "send_failed"
)

// ClientEvent is one inbound frame.
type ClientEvent struct {
	Type       string `json:"type"`
	SlotID     string `json:"slot_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	ReceiverID string `json:"receiver_id,omitempty"`
	Body       string `json:"body,omitempty"`
}

// ServerEvent is one outbound frame.
type ServerEvent struct {
	Type     string            `json:"type"`
	Reason   string            `json:"reason,omitempty"`
	Role     string            `json:"role,omitempty"`
	Message  *dto.ChatMessage  `json:"message,omitempty"`
	Messages []dto.ChatMessage `json:"messages,omitempty"`
}
