package dto

import (
	"time"

	domainchat "nepalmentor/internal/domain/chat"
)

// SenderInfo carries the display attributes populated on each message.
type SenderInfo struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ChatMessage is a single populated message payload, shared by the HTTP and
// websocket surfaces.
type ChatMessage struct {
	ID         string     `json:"id"`
	SlotID     string     `json:"slot_id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id,omitempty"`
	Body       string     `json:"body"`
	Sender     SenderInfo `json:"sender"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewChatMessage maps a populated domain message onto the wire shape.
func NewChatMessage(msg domainchat.PopulatedMessage) ChatMessage {
	return ChatMessage{
		ID:         msg.ID,
		SlotID:     msg.SlotID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Body:       msg.Body,
		Sender: SenderInfo{
			ID:        msg.Sender.ID,
			FirstName: msg.Sender.FirstName,
			LastName:  msg.Sender.LastName,
			Role:      msg.Sender.Role,
		},
		CreatedAt: msg.CreatedAt,
	}
}

// NewChatMessages maps a history replay.
func NewChatMessages(msgs []domainchat.PopulatedMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, NewChatMessage(msg))
	}
	return out
}
