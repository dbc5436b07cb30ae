package dto

import "time"

// Conversation describes chat metadata.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatMessage contains a single message payload.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender_id"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	ReplyTo   *int64    `json:"reply_to,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessageList is a cursor-resumable message list.
type ChatMessageList struct {
	Items []ChatMessage `json:"items"`
}

// MessageSent acknowledges a send with the allocated id.
type MessageSent struct {
	MessageID int64 `json:"message_id"`
}
