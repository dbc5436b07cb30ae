package dto

import "time"

// Notification is one entry of a recipient's poll feed.
type Notification struct {
	ID             int64     `json:"id"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	ProductID      string    `json:"product_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationList is a cursor-resumable notification feed.
type NotificationList struct {
	Items []Notification `json:"items"`
}
