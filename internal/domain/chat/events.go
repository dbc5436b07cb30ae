package chat

import "time"

type ConversationStarted struct {
	ConversationID ConversationID
	Participants   [2]string
	ProductID      string
	At             time.Time
}

func (e ConversationStarted) EventName() string     { return "conversation.started" }
func (e ConversationStarted) AggregateID() string   { return string(e.ConversationID) }
func (e ConversationStarted) OccurredAt() time.Time { return e.At }

type MessagePosted struct {
	ConversationID ConversationID
	MessageID      int64
	Sender         string
	Suppressed     bool
	At             time.Time
}

func (e MessagePosted) EventName() string     { return "conversation.message_posted" }
func (e MessagePosted) AggregateID() string   { return string(e.ConversationID) }
func (e MessagePosted) OccurredAt() time.Time { return e.At }
