package models

import "time"

// SourceTagTutor marks exchanges produced by the tutoring channel rather
// than plain chat. Cross-channel exchanges are embedded by their full
// content so they stay retrievable from either channel.
const SourceTagTutor = "tutor"

// ConversationExchange is one completed user/assistant turn. Exchanges are
// append-only: never mutated, only superseded by newer rows with a higher
// Seq within the same conversation.
type ConversationExchange struct {
	ExchangeID       string    `json:"exchange_id" db:"exchange_id"`
	ConversationID   string    `json:"conversation_id" db:"conversation_id"`
	UserMessage      string    `json:"user_message" db:"user_message"`
	AssistantMessage string    `json:"assistant_message" db:"assistant_message"`
	Seq              int       `json:"seq" db:"seq"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	SourceTag        string    `json:"source_tag,omitempty" db:"source_tag"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	SourceTag      string `json:"source_tag,omitempty"`
}

type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}
