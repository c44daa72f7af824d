package entities

import "time"

// MessageRole is the author of a logged message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one logged utterance of a conversation.
type Message struct {
	ID             string         `json:"id" db:"id"`
	ConversationID string         `json:"conversationId" db:"conversation_id"`
	Role           MessageRole    `json:"role" db:"role"`
	Content        string         `json:"content" db:"content"`
	Metadata       map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}
