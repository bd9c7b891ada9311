package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation thread owned by exactly one user.
type Chat struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// Message is append-only within its chat; ordering is by CreatedAt.
type Message struct {
	Id        uuid.UUID
	Content   string
	Role      string
	UserId    uuid.UUID
	ChatId    uuid.UUID
	Usage     *MessageUsage
	CreatedAt time.Time
}

// MessageUsage carries the completion token accounting reported by the
// upstream API for assistant messages.
type MessageUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
