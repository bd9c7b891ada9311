package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatDTO struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UserId    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MessageDTO struct {
	Id        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	UserId    uuid.UUID `json:"userId"`
	ChatId    uuid.UUID `json:"chatId"`
	CreatedAt time.Time `json:"createdAt"`
}

type PostMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// QuickMessageRequest feeds the chatless send endpoint, which appends to the
// caller's most recent chat.
type QuickMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// PostMessageResponse mirrors the optimistic-UI contract: the stored user
// message and the generated assistant message in one payload.
type PostMessageResponse struct {
	UserMessage MessageDTO `json:"userMessage"`
	AiMessage   MessageDTO `json:"aiMessage"`
}

type DemoAnswerRequest struct {
	Question string `json:"question" validate:"required"`
}

type DemoAnswerResponse struct {
	Answer string `json:"answer"`
}
