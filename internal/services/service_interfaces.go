package services

import (
	"context"
	"time"

	"ajatus_server/internal/models"
	"ajatus_server/internal/utils/broker"
)

// ResponseGenerator produces the assistant reply for a chat turn.
type ResponseGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*Generation, error)
}

type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type UsageTracker interface {
	Check(ctx context.Context, userID string, now time.Time) error
	Record(ctx context.Context, userID string, tokens int, now time.Time) error
}

type EventPublisher interface {
	Publish(topic string, ev broker.Event) int
}

// ChatServiceDB persists conversations and their messages.
type ChatServiceDB interface {
	SaveExchange(ctx context.Context, ex Exchange) (*models.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error)
	DeleteConversation(ctx context.Context, userID, conversationID string) error
}
