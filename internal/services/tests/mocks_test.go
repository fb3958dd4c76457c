package services_test

import (
	"context"
	"time"

	"ajatus_server/internal/models"
	"ajatus_server/internal/services"
	"ajatus_server/internal/utils/broker"

	"github.com/stretchr/testify/mock"
)

type MockResponseGenerator struct {
	mock.Mock
}

func (m *MockResponseGenerator) Generate(ctx context.Context, req services.GenerationRequest) (*services.Generation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Generation), args.Error(1)
}

type MockChatServiceDB struct {
	mock.Mock
}

func (m *MockChatServiceDB) SaveExchange(ctx context.Context, ex services.Exchange) (*models.Conversation, error) {
	args := m.Called(ctx, ex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockChatServiceDB) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	args := m.Called(ctx, userID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockChatServiceDB) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *MockChatServiceDB) GetMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	args := m.Called(ctx, userID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockChatServiceDB) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	args := m.Called(ctx, userID, conversationID)
	return args.Error(0)
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) Exists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockUsageTracker struct {
	mock.Mock
}

func (m *MockUsageTracker) Check(ctx context.Context, userID string, now time.Time) error {
	args := m.Called(ctx, userID, now)
	return args.Error(0)
}

func (m *MockUsageTracker) Record(ctx context.Context, userID string, tokens int, now time.Time) error {
	args := m.Called(ctx, userID, tokens, now)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(topic string, ev broker.Event) int {
	args := m.Called(topic, ev)
	return args.Int(0)
}
