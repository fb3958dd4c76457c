package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/utils/broker"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
	MaxMessageLength   = 10000

	titleLength = 60
)

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message        string        `json:"message" binding:"required"`
	History        []ChatMessage `json:"history" binding:"omitempty,dive"`
	UserID         *string       `json:"user_id"`
	ConversationID string        `json:"conversation_id"`
	Temperature    *float64      `json:"temperature" binding:"omitempty,gte=0,lte=2"`
	MaxTokens      *int          `json:"max_tokens" binding:"omitempty,gte=1,lte=2048"`
	UseRAG         bool          `json:"use_rag"`
}

type ChatResponse struct {
	Response       string  `json:"response"`
	Model          string  `json:"model"`
	TokensUsed     int     `json:"tokens_used"`
	ProcessingTime float64 `json:"processing_time"`
	Timestamp      string  `json:"timestamp"`
	ConversationID string  `json:"conversation_id,omitempty"`
}

// Validate checks the message length in characters. Every transport calls it
// before Chat so the bounds are the same everywhere.
func (r ChatRequest) Validate() error {
	if n := utf8.RuneCountInString(r.Message); n == 0 || n > MaxMessageLength {
		return apperrors.New400Error(fmt.Sprintf("Message must be between 1 and %d characters", MaxMessageLength))
	}
	return nil
}

// ConversationTopic is the broker topic carrying a conversation's exchanges.
func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

type ChatService struct {
	generator ResponseGenerator
	store     ChatServiceDB
	users     UserLookup
	usage     UsageTracker
	events    EventPublisher
	now       func() time.Time
}

func NewChatService(generator ResponseGenerator, store ChatServiceDB, users UserLookup, usage UsageTracker, events EventPublisher) *ChatService {
	return &ChatService{
		generator: generator,
		store:     store,
		users:     users,
		usage:     usage,
		events:    events,
		now:       time.Now,
	}
}

// Chat answers a message. Exchanges of registered users are stored and
// counted against their daily token limit; other callers get an answer only.
func (s *ChatService) Chat(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error) {
	return s.ChatStream(ctx, userID, req, nil)
}

// ChatStream is Chat with the reply also delivered word by word to onChunk
// before the exchange is stored.
func (s *ChatService) ChatStream(ctx context.Context, userID string, req ChatRequest, onChunk func(string) error) (*ChatResponse, error) {
	start := s.now()

	known, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if known {
		if err := s.usage.Check(ctx, userID, start); err != nil {
			return nil, err
		}
	}

	gen, err := s.generator.Generate(ctx, GenerationRequest{
		Message:     req.Message,
		History:     req.History,
		Temperature: req.temperature(),
		MaxTokens:   req.maxTokens(),
		UseRAG:      req.UseRAG,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	tokens := CountTokens(gen.Text)

	// Recording before the reply is delivered lets the conditional update
	// reject requests that raced past Check once the limit is reached.
	if known {
		if err := s.usage.Record(ctx, userID, tokens, start); err != nil {
			if ce, ok := apperrors.As(err); ok && ce.Type == apperrors.ErrorTypeTooManyRequests {
				return nil, err
			}
			log.Error().Err(err).Str("userID", userID).Msg("Failed to record token usage")
		}
	}

	if onChunk != nil {
		for _, chunk := range chunkWords(gen.Text) {
			if err := onChunk(chunk); err != nil {
				return nil, err
			}
		}
	}

	resp := &ChatResponse{
		Response:   gen.Text,
		Model:      gen.Model,
		TokensUsed: tokens,
	}

	if known {
		convo, err := s.store.SaveExchange(ctx, Exchange{
			UserID:         userID,
			ConversationID: req.ConversationID,
			Title:          titleFor(req.Message),
			UserMessage:    req.Message,
			UserTokens:     CountTokens(req.Message),
			Reply:          gen.Text,
			ReplyTokens:    tokens,
			Model:          gen.Model,
		})
		if err != nil {
			return nil, err
		}
		resp.ConversationID = convo.ID

		if s.events != nil {
			s.events.Publish(ConversationTopic(convo.ID), broker.Event{Type: "exchange", Payload: convo.Messages})
		}
	}

	end := s.now()
	resp.ProcessingTime = end.Sub(start).Seconds()
	resp.Timestamp = end.UTC().Format(time.RFC3339Nano)

	log.Debug().
		Str("userID", userID).
		Bool("persisted", known).
		Int("tokens", tokens).
		Msg("Chat completed")
	return resp, nil
}

func (r ChatRequest) temperature() float64 {
	if r.Temperature == nil {
		return DefaultTemperature
	}
	return *r.Temperature
}

func (r ChatRequest) maxTokens() int {
	if r.MaxTokens == nil {
		return DefaultMaxTokens
	}
	return *r.MaxTokens
}

func titleFor(message string) string {
	if utf8.RuneCountInString(message) <= titleLength {
		return message
	}
	return string([]rune(message)[:titleLength])
}
