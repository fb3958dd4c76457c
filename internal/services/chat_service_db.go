package services

import (
	"context"
	"errors"
	"time"

	"ajatus_server/internal/database"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"

	"gorm.io/gorm"
)

// Exchange is one user turn and the assistant's reply.
type Exchange struct {
	UserID         string
	ConversationID string
	Title          string
	UserMessage    string
	UserTokens     int
	Reply          string
	ReplyTokens    int
	Model          string
}

// DefaultChatService implements ChatServiceDB on top of gorm.
type DefaultChatService struct {
	db *gorm.DB
}

func NewChatServiceDB(db *gorm.DB) ChatServiceDB {
	return &DefaultChatService{db: db}
}

// SaveExchange stores both messages of an exchange, creating the conversation
// when ConversationID is empty. Everything is written in one transaction.
func (s *DefaultChatService) SaveExchange(ctx context.Context, ex Exchange) (*models.Conversation, error) {
	var convo models.Conversation
	err := database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		if ex.ConversationID == "" {
			convo = models.Conversation{UserID: ex.UserID}
			if ex.Title != "" {
				title := ex.Title
				convo.Title = &title
			}
			if err := tx.Create(&convo).Error; err != nil {
				return err
			}
		} else if err := ownedConversation(tx, ex.UserID, ex.ConversationID).First(&convo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New404Error("Conversation not found")
			}
			return err
		}

		model := ex.Model
		messages := []models.Message{
			{ConversationID: convo.ID, Role: models.RoleUser, Content: ex.UserMessage, TokensUsed: ex.UserTokens},
			{ConversationID: convo.ID, Role: models.RoleAssistant, Content: ex.Reply, TokensUsed: ex.ReplyTokens, Model: &model},
		}
		// Distinct timestamps keep ordering stable on coarse clocks.
		now := time.Now().UTC()
		messages[0].CreatedAt = now
		messages[1].CreatedAt = now.Add(time.Microsecond)
		if err := tx.Create(&messages).Error; err != nil {
			return err
		}
		convo.Messages = messages

		return tx.Model(&convo).UpdateColumn("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &convo, nil
}

func (s *DefaultChatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	var convo models.Conversation
	err := ownedConversation(s.db.WithContext(ctx), userID, conversationID).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&convo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New404Error("Conversation not found")
		}
		return nil, err
	}
	return &convo, nil
}

func (s *DefaultChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convos []models.Conversation
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at desc").Find(&convos)
	if result.Error != nil {
		return nil, result.Error
	}
	return convos, nil
}

func (s *DefaultChatService) GetMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	convo, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if convo.Messages == nil {
		return []models.Message{}, nil
	}
	return convo.Messages, nil
}

// DeleteConversation deletes a conversation and its associated messages
func (s *DefaultChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	return database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		var convo models.Conversation
		if err := ownedConversation(tx, userID, conversationID).First(&convo).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New404Error("Conversation not found")
			}
			return err
		}
		if err := tx.Where("conversation_id = ?", convo.ID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&convo).Error
	})
}

func ownedConversation(db *gorm.DB, userID, conversationID string) *gorm.DB {
	return db.Where("id = ? AND user_id = ?", conversationID, userID)
}
