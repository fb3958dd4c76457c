package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index" json:"user_id"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

type Message struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);index" json:"conversation_id"`
	Role           string    `gorm:"not null" json:"role"` // "user" or "assistant"
	Content        string    `gorm:"type:text;not null" json:"content"`
	TokensUsed     int       `gorm:"default:0" json:"tokens_used"`
	Model          *string   `json:"model,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}
