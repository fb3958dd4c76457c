package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	HashedPassword string    `gorm:"not null" json:"-"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	IsVerified     bool      `gorm:"default:false" json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Conversations []Conversation  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Preferences   *UserPreference `gorm:"constraint:OnDelete:CASCADE" json:"preferences,omitempty"`
	TokenUsage    *TokenUsage     `gorm:"constraint:OnDelete:CASCADE" json:"token_usage,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}

type UserPreference struct {
	ID                string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID            string                      `gorm:"type:varchar(36);uniqueIndex" json:"user_id"`
	Language          string                      `gorm:"default:fi" json:"language"`
	Tone              string                      `gorm:"default:friendly" json:"tone"`
	Verbosity         string                      `gorm:"default:medium" json:"verbosity"`
	ConversationStyle string                      `gorm:"default:conversational" json:"conversation_style"`
	TopicsOfInterest  datatypes.JSONSlice[string] `json:"topics_of_interest"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

func (p *UserPreference) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	if p.TopicsOfInterest == nil {
		p.TopicsOfInterest = datatypes.JSONSlice[string]{}
	}
	return nil
}

// DefaultPreferences returns the preferences a new user starts with.
func DefaultPreferences(userID string) *UserPreference {
	return &UserPreference{
		UserID:            userID,
		Language:          "fi",
		Tone:              "friendly",
		Verbosity:         "medium",
		ConversationStyle: "conversational",
		TopicsOfInterest:  datatypes.JSONSlice[string]{},
	}
}
