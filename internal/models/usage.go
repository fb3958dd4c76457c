package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultDailyLimit = 100000

type TokenUsage struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string    `gorm:"type:varchar(36);uniqueIndex" json:"user_id"`
	TotalTokens     int       `gorm:"default:0" json:"total_tokens"`
	TokensUsedToday int       `gorm:"default:0" json:"tokens_used_today"`
	DailyLimit      int       `gorm:"default:100000" json:"daily_limit"`
	LastReset       time.Time `json:"last_reset"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName keeps the singular table name used by the schema.
func (TokenUsage) TableName() string {
	return "token_usage"
}

func (u *TokenUsage) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	if u.LastReset.IsZero() {
		u.LastReset = time.Now().UTC()
	}
	return nil
}

// Remaining is the number of tokens still available today.
func (u *TokenUsage) Remaining() int {
	if r := u.DailyLimit - u.TokensUsedToday; r > 0 {
		return r
	}
	return 0
}
