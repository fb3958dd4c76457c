package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey stores the SHA-256 hash of an issued key, never the key itself.
type APIKey struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string     `gorm:"type:varchar(36);index" json:"user_id"`
	Key       string     `gorm:"uniqueIndex;not null" json:"-"`
	Name      string     `gorm:"not null" json:"name"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastUsed  *time.Time `json:"last_used"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (k *APIKey) BeforeCreate(tx *gorm.DB) error {
	newID(&k.ID)
	return nil
}

// Usable reports whether the key can authenticate at the given time.
func (k *APIKey) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}
