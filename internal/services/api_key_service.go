package services

import (
	"context"
	"errors"
	"time"

	"ajatus_server/internal/auth"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CreateAPIKeyRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	ExpiresIn *int   `json:"expires_in_days" binding:"omitempty,gte=1,lte=3650"`
}

type APIKeyService struct {
	db *gorm.DB
}

func NewAPIKeyService(db *gorm.DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create issues a new key for userID. The plaintext key is only ever
// returned here; the database keeps its hash.
func (s *APIKeyService) Create(ctx context.Context, userID, name string, ttl time.Duration) (string, *models.APIKey, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return "", nil, err
	}
	if count == 0 {
		return "", nil, apperrors.New404Error("User not found")
	}

	plaintext, err := auth.GenerateAPIKey()
	if err != nil {
		return "", nil, err
	}

	key := &models.APIKey{
		UserID:   userID,
		Key:      auth.HashAPIKey(plaintext),
		Name:     name,
		IsActive: true,
	}
	if ttl > 0 {
		expires := time.Now().UTC().Add(ttl)
		key.ExpiresAt = &expires
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return "", nil, err
	}

	log.Info().Str("userID", userID).Str("keyID", key.ID).Msg("API key created")
	return plaintext, key, nil
}

func (s *APIKeyService) List(ctx context.Context, userID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Revoke deactivates one of the user's keys.
func (s *APIKeyService) Revoke(ctx context.Context, userID, keyID string) error {
	result := s.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("id = ? AND user_id = ?", keyID, userID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New404Error("API key not found")
	}
	return nil
}

// Lookup resolves a plaintext key to its record when the key is usable at now,
// and records the use.
func (s *APIKeyService) Lookup(ctx context.Context, plaintext string, now time.Time) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.WithContext(ctx).Where(&models.APIKey{Key: auth.HashAPIKey(plaintext)}).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New401Error("Invalid API key")
		}
		return nil, err
	}
	if !key.Usable(now) {
		return nil, apperrors.New401Error("API key is inactive or expired")
	}

	used := now.UTC()
	if err := s.db.WithContext(ctx).Model(&key).UpdateColumn("last_used", used).Error; err != nil {
		log.Warn().Err(err).Str("keyID", key.ID).Msg("Failed to record API key use")
	} else {
		key.LastUsed = &used
	}
	return &key, nil
}
