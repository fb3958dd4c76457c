package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ajatus_server/internal/database"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UsageService tracks per-user token consumption against a daily limit.
// Days are UTC calendar days.
type UsageService struct {
	db         *gorm.DB
	dailyLimit int
}

func NewUsageService(db *gorm.DB, dailyLimit int) *UsageService {
	if dailyLimit <= 0 {
		dailyLimit = models.DefaultDailyLimit
	}
	return &UsageService{db: db, dailyLimit: dailyLimit}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Get returns the user's usage with today's counter reset if the day rolled over.
func (s *UsageService) Get(ctx context.Context, userID string, now time.Time) (*models.TokenUsage, error) {
	var usage models.TokenUsage
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New404Error("Token usage not found")
		}
		return nil, err
	}
	if usage.LastReset.Before(startOfDay(now)) {
		usage.TokensUsedToday = 0
		usage.LastReset = now.UTC()
	}
	return &usage, nil
}

// Check fails with a 429 when the user has exhausted today's limit. Users
// without a usage record are not limited.
func (s *UsageService) Check(ctx context.Context, userID string, now time.Time) error {
	usage, err := s.Get(ctx, userID, now)
	if err != nil {
		if ce, ok := apperrors.As(err); ok && ce.Type == apperrors.ErrorTypeNotFound {
			return nil
		}
		return err
	}
	if usage.Remaining() == 0 {
		return apperrors.New429Error(fmt.Sprintf("Daily token limit of %d reached", usage.DailyLimit))
	}
	return nil
}

// Record adds tokens to the user's totals, starting a new day first when
// needed. It fails with a 429 when today's limit was already used up.
func (s *UsageService) Record(ctx context.Context, userID string, tokens int, now time.Time) error {
	now = now.UTC()
	return database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		var usage models.TokenUsage
		err := tx.Where("user_id = ?", userID).First(&usage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.TokenUsage{
				UserID:          userID,
				TotalTokens:     tokens,
				TokensUsedToday: tokens,
				DailyLimit:      s.dailyLimit,
				LastReset:       now,
			}).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"total_tokens": gorm.Expr("total_tokens + ?", tokens),
		}
		q := tx.Model(&models.TokenUsage{}).Where("id = ?", usage.ID)
		if usage.LastReset.Before(startOfDay(now)) {
			updates["tokens_used_today"] = tokens
			updates["last_reset"] = now
		} else {
			// The row lock taken by the update makes this the authoritative
			// limit check when requests run concurrently.
			updates["tokens_used_today"] = gorm.Expr("tokens_used_today + ?", tokens)
			q = q.Where("tokens_used_today < daily_limit")
		}
		result := q.Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.New429Error(fmt.Sprintf("Daily token limit of %d reached", usage.DailyLimit))
		}
		return nil
	})
}

// ResetDaily zeroes today's counter for every record last reset before the
// start of now's day. It returns the number of records reset.
func (s *UsageService) ResetDaily(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.TokenUsage{}).
		Where("last_reset < ?", startOfDay(now)).
		Updates(map[string]interface{}{
			"tokens_used_today": 0,
			"last_reset":        now.UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	log.Info().Int64("reset", result.RowsAffected).Msg("Daily token usage reset")
	return result.RowsAffected, nil
}
