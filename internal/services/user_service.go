package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"ajatus_server/internal/database"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// PreferencesUpdate changes only the fields that are set.
type PreferencesUpdate struct {
	Language          *string   `json:"language" binding:"omitempty,min=2,max=8"`
	Tone              *string   `json:"tone" binding:"omitempty,max=32"`
	Verbosity         *string   `json:"verbosity" binding:"omitempty,oneof=low medium high"`
	ConversationStyle *string   `json:"conversation_style" binding:"omitempty,max=32"`
	TopicsOfInterest  *[]string `json:"topics_of_interest"`
}

type UserService struct {
	db         *gorm.DB
	dailyLimit int
}

func NewUserService(db *gorm.DB, dailyLimit int) *UserService {
	if dailyLimit <= 0 {
		dailyLimit = models.DefaultDailyLimit
	}
	return &UserService{db: db, dailyLimit: dailyLimit}
}

// Register creates a user together with default preferences and a token
// usage record.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Username:       strings.TrimSpace(req.Username),
		HashedPassword: string(hashed),
		IsActive:       true,
	}

	err = database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).
			Where("email = ? OR username = ?", user.Email, user.Username).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.New409Error("Email or username already registered")
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}
		prefs := models.DefaultPreferences(user.ID)
		if err := tx.Create(prefs).Error; err != nil {
			return err
		}
		usage := &models.TokenUsage{
			UserID:     user.ID,
			DailyLimit: s.dailyLimit,
			LastReset:  time.Now().UTC(),
		}
		if err := tx.Create(usage).Error; err != nil {
			return err
		}
		user.Preferences = prefs
		user.TokenUsage = usage
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("userID", user.ID).Msg("User registered")
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New401Error("Invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, apperrors.New401Error("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperrors.New403Error()
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Preferences").
		Preload("TokenUsage").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New404Error("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// Exists reports whether userID belongs to an active registered user.
func (s *UserService) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

func (s *UserService) GetPreferences(ctx context.Context, userID string) (*models.UserPreference, error) {
	var prefs models.UserPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New404Error("Preferences not found")
		}
		return nil, err
	}
	return &prefs, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID string, update PreferencesUpdate) (*models.UserPreference, error) {
	var prefs models.UserPreference
	err := database.WithSession(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&prefs).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New404Error("Preferences not found")
			}
			return err
		}

		if update.Language != nil {
			prefs.Language = *update.Language
		}
		if update.Tone != nil {
			prefs.Tone = *update.Tone
		}
		if update.Verbosity != nil {
			prefs.Verbosity = *update.Verbosity
		}
		if update.ConversationStyle != nil {
			prefs.ConversationStyle = *update.ConversationStyle
		}
		if update.TopicsOfInterest != nil {
			prefs.TopicsOfInterest = datatypes.JSONSlice[string](*update.TopicsOfInterest)
		}
		return tx.Save(&prefs).Error
	})
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}
