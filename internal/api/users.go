package api

import (
	"net/http"
	"time"

	"ajatus_server/internal/auth"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func registerHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request services.RegisterRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		user, err := userService.Register(c.Request.Context(), request)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// loginHandler exchanges credentials for a JWT. It is only available when a
// signing secret is configured.
func loginHandler(userService *services.UserService, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			apperrors.HandleError(c, apperrors.New400Error("Token login is not enabled"))
			return
		}

		var request loginRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		user, err := userService.Authenticate(c.Request.Context(), request.Email, request.Password)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		token, err := auth.IssueToken(secret, user.ID, ttl)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   int(ttl.Seconds()),
		})
	}
}

func getMeHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userService.GetUser(c.Request.Context(), auth.UserID(c))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func getPreferencesHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefs, err := userService.GetPreferences(c.Request.Context(), auth.UserID(c))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, prefs)
	}
}

func updatePreferencesHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update services.PreferencesUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		prefs, err := userService.UpdatePreferences(c.Request.Context(), auth.UserID(c), update)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, prefs)
	}
}

func getUsageHandler(usageService *services.UsageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		usage, err := usageService.Get(c.Request.Context(), auth.UserID(c), time.Now())
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"total_tokens":      usage.TotalTokens,
			"tokens_used_today": usage.TokensUsedToday,
			"daily_limit":       usage.DailyLimit,
			"remaining_today":   usage.Remaining(),
			"last_reset":        usage.LastReset,
		})
	}
}
