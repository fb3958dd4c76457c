package api

import (
	"net/http"
	"time"

	"ajatus_server/internal/auth"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/services"

	"github.com/gin-gonic/gin"
)

// createAPIKeyHandler returns the plaintext key once; only its hash is kept.
func createAPIKeyHandler(keyService *services.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request services.CreateAPIKeyRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		var ttl time.Duration
		if request.ExpiresIn != nil {
			ttl = time.Duration(*request.ExpiresIn) * 24 * time.Hour
		}

		plaintext, key, err := keyService.Create(c.Request.Context(), auth.UserID(c), request.Name, ttl)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":         key.ID,
			"name":       key.Name,
			"key":        plaintext,
			"created_at": key.CreatedAt,
			"expires_at": key.ExpiresAt,
		})
	}
}

func listAPIKeysHandler(keyService *services.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		keys, err := keyService.List(c.Request.Context(), auth.UserID(c))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"api_keys": keys})
	}
}

func revokeAPIKeyHandler(keyService *services.APIKeyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := keyService.Revoke(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
