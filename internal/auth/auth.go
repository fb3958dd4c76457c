package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PlaceholderUserID is returned for any bearer token when neither an API key
// nor a JWT secret applies.
const PlaceholderUserID = "user_123"

const (
	userIDKey     = "user_id"
	authMethodKey = "auth_method"
)

const (
	MethodAPIKey      = "api_key"
	MethodJWT         = "jwt"
	MethodPlaceholder = "placeholder"
)

// APIKeyLookup finds the usable API key matching a plaintext key.
type APIKeyLookup interface {
	Lookup(ctx context.Context, plaintext string, now time.Time) (*models.APIKey, error)
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID string `json:"user_id"`
	Method string `json:"method"`
}

type Resolver struct {
	keys      APIKeyLookup
	jwtSecret string
	now       func() time.Time
}

func NewResolver(keys APIKeyLookup, jwtSecret string) *Resolver {
	return &Resolver{keys: keys, jwtSecret: jwtSecret, now: time.Now}
}

// Resolve maps a bearer token to an identity. API keys are checked first,
// then JWTs when a secret is configured; otherwise the placeholder user is used.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperrors.New401Error("Invalid token")
	}

	if IsAPIKey(token) && r.keys != nil {
		key, err := r.keys.Lookup(ctx, token, r.now())
		if err != nil {
			log.Debug().Err(err).Msg("API key rejected")
			return nil, apperrors.New401Error("Invalid API key")
		}
		return &Identity{UserID: key.UserID, Method: MethodAPIKey}, nil
	}

	if r.jwtSecret != "" {
		claims, err := verifyToken(r.jwtSecret, token)
		if err != nil {
			return nil, apperrors.New401Error(err.Error())
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return nil, apperrors.New401Error("Token has no subject")
		}
		return &Identity{UserID: sub, Method: MethodJWT}, nil
	}

	return &Identity{UserID: PlaceholderUserID, Method: MethodPlaceholder}, nil
}

func SetupRoutes(r *gin.Engine, resolver *Resolver) {
	auth := r.Group("/auth")
	{
		auth.GET("/user", AuthMiddleware(resolver), getUser)
	}
}

func AuthMiddleware(resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.HandleError(c, apperrors.New401Error("Authorization header is required"))
			return
		}

		bearerToken := strings.Fields(authHeader)
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
			apperrors.HandleError(c, apperrors.New401Error("Invalid authorization header"))
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), bearerToken[1])
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.Set(userIDKey, identity.UserID)
		c.Set(authMethodKey, identity.Method)
		c.Next()
	}
}

// UserID returns the caller resolved by AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// Method returns how the caller was resolved, or "" before AuthMiddleware.
func Method(c *gin.Context) string {
	return c.GetString(authMethodKey)
}

func getUser(c *gin.Context) {
	userID := UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	c.JSON(http.StatusOK, Identity{UserID: userID, Method: Method(c)})
}
