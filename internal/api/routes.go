package api

import (
	"net/http"
	"time"

	"ajatus_server/internal/auth"
	"ajatus_server/internal/database"
	"ajatus_server/internal/middleware"
	"ajatus_server/internal/services"
	"ajatus_server/internal/wsocket"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer is built on. DB may be nil,
// in which case the database is reported as disconnected.
type Dependencies struct {
	Version       string
	DB            database.Pinger
	Chat          *services.ChatService
	Conversations services.ChatServiceDB
	Users         *services.UserService
	Usage         *services.UsageService
	APIKeys       *services.APIKeyService
	Nodes         *services.NodeService
	Catalog       *services.ModelCatalog
	Resolver      *auth.Resolver
	RateLimiter   *middleware.RateLimiter
	Metrics       *middleware.HTTPMetrics
	WebSocket     *wsocket.Handler
	JWTSecret     string
	TokenTTL      time.Duration
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/", rootHandler(deps.Version))
	r.GET("/health", healthHandler(deps.Version))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	requireAuth := auth.AuthMiddleware(deps.Resolver)
	chatMiddleware := []gin.HandlerFunc{requireAuth}
	if deps.RateLimiter != nil {
		chatMiddleware = append(chatMiddleware, deps.RateLimiter.Handler())
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", apiHealthHandler(deps.DB))
		v1.GET("/models", listModelsHandler(deps.Catalog))

		chat := v1.Group("/chat", chatMiddleware...)
		chat.POST("", chatHandler(deps.Chat))
		if deps.WebSocket != nil {
			chat.GET("/ws", chatWebSocketHandler(deps.WebSocket))
		}

		v1.POST("/users", registerHandler(deps.Users))
		v1.POST("/users/login", loginHandler(deps.Users, deps.JWTSecret, deps.TokenTTL))
		me := v1.Group("/users/me", requireAuth)
		{
			me.GET("", getMeHandler(deps.Users))
			me.GET("/preferences", getPreferencesHandler(deps.Users))
			me.PUT("/preferences", updatePreferencesHandler(deps.Users))
			me.GET("/usage", getUsageHandler(deps.Usage))
		}

		keys := v1.Group("/api-keys", requireAuth)
		{
			keys.POST("", createAPIKeyHandler(deps.APIKeys))
			keys.GET("", listAPIKeysHandler(deps.APIKeys))
			keys.DELETE("/:id", revokeAPIKeyHandler(deps.APIKeys))
		}

		conversations := v1.Group("/conversations", requireAuth)
		{
			conversations.GET("", listConversationsHandler(deps.Conversations))
			conversations.GET("/:id/messages", getMessagesHandler(deps.Conversations))
			conversations.DELETE("/:id", deleteConversationHandler(deps.Conversations))
		}

		nodes := v1.Group("/nodes", requireAuth)
		{
			nodes.POST("", registerNodeHandler(deps.Nodes))
			nodes.GET("", listNodesHandler(deps.Nodes))
			nodes.POST("/:id/heartbeat", heartbeatHandler(deps.Nodes))
		}
	}
}

func listModelsHandler(catalog *services.ModelCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"models": catalog.List()})
	}
}
