package main

import (
	"context"
	"net/http"
	"time"

	"ajatus_server/cmd/api/config"
	"ajatus_server/internal/api"
	"ajatus_server/internal/auth"
	"ajatus_server/internal/middleware"
	"ajatus_server/internal/services"
	"ajatus_server/internal/utils/broker"
	"ajatus_server/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type app struct {
	router    *gin.Engine
	scheduler *services.Scheduler
}

// newApp wires services and routes. Background work started here stops
// when ctx is done.
func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*app, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	catalog := services.DefaultModelCatalog()
	messageBroker := broker.NewBroker()

	chatServiceDB := services.NewChatServiceDB(db)
	userService := services.NewUserService(db, cfg.DefaultDailyLimit)
	usageService := services.NewUsageService(db, cfg.DefaultDailyLimit)
	apiKeyService := services.NewAPIKeyService(db)
	nodeService := services.NewNodeService(db)
	chatService := services.NewChatService(
		services.NewDemoGenerator(catalog.Default().ID),
		chatServiceDB,
		userService,
		usageService,
		messageBroker,
	)

	scheduler, err := services.NewScheduler(usageService, nodeService, services.SchedulerConfig{
		UsageResetSchedule:   cfg.UsageResetSchedule,
		NodeSweepSchedule:    cfg.NodeSweepSchedule,
		NodeHeartbeatTimeout: cfg.NodeHeartbeatTimeout,
	})
	if err != nil {
		return nil, err
	}

	rateLimiter := middleware.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst)
	rateLimiter.StartCleanup(ctx, 10*time.Minute, time.Hour)
	metrics := middleware.NewHTTPMetrics()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Origins()),
	}
	wsHandler := wsocket.NewHandler(chatService, chatServiceDB, messageBroker, upgrader)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware(), cors.New(corsConfig(cfg.Origins())))

	resolver := auth.NewResolver(apiKeyService, cfg.JWTSecret)
	api.SetupRoutes(r, api.Dependencies{
		Version:       config.Version,
		DB:            sqlDB,
		Chat:          chatService,
		Conversations: chatServiceDB,
		Users:         userService,
		Usage:         usageService,
		APIKeys:       apiKeyService,
		Nodes:         nodeService,
		Catalog:       catalog,
		Resolver:      resolver,
		RateLimiter:   rateLimiter,
		Metrics:       metrics,
		WebSocket:     wsHandler,
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
	})
	auth.SetupRoutes(r, resolver)

	return &app{router: r, scheduler: scheduler}, nil
}

// corsConfig allows any origin when "*" is configured. Credentials are only
// allowed for an explicit origin list.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if allowsAll(origins) {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func originChecker(origins []string) func(r *http.Request) bool {
	if allowsAll(origins) {
		return func(r *http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
