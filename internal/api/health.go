package api

import (
	"net/http"
	"time"

	"ajatus_server/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 2 * time.Second

func rootHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Ajatuskumppani API",
			"status":  "healthy",
			"version": version,
			"docs":    "/docs",
		})
	}
}

func healthHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"version":      version,
			"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
			"model_loaded": true,
		})
	}
}

// apiHealthHandler reports the state of each backing service. The database
// is pinged on every call.
func apiHealthHandler(db database.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		dbStatus := "connected"
		if db == nil {
			status, dbStatus = "degraded", "disconnected"
		} else if err := database.Ping(c.Request.Context(), db, pingTimeout); err != nil {
			log.Warn().Err(err).Msg("Database ping failed")
			status, dbStatus = "degraded", "disconnected"
		}

		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"services": gin.H{
				"database": dbStatus,
				"llm":      "ready",
				"memory":   "ready",
			},
		})
	}
}
