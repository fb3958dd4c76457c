package api

import (
	"net/http"
	"time"

	"ajatus_server/internal/auth"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/services"

	"github.com/gin-gonic/gin"
)

func registerNodeHandler(nodeService *services.NodeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request services.RegisterNodeRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		node, err := nodeService.Register(c.Request.Context(), auth.UserID(c), request)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, node)
	}
}

// listNodesHandler lists active nodes unless ?all=true is given.
func listNodesHandler(nodeService *services.NodeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, err := nodeService.List(c.Request.Context(), c.Query("all") != "true")
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"nodes": nodes})
	}
}

func heartbeatHandler(nodeService *services.NodeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		node, err := nodeService.Heartbeat(c.Request.Context(), auth.UserID(c), c.Param("id"), time.Now())
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, node)
	}
}
