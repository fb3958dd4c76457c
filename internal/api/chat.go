package api

import (
	"net/http"

	"ajatus_server/internal/auth"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/services"
	"ajatus_server/internal/wsocket"

	"github.com/gin-gonic/gin"
)

func chatHandler(chatService *services.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request services.ChatRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}
		if err := request.Validate(); err != nil {
			apperrors.HandleError(c, err)
			return
		}

		response, err := chatService.Chat(c.Request.Context(), auth.UserID(c), request)
		if err != nil {
			if _, ok := apperrors.As(err); !ok {
				err = apperrors.NewChatFailure(err)
			}
			apperrors.HandleError(c, err)
			return
		}

		c.JSON(http.StatusOK, response)
	}
}

func chatWebSocketHandler(handler *wsocket.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler.HandleWebSocket(c.Writer, c.Request, auth.UserID(c))
	}
}
