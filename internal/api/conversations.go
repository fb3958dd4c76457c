package api

import (
	"net/http"

	"ajatus_server/internal/auth"
	apperrors "ajatus_server/internal/errors"
	"ajatus_server/internal/services"

	"github.com/gin-gonic/gin"
)

func listConversationsHandler(store services.ChatServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		conversations, err := store.ListConversations(c.Request.Context(), auth.UserID(c))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversations": conversations})
	}
}

func getMessagesHandler(store services.ChatServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		messages, err := store.GetMessages(c.Request.Context(), auth.UserID(c), c.Param("id"))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

func deleteConversationHandler(store services.ChatServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.DeleteConversation(c.Request.Context(), auth.UserID(c), c.Param("id")); err != nil {
			apperrors.HandleError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
