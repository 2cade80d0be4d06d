package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clone-chat/internal/service"
	"clone-chat/internal/storage"
)

// respondError traduce la taxonomía de fallas del core a respuestas
// distinguibles. El core nunca traga una falla de autorización; acá solo
// se decide el status y el cuerpo presentable.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, service.ErrUserNotFound):
		// Distinto de "no logueado": sesión válida sin usuario provisionado.
		c.JSON(http.StatusForbidden, gin.H{"error": "user not provisioned"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not part of this conversation"})
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, storage.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "storage object not found"})
	case errors.Is(err, storage.ErrSlotInvalid):
		c.JSON(http.StatusGone, gin.H{"error": "upload slot invalid or already used"})
	case errors.Is(err, service.ErrConversationInvalidInput),
		errors.Is(err, service.ErrMessageInvalidInput),
		errors.Is(err, service.ErrUserInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
