package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clone-chat/internal/domain"
	"clone-chat/internal/service"
)

// MessageHandler mantiene dependencias para endpoints de mensajes.
type MessageHandler struct {
	logger      *zap.Logger
	messageServ *service.MessageService
	feedServ    *service.FeedService
}

// NewMessageHandler crea una instancia con dependencias necesarias.
func NewMessageHandler(logger *zap.Logger, messageServ *service.MessageService, feedServ *service.FeedService) *MessageHandler {
	return &MessageHandler{
		logger:      logger,
		messageServ: messageServ,
		feedServ:    feedServ,
	}
}

// Append maneja POST /conversations/:id/messages.
func (h *MessageHandler) Append(c *gin.Context) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid append message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.messageServ.Append(c.Request.Context(), caller, c.Param("id"), req.Content); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusCreated)
}

// AppendImage maneja POST /conversations/:id/messages/image.
func (h *MessageHandler) AppendImage(c *gin.Context) {
	h.appendMedia(c, domain.MessageTypeImage)
}

// AppendVideo maneja POST /conversations/:id/messages/video.
func (h *MessageHandler) AppendVideo(c *gin.Context) {
	h.appendMedia(c, domain.MessageTypeVideo)
}

func (h *MessageHandler) appendMedia(c *gin.Context, messageType domain.MessageType) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		StorageRef string `json:"storage_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid append media request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.messageServ.AppendMedia(c.Request.Context(), caller, c.Param("id"), req.StorageRef, messageType); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ListEnriched maneja GET /conversations/:id/messages: snapshot del feed
// con perfiles de emisor resueltos.
func (h *MessageHandler) ListEnriched(c *gin.Context) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	feed, err := h.feedServ.Compose(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": feed})
}
