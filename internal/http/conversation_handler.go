package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clone-chat/internal/service"
)

// ConversationHandler mantiene dependencias para endpoints de conversaciones.
type ConversationHandler struct {
	logger           *zap.Logger
	conversationServ *service.ConversationService
}

// NewConversationHandler crea una instancia con dependencias necesarias.
func NewConversationHandler(logger *zap.Logger, conversationServ *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		logger:           logger,
		conversationServ: conversationServ,
	}
}

// CreateOrGet maneja POST /conversations.
func (h *ConversationHandler) CreateOrGet(c *gin.Context) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Participants  []string `json:"participants" binding:"required"`
		IsGroup       bool     `json:"is_group"`
		GroupName     string   `json:"group_name"`
		GroupImageRef string   `json:"group_image"`
		Admin         string   `json:"admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create conversation request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.conversationServ.CreateOrGet(c.Request.Context(), caller, service.CreateConversationInput{
		Participants:  req.Participants,
		IsGroup:       req.IsGroup,
		GroupName:     req.GroupName,
		GroupImageRef: req.GroupImageRef,
		Admin:         req.Admin,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": id})
}

// ListMine maneja GET /conversations: snapshot no reactivo de la lista;
// la variante viva va por el websocket de suscripciones.
func (h *ConversationHandler) ListMine(c *gin.Context) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	summaries, err := h.conversationServ.ListMine(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}
