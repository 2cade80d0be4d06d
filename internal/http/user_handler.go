package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clone-chat/internal/service"
)

// UserHandler mantiene dependencias para endpoints de usuarios: webhooks
// de provisioning/presencia del proveedor externo y directorio.
type UserHandler struct {
	logger        *zap.Logger
	userServ      *service.UserService
	webhookSecret string
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, webhookSecret string) *UserHandler {
	return &UserHandler{
		logger:        logger,
		userServ:      userServ,
		webhookSecret: webhookSecret,
	}
}

// UpsertWebhook maneja POST /webhooks/users: alta en el primer contacto
// autenticado, actualización de perfil en los siguientes.
func (h *UserHandler) UpsertWebhook(c *gin.Context) {
	if !h.authorizeWebhook(c) {
		return
	}

	var req struct {
		TokenIdentifier string `json:"token_identifier" binding:"required"`
		Name            string `json:"name"`
		Email           string `json:"email"`
		Image           string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid user webhook request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.userServ.Upsert(c.Request.Context(), service.UpsertInput{
		TokenIdentifier: req.TokenIdentifier,
		Name:            req.Name,
		Email:           req.Email,
		Image:           req.Image,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PresenceWebhook maneja POST /webhooks/users/presence.
func (h *UserHandler) PresenceWebhook(c *gin.Context) {
	if !h.authorizeWebhook(c) {
		return
	}

	var req struct {
		TokenIdentifier string `json:"token_identifier" binding:"required"`
		Online          *bool  `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid presence webhook request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.userServ.SetOnline(c.Request.Context(), req.TokenIdentifier, *req.Online); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListUsers maneja GET /users: el directorio excluyendo al caller.
func (h *UserHandler) ListUsers(c *gin.Context) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	users, err := h.userServ.List(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) authorizeWebhook(c *gin.Context) bool {
	secret := c.GetHeader("X-Webhook-Secret")
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return false
	}
	return true
}
