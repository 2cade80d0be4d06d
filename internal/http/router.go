package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clone-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens *service.TokenService,
	identity *service.IdentityService,
	userH *UserHandler,
	conversationH *ConversationHandler,
	messageH *MessageHandler,
	uploadH *UploadHandler,
	wsH *WSHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	// Colaboradores externos: provisioning/presencia desde el proveedor
	// de auth, subida out of band y serving de media.
	webhooks := r.Group("/webhooks")
	webhooks.POST("/users", userH.UpsertWebhook)
	webhooks.POST("/users/presence", userH.PresenceWebhook)

	r.PUT("/uploads/:slot", uploadH.Receive)
	r.GET("/media/:object", uploadH.Serve)

	// Superficie de operaciones autenticada.
	authed := r.Group("/", AuthMiddleware(tokens, identity))
	authed.GET("/users", userH.ListUsers)
	authed.POST("/conversations", conversationH.CreateOrGet)
	authed.GET("/conversations", conversationH.ListMine)
	authed.POST("/conversations/:id/messages", messageH.Append)
	authed.POST("/conversations/:id/messages/image", messageH.AppendImage)
	authed.POST("/conversations/:id/messages/video", messageH.AppendVideo)
	authed.GET("/conversations/:id/messages", messageH.ListEnriched)
	authed.POST("/uploads", uploadH.IssueSlot)
	authed.GET("/ws", wsH.Serve)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
