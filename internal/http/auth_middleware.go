package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clone-chat/internal/domain"
	"clone-chat/internal/service"
)

const callerKey = "auth_caller"

// AuthMiddleware valida el bearer token de la sesión y resuelve el caller
// a su User durable, guardándolo en el contexto. "No logueado" (401) y
// "sesión válida sin usuario" (403) son fallas distinguibles.
func AuthMiddleware(tokens *service.TokenService, identity *service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := bearerSubject(c, tokens)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			c.Abort()
			return
		}

		caller, err := identity.ResolveCaller(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.JSON(http.StatusForbidden, gin.H{"error": "user not provisioned"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			}
			c.Abort()
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func bearerSubject(c *gin.Context, tokens *service.TokenService) (string, error) {
	if tokens == nil {
		return "", service.ErrUnauthenticated
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		// Los clientes websocket del navegador no pueden setear headers;
		// se acepta el token por query string en ese caso.
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return "", service.ErrUnauthenticated
		}
		return tokens.Parse(token)
	}
	return tokens.Parse(strings.TrimSpace(header[len("Bearer "):]))
}

// GetCaller obtiene el User autenticado desde el contexto.
func GetCaller(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(callerKey)
	if !ok {
		return domain.User{}, false
	}
	caller, ok := val.(domain.User)
	return caller, ok
}
