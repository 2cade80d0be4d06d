package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clone-chat/internal/storage"
)

// UploadHandler mantiene dependencias para la ingesta de media: emisión
// de slots, recepción del binario out of band y serving de objetos.
type UploadHandler struct {
	logger  *zap.Logger
	gateway *storage.LocalGateway
}

// NewUploadHandler crea una instancia con dependencias necesarias.
func NewUploadHandler(logger *zap.Logger, gateway *storage.LocalGateway) *UploadHandler {
	return &UploadHandler{logger: logger, gateway: gateway}
}

// IssueSlot maneja POST /uploads: emite la capability de subida.
func (h *UploadHandler) IssueSlot(c *gin.Context) {
	slot, err := h.gateway.IssueSlot(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slot": slot})
}

// Receive maneja PUT /uploads/:slot: el transporte sube el binario crudo
// con su content type nativo contra la URL emitida y recibe la
// referencia opaca del objeto.
func (h *UploadHandler) Receive(c *gin.Context) {
	ref, err := h.gateway.Store(
		c.Request.Context(),
		c.Param("slot"),
		c.ContentType(),
		c.Request.Body,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"storage_ref": ref})
}

// Serve maneja GET /media/:object.
func (h *UploadHandler) Serve(c *gin.Context) {
	path, err := h.gateway.ObjectPath(c.Param("object"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.File(path)
}
