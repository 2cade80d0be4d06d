// Package storage implementa el gateway de ingesta de media: capabilities
// de subida de un solo uso y resolución de objetos subidos a URLs durables.
// El gateway nunca toca los bytes del payload en el camino de emisión; el
// transporte sube el binario out of band contra la URL emitida.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Slot es una capability de subida de corta vida y un solo uso.
type Slot struct {
	ID        string    `json:"id"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gateway emite slots de subida y resuelve referencias de objetos.
type Gateway interface {
	// IssueSlot produce una capability de un solo uso para una subida.
	IssueSlot(ctx context.Context) (Slot, error)
	// Store consume el slot y persiste los bytes subidos, devolviendo la
	// referencia opaca del objeto. Un slot ya consumido o vencido falla.
	Store(ctx context.Context, slotID, contentType string, r io.Reader) (string, error)
	// Resolve convierte una referencia de objeto completado en una URL
	// estable y públicamente resoluble.
	Resolve(ctx context.Context, ref string) (string, error)
}

var (
	// ErrSlotInvalid: el slot no existe, venció o ya fue consumido.
	ErrSlotInvalid = errors.New("upload slot invalid or already used")
	// ErrObjectNotFound: la referencia no corresponde a una subida completada.
	ErrObjectNotFound = errors.New("storage object not found")
)
