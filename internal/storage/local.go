package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalGateway implementa Gateway sobre un directorio local: los slots
// viven en un SlotStore (Redis o memoria) y los objetos se escriben como
// archivos servidos bajo <base>/media/<ref>.
type LocalGateway struct {
	dir     string
	baseURL string
	slots   SlotStore
	slotTTL time.Duration
}

func NewLocalGateway(dir, baseURL string, slots SlotStore, slotTTL time.Duration) (*LocalGateway, error) {
	if slotTTL <= 0 {
		slotTTL = 10 * time.Minute
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalGateway{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		slots:   slots,
		slotTTL: slotTTL,
	}, nil
}

func (g *LocalGateway) IssueSlot(ctx context.Context) (Slot, error) {
	id := uuid.NewString()
	if err := g.slots.Issue(ctx, id, g.slotTTL); err != nil {
		return Slot{}, err
	}
	return Slot{
		ID:        id,
		UploadURL: g.baseURL + "/uploads/" + id,
		ExpiresAt: time.Now().UTC().Add(g.slotTTL),
	}, nil
}

func (g *LocalGateway) Store(ctx context.Context, slotID, contentType string, r io.Reader) (string, error) {
	ok, err := g.slots.Consume(ctx, slotID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSlotInvalid
	}

	ref := uuid.NewString() + extensionFor(contentType)
	f, err := os.Create(filepath.Join(g.dir, ref))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return ref, nil
}

func (g *LocalGateway) Resolve(ctx context.Context, ref string) (string, error) {
	path, err := g.ObjectPath(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", ErrObjectNotFound
	}
	return g.baseURL + "/media/" + ref, nil
}

// refPattern limita las referencias a lo que Store emite; rechaza
// cualquier intento de path traversal en el serving.
var refPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+(\.[a-z0-9]+)?$`)

// ObjectPath devuelve la ruta local del objeto referido.
func (g *LocalGateway) ObjectPath(ref string) (string, error) {
	if !refPattern.MatchString(ref) {
		return "", ErrObjectNotFound
	}
	return filepath.Join(g.dir, ref), nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ".bin"
	}
}
