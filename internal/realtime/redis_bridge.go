package realtime

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const invalidationChannel = "clone-chat:invalidations"

// RedisBridge propaga invalidaciones entre nodos por pub/sub: Invalidate
// publica en Redis y cada nodo suscripto reenvía al hub local. Con un
// solo nodo o sin Redis se usa el Hub directo como Invalidator.
type RedisBridge struct {
	logger *zap.Logger
	client *redis.Client
	hub    *Hub
}

func NewRedisBridge(logger *zap.Logger, client *redis.Client, hub *Hub) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{logger: logger, client: client, hub: hub}
}

// Invalidate publica los tópicos; el hub local se entera por la misma
// suscripción que los demás nodos.
func (b *RedisBridge) Invalidate(topics ...string) {
	if len(topics) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	payload := strings.Join(topics, "\n")
	if err := b.client.Publish(ctx, invalidationChannel, payload).Err(); err != nil {
		b.logger.Warn("invalidation publish failed", zap.Error(err))
		// Fallback local: los suscriptores de este nodo no pierden el update.
		b.hub.Invalidate(topics...)
	}
}

// Run consume el canal de invalidaciones hasta que el contexto cierre.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, invalidationChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.hub.Invalidate(strings.Split(msg.Payload, "\n")...)
		}
	}
}
