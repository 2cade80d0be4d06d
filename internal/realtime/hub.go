// Package realtime implementa las live queries del backend: una
// suscripción registra un closure de recomputación junto con los tópicos
// que su lectura cubre; cualquier escritura que invalida un tópico agenda
// la recomputación y el resultado nuevo se empuja al suscriptor por su
// canal persistente. Baja (unsubscribe) detiene la recomputación.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink es el extremo de push de un suscriptor (típicamente un websocket).
type Sink interface {
	Push(payload []byte) error
}

// Recompute produce el resultado vigente de la query suscrita.
type Recompute func(ctx context.Context) (interface{}, error)

// Update es el frame empujado al suscriptor en cada recomputación.
type Update struct {
	Type  string      `json:"type"`
	ID    string      `json:"id"`
	Query string      `json:"query"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type subscription struct {
	id        string
	query     string
	topics    []string
	recompute Recompute
	sink      Sink

	// dirty coalesce invalidaciones: una recomputación en vuelo absorbe
	// todas las marcas que lleguen mientras corre.
	dirty chan struct{}
	done  chan struct{}
	once  sync.Once
}

func (s *subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub mantiene las suscripciones activas indexadas por tópico y ejecuta
// sus recomputaciones. Satisface service.Invalidator.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	subs    map[string]*subscription
	byTopic map[string]map[string]*subscription
	bySink  map[Sink]map[string]struct{}

	recomputeTimeout time.Duration
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:           logger,
		subs:             make(map[string]*subscription),
		byTopic:          make(map[string]map[string]*subscription),
		bySink:           make(map[Sink]map[string]struct{}),
		recomputeTimeout: 15 * time.Second,
	}
}

// Subscribe registra la query y lanza su loop de recomputación. El primer
// resultado se empuja de inmediato; después, cada invalidación de alguno
// de los tópicos re-ejecuta el closure y empuja el resultado.
func (h *Hub) Subscribe(sink Sink, query string, topics []string, recompute Recompute) string {
	sub := &subscription{
		id:        uuid.NewString(),
		query:     query,
		topics:    topics,
		recompute: recompute,
		sink:      sink,
		dirty:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	for _, topic := range topics {
		set := h.byTopic[topic]
		if set == nil {
			set = make(map[string]*subscription)
			h.byTopic[topic] = set
		}
		set[sub.id] = sub
	}
	sinkSubs := h.bySink[sink]
	if sinkSubs == nil {
		sinkSubs = make(map[string]struct{})
		h.bySink[sink] = sinkSubs
	}
	sinkSubs[sub.id] = struct{}{}
	h.mu.Unlock()

	go h.run(sub)
	return sub.id
}

// Unsubscribe da de baja una suscripción; su recomputación se detiene.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub := h.removeLocked(id)
	h.mu.Unlock()
	if sub != nil {
		sub.stop()
	}
}

// DropSink da de baja todas las suscripciones de un sink (cierre de la
// conexión del cliente).
func (h *Hub) DropSink(sink Sink) {
	h.mu.Lock()
	var dropped []*subscription
	for id := range h.bySink[sink] {
		if sub := h.removeLocked(id); sub != nil {
			dropped = append(dropped, sub)
		}
	}
	delete(h.bySink, sink)
	h.mu.Unlock()
	for _, sub := range dropped {
		sub.stop()
	}
}

// Invalidate marca como sucias todas las suscripciones que leen alguno de
// los tópicos dados. No bloquea: el camino de escritura no espera a las
// recomputaciones.
func (h *Hub) Invalidate(topics ...string) {
	h.mu.RLock()
	for _, topic := range topics {
		for _, sub := range h.byTopic[topic] {
			sub.markDirty()
		}
	}
	h.mu.RUnlock()
}

// Shutdown detiene todas las suscripciones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	subs := make([]*subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[string]*subscription)
	h.byTopic = make(map[string]map[string]*subscription)
	h.bySink = make(map[Sink]map[string]struct{})
	h.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
}

func (h *Hub) run(sub *subscription) {
	h.deliver(sub)
	for {
		select {
		case <-sub.done:
			return
		case <-sub.dirty:
			h.deliver(sub)
		}
	}
}

func (h *Hub) deliver(sub *subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), h.recomputeTimeout)
	data, err := sub.recompute(ctx)
	cancel()

	frame := Update{Type: "update", ID: sub.id, Query: sub.query, Data: data}
	if err != nil {
		frame = Update{Type: "error", ID: sub.id, Query: sub.query, Error: err.Error()}
		h.logger.Warn("live query recompute failed",
			zap.String("query", sub.query),
			zap.Error(err),
		)
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("live query marshal failed", zap.Error(err))
		return
	}
	if err := sub.sink.Push(payload); err != nil {
		// El sink ya no recibe; la suscripción muere con él.
		h.Unsubscribe(sub.id)
	}
}

func (h *Hub) removeLocked(id string) *subscription {
	sub, ok := h.subs[id]
	if !ok {
		return nil
	}
	delete(h.subs, id)
	for _, topic := range sub.topics {
		set := h.byTopic[topic]
		delete(set, id)
		if len(set) == 0 {
			delete(h.byTopic, topic)
		}
	}
	if sinkSubs, ok := h.bySink[sub.sink]; ok {
		delete(sinkSubs, id)
		if len(sinkSubs) == 0 {
			delete(h.bySink, sub.sink)
		}
	}
	return sub
}
