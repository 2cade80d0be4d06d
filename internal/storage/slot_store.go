package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlotStore guarda los tokens de slot emitidos con su TTL y garantiza
// consumo de un solo uso. Un slot nunca consumido expira solo.
type SlotStore interface {
	Issue(ctx context.Context, id string, ttl time.Duration) error
	Consume(ctx context.Context, id string) (bool, error)
}

type memorySlotStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemorySlotStore() SlotStore {
	return &memorySlotStore{items: make(map[string]time.Time)}
}

func (s *memorySlotStore) Issue(_ context.Context, id string, ttl time.Duration) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = time.Now().UTC().Add(ttl)
	return nil
}

func (s *memorySlotStore) Consume(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[id]
	if !ok {
		return false, nil
	}
	delete(s.items, id)
	if time.Now().UTC().After(exp) {
		return false, nil
	}
	return true, nil
}

// redisSlotKV es el subconjunto del cliente de Redis que usa el store;
// facilita mockearlo en tests.
type redisSlotKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

type redisSlotStore struct {
	client redisSlotKV
	prefix string
}

func NewRedisSlotStore(client *redis.Client) SlotStore {
	if client == nil {
		return nil
	}
	return &redisSlotStore{
		client: client,
		prefix: "media:slot:",
	}
}

func (s *redisSlotStore) Issue(ctx context.Context, id string, ttl time.Duration) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return s.client.Set(ctx, s.prefix+id, "1", ttl).Err()
}

func (s *redisSlotStore) Consume(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	// GETDEL hace atómico el consumo: dos subidas concurrentes contra el
	// mismo slot no pueden ganar las dos.
	val, err := s.client.GetDel(ctx, s.prefix+id).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val != "", nil
}
