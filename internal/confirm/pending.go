package confirm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingStore holds proposed intents until they are confirmed or expire.
// Take removes the entry; a second Take of the same id reports ok=false.
type PendingStore interface {
	Put(ctx context.Context, id string, payload []byte, ttl time.Duration) error
	Take(ctx context.Context, id string) (payload []byte, ok bool, err error)
}

type memEntry struct {
	payload []byte
	expires time.Time
}

// MemoryStore keeps pending intents in-process. Expired entries are swept on Put.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	clock   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memEntry{}, clock: time.Now}
}

// WithClock overrides the clock for tests.
func (m *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	m.clock = clock
	return m
}

func (m *MemoryStore) Put(_ context.Context, id string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[id] = memEntry{payload: append([]byte(nil), payload...), expires: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) Take(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false, nil
	}
	delete(m.entries, id)
	if !m.clock().Before(e.expires) {
		return nil, false, nil
	}
	return e.payload, true, nil
}

const redisKeyPrefix = "rollcall:pending:"

// RedisStore shares pending intents between instances. GETDEL makes Take atomic.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Put(ctx context.Context, id string, payload []byte, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+id, payload, ttl).Err()
}

func (s *RedisStore) Take(ctx context.Context, id string) ([]byte, bool, error) {
	b, err := s.client.GetDel(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}
