package querycache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one cached query result.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Store keeps entries until their gc time elapses. Staleness is decided by the
// Client, not the store.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error
}

// EvictionPolicy picks which key a full MemoryStore drops next.
type EvictionPolicy interface {
	Added(key string)
	Accessed(key string)
	Removed(key string)
	Victim() (string, bool)
}

// LRU evicts the least recently used key.
type LRU struct {
	order *list.List
	elems map[string]*list.Element
}

func NewLRU() *LRU {
	return &LRU{order: list.New(), elems: make(map[string]*list.Element)}
}

func (l *LRU) Added(key string) {
	if el, ok := l.elems[key]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.elems[key] = l.order.PushFront(key)
}

func (l *LRU) Accessed(key string) {
	if el, ok := l.elems[key]; ok {
		l.order.MoveToFront(el)
	}
}

func (l *LRU) Removed(key string) {
	if el, ok := l.elems[key]; ok {
		l.order.Remove(el)
		delete(l.elems, key)
	}
}

func (l *LRU) Victim() (string, bool) {
	el := l.order.Back()
	if el == nil {
		return "", false
	}
	return el.Value.(string), true
}

type memoryItem struct {
	entry     *Entry
	expiresAt time.Time
}

// MemoryStore is an in-process Store bounded by MaxEntries.
type MemoryStore struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	policy     EvictionPolicy
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore returns a store holding at most maxEntries keys (unbounded when
// <= 0). A nil policy means LRU.
func NewMemoryStore(maxEntries int, policy EvictionPolicy) *MemoryStore {
	if policy == nil {
		policy = NewLRU()
	}
	return &MemoryStore{
		items:      make(map[string]memoryItem),
		policy:     policy,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	if !it.expiresAt.IsZero() && !s.now().Before(it.expiresAt) {
		s.removeLocked(key)
		return nil, false, nil
	}
	s.policy.Accessed(key)
	return it.entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	if _, exists := s.items[key]; !exists && s.maxEntries > 0 {
		for len(s.items) >= s.maxEntries {
			victim, ok := s.policy.Victim()
			if !ok {
				break
			}
			s.removeLocked(victim)
		}
	}
	s.items[key] = memoryItem{entry: e, expiresAt: exp}
	s.policy.Added(key)
	return nil
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) removeLocked(key string) {
	delete(s.items, key)
	s.policy.Removed(key)
}

const redisKeyPrefix = "kafelog:qc:"

// RedisStore shares cache entries across instances. Redis expiry enforces gc time.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKeyPrefix+key, raw, ttl).Err()
}
