package storage

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type MemoryBackend struct {
	mu      sync.RWMutex
	clients map[string]map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{clients: make(map[string]map[string]string)}
}

func (b *MemoryBackend) Open(clientID string) Store {
	return &memoryStore{backend: b, clientID: clientID}
}

func (b *MemoryBackend) Close() error { return nil }

type memoryStore struct {
	backend  *MemoryBackend
	clientID string
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	v, ok := s.backend.clients[s.clientID][key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	kv, ok := s.backend.clients[s.clientID]
	if !ok {
		kv = make(map[string]string)
		s.backend.clients[s.clientID] = kv
	}
	kv[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	for _, k := range keys {
		delete(s.backend.clients[s.clientID], k)
	}
	return nil
}

// NewMemoryStore returns a standalone store, handy in tests.
func NewMemoryStore() Store {
	return NewMemoryBackend().Open("local")
}

// MemoryCache is a TTL cache for single-process deployments.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value   string
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: c.now().Add(ttl)}
	return nil
}

// Incr counts within a fixed window that starts at the first increment.
func (c *MemoryCache) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.expires) {
		e = cacheEntry{value: "0", expires: now.Add(window)}
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		n = 0
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.entries[key] = e
	return n, nil
}
