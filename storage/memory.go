package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process DocumentStore with the same TTL semantics as
// the Redis one. Used in tests and when no REDIS_URL is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	done    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}
	go ms.janitor()
	return ms
}

func (ms *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ms.done:
			return
		case now := <-ticker.C:
			ms.sweep(now)
		}
	}
}

func (ms *MemoryStore) sweep(now time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for key, entry := range ms.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(ms.entries, key)
		}
	}
}

func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	ms.mu.RLock()
	entry, ok := ms.entries[key]
	ms.mu.RUnlock()

	if !ok || (!entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now())) {
		return nil, ErrNotFound
	}

	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return data, nil
}

func (ms *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	} else if prev, ok := ms.entries[key]; ok {
		entry.expiresAt = prev.expiresAt
	}
	ms.entries[key] = entry
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, key)
	return nil
}

func (ms *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	now := time.Now()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var keys []string
	for key, entry := range ms.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (ms *MemoryStore) Close() error {
	ms.once.Do(func() { close(ms.done) })
	return nil
}
