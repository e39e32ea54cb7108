// Package idempotency remembers the response of a POST by its
// Idempotency-Key so a retried request does not run the operation twice.
package idempotency

import (
	"context"
	"sync"
	"time"
)

type Response struct {
	Status int
	Result []byte
}

type Backend interface {
	Get(ctx context.Context, key string) (*Response, error)
	Set(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

type Idempotency struct {
	backend Backend
	ttl     time.Duration
}

func NewIdempotency(backend Backend, ttl time.Duration) *Idempotency {
	return &Idempotency{backend: backend, ttl: ttl}
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	if key == "" {
		return nil, nil
	}
	return i.backend.Get(ctx, key)
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	if key == "" {
		return nil
	}
	return i.backend.Set(ctx, key, resp, i.ttl)
}

// MemoryBackend keeps responses in process. Entries past their ttl are
// dropped on read.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	resp    Response
	expires time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	resp := e.resp
	return &resp, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, resp Response, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{resp: resp, expires: m.now().Add(ttl)}
	return nil
}
