// Package memory is the single-process store backend.
package memory

import (
	"context"
	"sync"

	"github.com/robertarktes/venue-sync/internal/domain"
)

type KV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewKV() *KV {
	return &KV{values: map[string]string{}}
}

func (kv *KV) Get(_ context.Context, keys ...string) (map[string]string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := kv.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (kv *KV) CompareAndSwap(_ context.Context, expect, writes map[string]string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	for k, want := range expect {
		if kv.values[k] != want {
			return domain.ErrSerializationFailure
		}
	}
	for k, v := range writes {
		kv.values[k] = v
	}
	return nil
}
