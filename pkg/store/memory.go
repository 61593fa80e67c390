package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// NewMemory returns a Persistence that keeps both partitions in memory. The
// synced partition still enforces quotas. Watch is not supported.
func NewMemory(opts SyncedOptions) Persistence {
	return &memoryPersistence{
		local:  newMemoryBucket(),
		synced: withQuota(newMemoryBucket(), opts.QuotaBytes, opts.QuotaBytesPerItem),
	}
}

type memoryPersistence struct {
	local  Bucket
	synced Bucket
}

func (m *memoryPersistence) Bucket(p Partition) Bucket {
	if p == Synced {
		return m.synced
	}
	return m.local
}

func (m *memoryPersistence) Watch(context.Context) (<-chan Event, error) {
	return nil, errors.New("store: memory persistence cannot be watched")
}

func (m *memoryPersistence) Close() error { return nil }

type memoryBucket struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{items: make(map[string][]byte)}
}

func (b *memoryBucket) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (b *memoryBucket) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	b.items[key] = v
	return nil
}

func (b *memoryBucket) Remove(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, key)
	return nil
}

func (b *memoryBucket) Keys(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.items))
	for k := range b.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
