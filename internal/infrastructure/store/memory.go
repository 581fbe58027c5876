package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// MemoryBackend is a process-local store shared by several contexts. Each
// context talks to it through its own handle; a write through one handle is
// reported to the watchers of every other handle.
type MemoryBackend struct {
	mu          sync.Mutex
	data        map[string][]byte
	quota       int
	unavailable bool
	handles     []*MemoryHandle
}

// NewMemoryBackend creates a backend. A positive quota caps the total size
// of keys and values in bytes.
func NewMemoryBackend(quotaBytes int) *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte), quota: quotaBytes}
}

// Handle returns a new context handle. An empty origin gets a random one.
func (b *MemoryBackend) Handle(origin string) *MemoryHandle {
	if origin == "" {
		origin = uuid.NewString()
	}
	h := &MemoryHandle{backend: b, origin: origin}
	b.mu.Lock()
	b.handles = append(b.handles, h)
	b.mu.Unlock()
	return h
}

// SetUnavailable makes every operation fail with ErrStoreUnavailable.
func (b *MemoryBackend) SetUnavailable(down bool) {
	b.mu.Lock()
	b.unavailable = down
	b.mu.Unlock()
}

func (b *MemoryBackend) usage(key string, value []byte) int {
	total := 0
	for k, v := range b.data {
		if k == key {
			continue
		}
		total += len(k) + len(v)
	}
	return total + len(key) + len(value)
}

func (b *MemoryBackend) broadcast(from *MemoryHandle, change ports.StorageChange) {
	b.mu.Lock()
	handles := slices.Clone(b.handles)
	b.mu.Unlock()

	for _, h := range handles {
		if h == from {
			continue
		}
		h.deliver(change)
	}
}

// MemoryHandle is one context's view of a MemoryBackend.
type MemoryHandle struct {
	backend *MemoryBackend
	origin  string
	subs    watchers
}

// Origin implements ports.KeyValueStore.
func (h *MemoryHandle) Origin() string { return h.origin }

// Get implements ports.KeyValueStore.
func (h *MemoryHandle) Get(_ context.Context, key string) ([]byte, bool, error) {
	b := h.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unavailable {
		return nil, false, ports.ErrStoreUnavailable
	}
	v, ok := b.data[key]
	return slices.Clone(v), ok, nil
}

// Set implements ports.KeyValueStore.
func (h *MemoryHandle) Set(_ context.Context, key string, value []byte) error {
	b := h.backend
	b.mu.Lock()
	if b.unavailable {
		b.mu.Unlock()
		return ports.ErrStoreUnavailable
	}
	if b.quota > 0 && b.usage(key, value) > b.quota {
		b.mu.Unlock()
		return ports.ErrQuotaExceeded
	}
	b.data[key] = slices.Clone(value)
	b.mu.Unlock()

	b.broadcast(h, ports.StorageChange{Key: key, Value: slices.Clone(value), Origin: h.origin})
	return nil
}

// Delete implements ports.KeyValueStore.
func (h *MemoryHandle) Delete(_ context.Context, key string) error {
	b := h.backend
	b.mu.Lock()
	if b.unavailable {
		b.mu.Unlock()
		return ports.ErrStoreUnavailable
	}
	_, existed := b.data[key]
	delete(b.data, key)
	b.mu.Unlock()

	if existed {
		b.broadcast(h, ports.StorageChange{Key: key, Origin: h.origin})
	}
	return nil
}

// Watch implements ports.KeyValueStore.
func (h *MemoryHandle) Watch(fn func(ports.StorageChange)) ports.Subscription {
	return h.subs.add(fn)
}

func (h *MemoryHandle) deliver(change ports.StorageChange) {
	h.subs.notify(change)
}

var _ ports.KeyValueStore = (*MemoryHandle)(nil)
