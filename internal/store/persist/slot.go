// Package persist provides the durable key-value slots the state store
// writes its serialized document into.
package persist

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound indicates that nothing has been saved under the requested key.
var ErrNotFound = errors.New("persist: not found")

// Slot stores opaque documents under fixed keys.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MemorySlot keeps documents in process memory. Useful for tests and for
// running without durable storage.
type MemorySlot struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemorySlot constructs an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

// Load returns a copy of the document stored under key.
func (s *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the document stored under key.
func (s *MemorySlot) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), data...)
	return nil
}
