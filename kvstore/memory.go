package kvstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and ephemeral indexes. Contents
// are lost on Close.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string][]byte
	readOnly bool
	closed   bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemory returns an empty writable in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Freeze switches the store to read-only. Existing contents stay readable,
// further Puts fail with ErrReadOnly. It models closing a store and reopening
// it read-only without losing the in-memory contents.
func (s *MemoryStore) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = true
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, fmt.Errorf("kvstore: get %q: %w", key, os.ErrClosed)
	}
	value, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("kvstore: put %q: %w", key, os.ErrClosed)
	}
	if s.readOnly {
		return ErrReadOnly
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.items[key] = stored
	return nil
}

// ForEach implements Store.
func (s *MemoryStore) ForEach(ctx context.Context, fn func(key string, value []byte) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("kvstore: iterate: %w", os.ErrClosed)
	}
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	s.mu.RUnlock()

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, ok, err := s.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("kvstore: count: %w", os.ErrClosed)
	}
	return int64(len(s.items)), nil
}

// ReadOnly implements Store.
func (s *MemoryStore) ReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return os.ErrClosed
	}
	s.closed = true
	s.items = nil
	return nil
}
