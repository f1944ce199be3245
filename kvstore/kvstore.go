// Package kvstore provides the persistent key-value store underlying a seqidx
// index.
//
// A Store maps string keys to opaque byte-string values and survives process
// restarts. The index layer treats the on-disk byte layout as an
// implementation detail of the backend; the logical contents are exactly the
// keyed records it writes.
//
// # Built-in Implementations
//
//   - SQLiteStore: single-file on-disk store (modernc.org/sqlite, cgo-free)
//   - MemoryStore: map-backed store for tests and ephemeral indexes
//
// Stores are safe for concurrent readers. A store opened for writing follows a
// single-writer discipline: concurrent external writers to the same file are
// not supported, and crash recovery guarantees are those of the backend (for
// SQLite, a crash mid-write leaves a structurally valid database).
package kvstore

import (
	"context"
	"errors"
)

// ErrReadOnly is returned when a write is attempted on a store opened
// read-only.
var ErrReadOnly = errors.New("kvstore: store is read-only")

// Store is an on-disk (or in-memory) associative store used to persist index
// records.
type Store interface {
	// Get returns the value stored under key. Absence is reported as
	// (nil, false, nil), not as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, overwriting any previous value. It fails
	// with ErrReadOnly on a read-only store.
	Put(ctx context.Context, key string, value []byte) error

	// ForEach calls fn for every key/value pair in ascending key order.
	// Returning an error from fn stops the iteration and surfaces that error.
	ForEach(ctx context.Context, fn func(key string, value []byte) error) error

	// Count returns the total number of stored pairs.
	Count(ctx context.Context) (int64, error)

	// ReadOnly reports whether the store rejects writes.
	ReadOnly() bool

	// Close releases the store. Operations after Close fail.
	Close() error
}
