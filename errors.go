package seqidx

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/seqidx/codec"
	"github.com/hupe1980/seqidx/kvstore"
)

var (
	// ErrInvalidArgument is returned when an operation is called with
	// arguments that can never be valid, such as indexing an empty path list.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPath is returned when a data file path is not absolute.
	ErrInvalidPath = errors.New("path must be absolute")

	// ErrNotFound reports a missing file. It aliases os.ErrNotExist so both
	// errors.Is(err, ErrNotFound) and errors.Is(err, os.ErrNotExist) match.
	ErrNotFound = os.ErrNotExist

	// ErrCorruptRecord reports a stored entry that does not decode to a valid
	// tuple. It aliases codec.ErrCorrupt.
	ErrCorruptRecord = codec.ErrCorrupt

	// ErrReadOnly is returned when a mutating operation is called on a
	// read-only index. It aliases kvstore.ErrReadOnly.
	ErrReadOnly = kvstore.ErrReadOnly

	// ErrStaleIndex is returned when an indexed file changed size since it
	// was indexed, so stored byte ranges can no longer be trusted.
	ErrStaleIndex = errors.New("index is stale")

	// ErrIncompatibleIndex is returned when a store carries a type tag or
	// format version this package cannot serve.
	ErrIncompatibleIndex = errors.New("incompatible index")

	// ErrClosed is returned by all operations on a closed index.
	ErrClosed = errors.New("index is closed")

	// ErrLocked is returned when another process holds the write lock on the
	// store.
	ErrLocked = errors.New("store is locked by another process")

	// ErrIncompatibleDump is returned by Restore when the input is not a dump
	// this package can read (bad magic, unknown version or flags).
	ErrIncompatibleDump = errors.New("incompatible dump")

	// ErrCorruptDump is returned by Restore when the dump payload fails its
	// integrity checks.
	ErrCorruptDump = errors.New("corrupt dump")
)

// StaleFileError reports a registered file whose current size differs from
// the size recorded at indexing time.
//
// It matches ErrStaleIndex via errors.Is.
type StaleFileError struct {
	Path        string
	IndexedSize int64
	ActualSize  int64
}

func (e *StaleFileError) Error() string {
	return fmt.Sprintf("stale file %q: indexed size %d, actual size %d", e.Path, e.IndexedSize, e.ActualSize)
}

func (e *StaleFileError) Unwrap() error { return ErrStaleIndex }

// IncompatibleIndexError reports a stamp value that does not match what this
// handle expects. Got is empty when the key is absent entirely.
//
// It matches ErrIncompatibleIndex via errors.Is.
type IncompatibleIndexError struct {
	Key  string
	Want string
	Got  string
}

func (e *IncompatibleIndexError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("incompatible index: %s absent, want %q", e.Key, e.Want)
	}
	return fmt.Sprintf("incompatible index: %s is %q, want %q", e.Key, e.Got, e.Want)
}

func (e *IncompatibleIndexError) Unwrap() error { return ErrIncompatibleIndex }
