package seqidx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/seqidx/codec"
	"github.com/hupe1980/seqidx/internal/lock"
	"github.com/hupe1980/seqidx/kvstore"
)

// Mode selects how Open attaches to a store.
type Mode int

const (
	// ModeReadOnly opens an existing index for queries. Multiple read-only
	// handles may share one store.
	ModeReadOnly Mode = iota

	// ModeReadWrite opens or creates an index for building and queries.
	// At most one writer may have the store open at a time.
	ModeReadWrite
)

// Location is the byte range of one record: the half-open interval
// [Start, End) within the file registered at FileIndex. Boundaries are
// line-aligned by construction.
type Location struct {
	FileIndex uint32
	Start     int64
	End       int64
}

// Index maps record ids to byte ranges in registered data files.
//
// An Index is safe for concurrent readers. Mixing writes (IndexFile,
// IndexFiles, Restore) with any other operation on the same handle requires
// external serialization; across processes the advisory lock taken by Open
// keeps writers exclusive.
type Index struct {
	store   kvstore.Store
	files   []FileEntry
	typeTag string

	headerPredicate HeaderPredicate
	idParser        IDParser
	limiter         *rate.Limiter

	flock *lock.FileLock

	logger  *Logger
	metrics MetricsCollector

	mu      sync.Mutex
	handles map[uint32]*os.File
	closed  bool
}

// Open opens the SQLite-backed index store at path. In ModeReadWrite the
// store file is created if missing, and an advisory lock on path+".lock"
// keeps other writers out (see WithoutLock). In ModeReadOnly the store must
// already exist.
//
// Open validates the store's type/version stamp and re-stats every
// registered data file; a changed size fails with ErrStaleIndex.
func Open(ctx context.Context, path string, mode Mode, optFns ...Option) (*Index, error) {
	if mode != ModeReadOnly && mode != ModeReadWrite {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, mode)
	}
	opts := applyOptions(optFns)

	var flock *lock.FileLock
	if mode == ModeReadWrite && !opts.disableLock {
		fl, err := lock.Acquire(path + ".lock")
		if err != nil {
			if errors.Is(err, lock.ErrHeld) {
				return nil, fmt.Errorf("%w: %q", ErrLocked, path)
			}
			return nil, err
		}
		flock = fl
	}

	store, err := kvstore.OpenSQLite(path, mode == ModeReadOnly)
	if err != nil {
		if flock != nil {
			flock.Release()
		}
		return nil, err
	}

	ix, err := newIndex(ctx, store, flock, opts)
	if err != nil {
		store.Close()
		if flock != nil {
			flock.Release()
		}
		return nil, err
	}

	ix.logger.LogOpen(ctx, path, store.ReadOnly(), len(ix.files))

	return ix, nil
}

// New wraps an existing store in an Index handle; the store's read-only flag
// decides the handle's mode. No advisory lock is taken, so the caller owns
// writer serialization. A successful New transfers ownership of the store to
// the handle: Close closes it. On error the store is left open.
func New(ctx context.Context, store kvstore.Store, optFns ...Option) (*Index, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidArgument)
	}
	return newIndex(ctx, store, nil, applyOptions(optFns))
}

func newIndex(ctx context.Context, store kvstore.Store, flock *lock.FileLock, opts options) (*Index, error) {
	ix := &Index{
		store:           store,
		typeTag:         opts.typeTag,
		headerPredicate: opts.headerPredicate,
		idParser:        opts.idParser,
		flock:           flock,
		logger:          opts.logger,
		metrics:         opts.metricsCollector,
		handles:         make(map[uint32]*os.File),
	}
	if opts.scanRateLimit > 0 {
		ix.limiter = rate.NewLimiter(rate.Limit(opts.scanRateLimit), opts.scanRateLimit)
	}

	if err := ix.initStamp(ctx); err != nil {
		return nil, err
	}
	files, err := ix.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRegistry(files); err != nil {
		return nil, err
	}
	ix.files = files

	return ix, nil
}

func (ix *Index) checkOpen() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return ErrClosed
	}
	return nil
}

// Close releases all cached file handles, the advisory lock and the store.
// Operations on a closed Index fail with ErrClosed, including a second Close.
func (ix *Index) Close() error {
	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		return ErrClosed
	}
	ix.closed = true
	handles := ix.handles
	ix.handles = nil
	ix.mu.Unlock()

	var firstErr error
	for _, f := range handles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if ix.flock != nil {
		if err := ix.flock.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		ix.flock = nil
	}
	if err := ix.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReadOnly reports whether the handle rejects writes.
func (ix *Index) ReadOnly() bool {
	return ix.store.ReadOnly()
}

// Lookup returns the stored byte range for id. An unknown id is reported as
// (Location{}, false, nil), not as an error. Ids in the reserved "__"
// namespace are always absent.
func (ix *Index) Lookup(ctx context.Context, id string) (Location, bool, error) {
	start := time.Now()
	loc, ok, err := ix.lookup(ctx, id)
	ix.metrics.RecordGet(time.Since(start), err)
	return loc, ok, err
}

func (ix *Index) lookup(ctx context.Context, id string) (Location, bool, error) {
	if err := ix.checkOpen(); err != nil {
		return Location{}, false, err
	}
	if id == "" || strings.HasPrefix(id, reservedPrefix) {
		return Location{}, false, nil
	}

	value, ok, err := ix.store.Get(ctx, id)
	if err != nil {
		return Location{}, false, err
	}
	if !ok {
		return Location{}, false, nil
	}

	fileIndex, first, last, err := codec.UnpackLocation(value)
	if err != nil {
		return Location{}, false, fmt.Errorf("record %q: %w", id, err)
	}
	if last <= first {
		return Location{}, false, fmt.Errorf("record %q: empty range [%d, %d): %w", id, first, last, ErrCorruptRecord)
	}
	return Location{FileIndex: fileIndex, Start: first, End: last}, true, nil
}

// IDs returns all record ids in ascending order. Reserved bookkeeping keys
// are excluded.
func (ix *Index) IDs(ctx context.Context) ([]string, error) {
	if err := ix.checkOpen(); err != nil {
		return nil, err
	}
	var ids []string
	err := ix.store.ForEach(ctx, func(key string, _ []byte) error {
		if !strings.HasPrefix(key, reservedPrefix) {
			ids = append(ids, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Stats summarizes the index contents.
type Stats struct {
	// Records is the number of record entries.
	Records int64
	// Files lists the registered data files in registration order.
	Files []FileEntry
	// IndexedBytes is the combined size of all registered files.
	IndexedBytes int64
	// UUID and Created identify the store's creation. Zero-valued on stores
	// written without identity keys.
	UUID    string
	Created time.Time
}

// Stats reports record and file counts plus the store identity.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	if err := ix.checkOpen(); err != nil {
		return Stats{}, err
	}

	total, err := ix.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	reserved := int64(len(ix.files))
	for _, key := range []string{keyType, keyVersion, keyUUID, keyCreated, keyFileCount} {
		_, ok, err := ix.store.Get(ctx, key)
		if err != nil {
			return Stats{}, err
		}
		if ok {
			reserved++
		}
	}

	stats := Stats{
		Records: total - reserved,
		Files:   append([]FileEntry(nil), ix.files...),
	}
	for _, entry := range ix.files {
		stats.IndexedBytes += entry.Size
	}
	stats.UUID, stats.Created = ix.identity(ctx)
	return stats, nil
}
