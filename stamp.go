package seqidx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTypeTag identifies the record kind this package writes. Stores
	// stamped with a different tag are rejected at open.
	DefaultTypeTag = "seqidx/records"

	// FormatVersion is the on-store format version. Stores written with a
	// different version are rejected; there is no migration.
	FormatVersion = 1
)

// Bookkeeping lives under the reserved "__" key namespace, keeping it out of
// the record id space. Record ids starting with the prefix are not indexable.
const (
	reservedPrefix = "__"

	keyType      = "__TYPE"
	keyVersion   = "__VERSION"
	keyUUID      = "__UUID"
	keyCreated   = "__CREATED"
	keyFileCount = "__FILE_COUNT"

	fileKeyPrefix = "__FILE_"
)

func fileKey(n uint32) string {
	return fileKeyPrefix + strconv.FormatUint(uint64(n), 10)
}

// initStamp stamps an empty writable store, or validates the stamp of a
// non-empty one. Read-only stores are never written, so an empty read-only
// store fails validation with an absent type tag.
func (ix *Index) initStamp(ctx context.Context) error {
	n, err := ix.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("stamp: %w", err)
	}
	if n == 0 && !ix.store.ReadOnly() {
		return ix.writeStamp(ctx)
	}
	return ix.validateStamp(ctx)
}

func (ix *Index) writeStamp(ctx context.Context) error {
	stamp := []struct{ key, value string }{
		{keyType, ix.typeTag},
		{keyVersion, strconv.Itoa(FormatVersion)},
		{keyUUID, uuid.NewString()},
		{keyCreated, time.Now().UTC().Format(time.RFC3339)},
	}
	for _, kv := range stamp {
		if err := ix.store.Put(ctx, kv.key, []byte(kv.value)); err != nil {
			return fmt.Errorf("stamp: %w", err)
		}
	}
	return nil
}

func (ix *Index) validateStamp(ctx context.Context) error {
	for _, check := range []struct{ key, want string }{
		{keyType, ix.typeTag},
		{keyVersion, strconv.Itoa(FormatVersion)},
	} {
		value, ok, err := ix.store.Get(ctx, check.key)
		if err != nil {
			return fmt.Errorf("stamp: %w", err)
		}
		if !ok {
			return &IncompatibleIndexError{Key: check.key, Want: check.want}
		}
		if string(value) != check.want {
			return &IncompatibleIndexError{Key: check.key, Want: check.want, Got: string(value)}
		}
	}
	return nil
}

// identity returns the store's creation identity, zero-valued when absent.
func (ix *Index) identity(ctx context.Context) (string, time.Time) {
	var (
		id      string
		created time.Time
	)
	if value, ok, err := ix.store.Get(ctx, keyUUID); err == nil && ok {
		id = string(value)
	}
	if value, ok, err := ix.store.Get(ctx, keyCreated); err == nil && ok {
		if t, err := time.Parse(time.RFC3339, string(value)); err == nil {
			created = t
		}
	}
	return id, created
}
