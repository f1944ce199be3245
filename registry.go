package seqidx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hupe1980/seqidx/codec"
)

// FileEntry describes one registered data file. Entries are immutable:
// re-indexing the same path appends a fresh entry rather than reusing the old
// one.
type FileEntry struct {
	Index uint32
	Path  string
	Size  int64
}

// loadRegistry reads the registered file table. Entries must be dense 0..N-1;
// a gap means the store was damaged out-of-band.
func (ix *Index) loadRegistry(ctx context.Context) ([]FileEntry, error) {
	value, ok, err := ix.store.Get(ctx, keyFileCount)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	if !ok {
		return nil, nil
	}
	count, err := strconv.ParseUint(string(value), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("registry: file count %q: %w", value, ErrCorruptRecord)
	}

	entries := make([]FileEntry, 0, count)
	for i := uint32(0); i < uint32(count); i++ {
		value, ok, err := ix.store.Get(ctx, fileKey(i))
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("registry: missing entry %d of %d: %w", i, count, ErrCorruptRecord)
		}
		path, size, err := codec.UnpackFileInfo(value)
		if err != nil {
			return nil, fmt.Errorf("registry: entry %d: %w", i, err)
		}
		entries = append(entries, FileEntry{Index: i, Path: path, Size: size})
	}
	return entries, nil
}

// validateRegistry re-stats every registered file. A size change means the
// stored byte ranges can no longer be trusted. Same-size in-place edits are
// not detectable here; Verify catches those.
func validateRegistry(entries []FileEntry) error {
	for _, entry := range entries {
		info, err := os.Stat(entry.Path)
		if err != nil {
			return fmt.Errorf("registry: stat %q: %w", entry.Path, err)
		}
		if info.Size() != entry.Size {
			return &StaleFileError{Path: entry.Path, IndexedSize: entry.Size, ActualSize: info.Size()}
		}
	}
	return nil
}

// checkIndexable rejects paths that cannot be registered: relative paths,
// directories and files that do not exist or cannot be opened for reading.
func checkIndexable(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %q is a directory", ErrInvalidPath, path)
	}
	return nil
}

// registerFile appends a file entry and commits it by advancing the file
// count. The count write is the commit point: a crash between the two writes
// leaves a dangling entry value that the next registration overwrites.
func (ix *Index) registerFile(ctx context.Context, path string, size int64) (FileEntry, error) {
	entry := FileEntry{Index: uint32(len(ix.files)), Path: path, Size: size}
	if err := ix.store.Put(ctx, fileKey(entry.Index), codec.PackFileInfo(path, size)); err != nil {
		return FileEntry{}, fmt.Errorf("registry: %w", err)
	}
	if err := ix.store.Put(ctx, keyFileCount, []byte(strconv.FormatUint(uint64(entry.Index)+1, 10))); err != nil {
		return FileEntry{}, fmt.Errorf("registry: %w", err)
	}
	ix.files = append(ix.files, entry)
	return entry, nil
}

func (ix *Index) fileEntry(fileIndex uint32) (FileEntry, error) {
	if uint64(fileIndex) >= uint64(len(ix.files)) {
		return FileEntry{}, fmt.Errorf("record references unknown file index %d: %w", fileIndex, ErrCorruptRecord)
	}
	return ix.files[fileIndex], nil
}
