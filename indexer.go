package seqidx

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/seqidx/codec"
)

const scanBufSize = 64 * 1024

// HeaderPredicate reports whether a line (passed without its terminator)
// starts a new record.
type HeaderPredicate func(line []byte) bool

// IDParser extracts the record id from a header line (passed without its
// terminator). Returning an error or an empty id drops the record.
type IDParser func(header []byte) (string, error)

// DefaultHeaderPredicate treats lines starting with '>' as record headers,
// the FASTA convention.
func DefaultHeaderPredicate(line []byte) bool {
	return len(line) > 0 && line[0] == '>'
}

var errNoMarker = errors.New("no header marker")

// DefaultIDParser returns the token following the '>' marker, ending at the
// first space, tab or '|'.
func DefaultIDParser(header []byte) (string, error) {
	if len(header) == 0 || header[0] != '>' {
		return "", errNoMarker
	}
	id := header[1:]
	if i := bytes.IndexAny(id, " \t|"); i >= 0 {
		id = id[:i]
	}
	return string(id), nil
}

// IndexFile scans one data file and writes an index entry per record,
// registering the file first. Records are keyed by parsed id; a header whose
// id cannot be parsed (or is empty, or lies in the reserved "__" namespace)
// drops that record with a warning and the scan continues. A file with no
// header lines at all registers fine and contributes zero records.
//
// Entries are written record by record: if indexing fails partway, entries
// written so far stay committed and queryable. Returns the number of records
// written.
func (ix *Index) IndexFile(ctx context.Context, path string) (int, error) {
	start := time.Now()
	records, err := ix.indexFile(ctx, path)
	ix.metrics.RecordIndexFile(records, time.Since(start), err)
	ix.logger.LogIndexFile(ctx, path, records, err)
	return records, err
}

func (ix *Index) indexFile(ctx context.Context, path string) (int, error) {
	if err := ix.checkOpen(); err != nil {
		return 0, err
	}
	if ix.store.ReadOnly() {
		return 0, ErrReadOnly
	}
	if !filepath.IsAbs(path) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %q is a directory", ErrInvalidPath, path)
	}

	entry, err := ix.registerFile(ctx, path, info.Size())
	if err != nil {
		return 0, err
	}
	return ix.scan(ctx, f, entry)
}

// scan walks the file once with a running byte offset. A header line closes
// the pending record at the header's begin offset and opens a new one; EOF
// closes the last pending record at the total byte count. Offsets always
// advance by raw line length, so CRLF files index byte-exact.
func (ix *Index) scan(ctx context.Context, f *os.File, entry FileEntry) (int, error) {
	var r io.Reader = f
	if ix.limiter != nil {
		r = &throttledReader{ctx: ctx, r: f, limiter: ix.limiter}
	}
	br := bufio.NewReaderSize(r, scanBufSize)

	var (
		offset       int64
		pending      bool
		pendingID    string
		pendingStart int64
		records      int
	)
	for {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			lineStart := offset
			offset += int64(len(line))

			if stripped := trimEOL(line); ix.headerPredicate(stripped) {
				if pending {
					if err := ix.putRecord(ctx, pendingID, entry.Index, pendingStart, lineStart); err != nil {
						return records, err
					}
					records++
					pending = false
				}
				id, parseErr := ix.idParser(stripped)
				switch {
				case parseErr != nil:
					ix.logger.LogSkippedRecord(ctx, entry.Path, lineStart, parseErr.Error())
				case id == "":
					ix.logger.LogSkippedRecord(ctx, entry.Path, lineStart, "empty record id")
				case strings.HasPrefix(id, reservedPrefix):
					ix.logger.LogSkippedRecord(ctx, entry.Path, lineStart, "reserved id prefix")
				default:
					pending, pendingID, pendingStart = true, id, lineStart
				}
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return records, fmt.Errorf("scan %q: %w", entry.Path, readErr)
		}
	}

	if pending {
		if err := ix.putRecord(ctx, pendingID, entry.Index, pendingStart, offset); err != nil {
			return records, err
		}
		records++
	}
	return records, nil
}

func (ix *Index) putRecord(ctx context.Context, id string, fileIndex uint32, start, end int64) error {
	if err := ix.store.Put(ctx, id, codec.PackLocation(fileIndex, start, end)); err != nil {
		return fmt.Errorf("record %q: %w", id, err)
	}
	return nil
}

// IndexFiles indexes the given files in order. Every path is validated up
// front, so argument errors never leave a partial build; a failure while
// indexing, though, leaves entries from earlier files committed and
// queryable. Returns the total number of records written.
func (ix *Index) IndexFiles(ctx context.Context, paths ...string) (int, error) {
	if err := ix.checkOpen(); err != nil {
		return 0, err
	}
	if ix.store.ReadOnly() {
		return 0, ErrReadOnly
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("%w: no paths", ErrInvalidArgument)
	}

	for _, path := range paths {
		if err := checkIndexable(path); err != nil {
			return 0, err
		}
	}

	var total int
	for _, path := range paths {
		records, err := ix.IndexFile(ctx, path)
		total += records
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func trimEOL(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return line[:n]
}
