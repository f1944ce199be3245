package seqidx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Get returns the raw bytes of the record stored under id: its header line
// through the last byte before the next record (or end of file). An unknown
// id is reported as (nil, false, nil), not as an error.
func (ix *Index) Get(ctx context.Context, id string) ([]byte, bool, error) {
	start := time.Now()
	data, ok, err := ix.get(ctx, id)
	ix.metrics.RecordGet(time.Since(start), err)
	ix.logger.LogGet(ctx, id, ok, err)
	return data, ok, err
}

func (ix *Index) get(ctx context.Context, id string) ([]byte, bool, error) {
	loc, ok, err := ix.lookup(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}

	entry, err := ix.fileEntry(loc.FileIndex)
	if err != nil {
		return nil, false, fmt.Errorf("record %q: %w", id, err)
	}
	data, err := ix.readRange(entry, loc)
	if err != nil {
		return nil, false, fmt.Errorf("record %q: %w", id, err)
	}
	return data, true, nil
}

// GetLines returns the record's lines without their terminators. Both "\n"
// and "\r\n" terminate a line; a missing final newline still yields the last
// line.
func (ix *Index) GetLines(ctx context.Context, id string) ([]string, bool, error) {
	data, ok, err := ix.Get(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return splitLines(data), true, nil
}

// readHandle returns the cached read handle for entry, opening it on first
// use. Handles carry no seek state (all reads go through ReadAt), so one
// handle per file serves concurrent readers.
func (ix *Index) readHandle(entry FileEntry) (*os.File, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil, ErrClosed
	}
	if f, ok := ix.handles[entry.Index]; ok {
		return f, nil
	}
	f, err := os.Open(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("open indexed file: %w", err)
	}
	ix.handles[entry.Index] = f
	return f, nil
}

// readRange reads exactly [Start, End). Record boundaries are line-aligned
// at indexing time, so the range covers whole lines. A file shrunk out from
// under the index surfaces as an unexpected EOF.
func (ix *Index) readRange(entry FileEntry, loc Location) ([]byte, error) {
	f, err := ix.readHandle(entry)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, loc.End-loc.Start)
	n, err := f.ReadAt(buf, loc.Start)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read %q [%d, %d): %w", entry.Path, loc.Start, loc.End, err)
}

func splitLines(data []byte) []string {
	var lines []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			lines = append(lines, string(trimEOL(data)))
			break
		}
		lines = append(lines, string(trimEOL(data[:i+1])))
		data = data[i+1:]
	}
	return lines
}
