package seqidx

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/seqidx/codec"
)

// VerifyStats reports what a verification pass covered.
type VerifyStats struct {
	Files   int
	Records int64
}

// Verify re-checks the whole index against the data files: every registered
// file must still have its indexed size, every stored record must decode,
// lie inside its file, begin at a header line, and re-parse to its own key.
// Files are checked concurrently; the first failure wins.
func (ix *Index) Verify(ctx context.Context) (VerifyStats, error) {
	start := time.Now()
	stats, err := ix.verify(ctx)
	ix.metrics.RecordVerify(time.Since(start), err)
	ix.logger.LogVerify(ctx, stats.Files, stats.Records, err)
	return stats, err
}

type recordCheck struct {
	id  string
	loc Location
}

func (ix *Index) verify(ctx context.Context) (VerifyStats, error) {
	if err := ix.checkOpen(); err != nil {
		return VerifyStats{}, err
	}
	if err := validateRegistry(ix.files); err != nil {
		return VerifyStats{}, err
	}

	// Bucket records per file so each file is walked by one goroutine.
	buckets := make([][]recordCheck, len(ix.files))
	err := ix.store.ForEach(ctx, func(key string, value []byte) error {
		if strings.HasPrefix(key, reservedPrefix) {
			return nil
		}
		fileIndex, first, last, err := codec.UnpackLocation(value)
		if err != nil {
			return fmt.Errorf("record %q: %w", key, err)
		}
		if uint64(fileIndex) >= uint64(len(buckets)) {
			return fmt.Errorf("record %q references unknown file index %d: %w", key, fileIndex, ErrCorruptRecord)
		}
		buckets[fileIndex] = append(buckets[fileIndex], recordCheck{
			id:  key,
			loc: Location{FileIndex: fileIndex, Start: first, End: last},
		})
		return nil
	})
	if err != nil {
		return VerifyStats{}, err
	}

	var records atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		entry, checks := ix.files[i], bucket
		g.Go(func() error {
			f, err := ix.readHandle(entry)
			if err != nil {
				return err
			}
			for _, check := range checks {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := ix.verifyRecord(f, entry, check); err != nil {
					return err
				}
				records.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return VerifyStats{}, err
	}

	return VerifyStats{Files: len(ix.files), Records: records.Load()}, nil
}

// verifyRecord checks one record's bounds and re-parses its header line.
// Reads go through a SectionReader so the shared cached handle stays free of
// seek state.
func (ix *Index) verifyRecord(f *os.File, entry FileEntry, check recordCheck) error {
	loc := check.loc
	if loc.Start < 0 || loc.End <= loc.Start || loc.End > entry.Size {
		return fmt.Errorf("record %q: range [%d, %d) outside %q (size %d): %w",
			check.id, loc.Start, loc.End, entry.Path, entry.Size, ErrCorruptRecord)
	}

	br := bufio.NewReaderSize(io.NewSectionReader(f, loc.Start, loc.End-loc.Start), scanBufSize)
	header, err := br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return fmt.Errorf("record %q: read header: %w", check.id, err)
	}

	stripped := trimEOL(header)
	if !ix.headerPredicate(stripped) {
		return fmt.Errorf("record %q: no header at offset %d in %q: %w",
			check.id, loc.Start, entry.Path, ErrCorruptRecord)
	}
	id, parseErr := ix.idParser(stripped)
	if parseErr != nil || id != check.id {
		return fmt.Errorf("record %q: header at offset %d parses to %q: %w",
			check.id, loc.Start, id, ErrCorruptRecord)
	}
	return nil
}
