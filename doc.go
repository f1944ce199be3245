// Package seqidx provides a persistent byte-range index for flat-file record
// archives such as FASTA sequence files.
//
// An index maps record ids, parsed from header lines, to exact byte ranges
// inside one or more data files. Once built, any record of a multi-gigabyte
// archive is retrievable with a single positioned read, without scanning and
// without loading the archive into memory.
//
// Features:
//
//   - Persistent single-file store (SQLite, cgo-free) or in-memory store
//   - Multi-file indexes with a dense file registry
//   - Lazy per-file read handles, shared by concurrent readers
//   - Staleness detection: size-changed data files are rejected at open
//   - Type/version stamping so foreign or newer stores fail fast
//   - Pluggable header recognition and id parsing
//   - Advisory write locking for single-writer safety across processes
//   - Full-index verification with bounded concurrency
//   - Compressed, checksummed dump/restore snapshots
//   - Structured logging (log/slog) and pluggable metrics
//
// # Quick Start
//
// Build an index over a FASTA file and fetch one record:
//
//	ctx := context.Background()
//
//	idx, err := seqidx.Open(ctx, "/data/genome.idx", seqidx.ModeReadWrite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
//	if _, err := idx.IndexFiles(ctx, "/data/genome.fa"); err != nil {
//	    log.Fatal(err)
//	}
//
//	data, ok, err := idx.Get(ctx, "chr1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if ok {
//	    fmt.Printf("%s", data)
//	}
//
// Reopen later, read-only, without re-indexing:
//
//	idx, err := seqidx.Open(ctx, "/data/genome.idx", seqidx.ModeReadOnly)
//
// # Record Model
//
// A data file is a sequence of text lines. A line matching the header
// predicate (by default, a leading '>') starts a record; the record runs to
// the next header or end of file. The id is parsed from the header line (by
// default, the token after '>' up to the first space, tab or '|'). Byte
// ranges are exact: Get returns the header line and all body lines,
// terminators included.
//
// Record absence is not an error: Get, GetLines and Lookup report a missing
// id as found == false. Errors are reserved for real failures (I/O,
// corruption, staleness, incompatibility).
//
// # Staleness
//
// The index stores each file's size at indexing time and re-stats files at
// open and during Verify. A changed size fails with ErrStaleIndex: byte
// ranges into a rewritten file must not be trusted. Rebuilding the index is
// the only recovery; there is no incremental repair.
package seqidx
