package seqidx

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zstd"
)

var dumpMagic = [4]byte{'S', 'Q', 'X', '1'}

const (
	dumpVersion  = uint16(1)
	dumpFlagZstd = uint16(1)

	dumpHeaderLen = 16 // magic + version + flags + reserved

	// maxDumpFieldLen bounds a single key or value so a corrupted length
	// prefix cannot trigger a huge allocation.
	maxDumpFieldLen = 64 << 20
)

// Dump writes a portable snapshot of the whole store to w: a fixed header in
// the clear, then a zstd stream of length-prefixed key/value pairs in
// ascending key order with an entry count and CRC-32 trailer. The snapshot
// includes the stamp and file registry, so Restore reproduces the index
// exactly, identity included.
func (ix *Index) Dump(ctx context.Context, w io.Writer) error {
	entries, err := ix.dump(ctx, w)
	ix.logger.LogDump(ctx, entries, err)
	return err
}

func (ix *Index) dump(ctx context.Context, w io.Writer) (uint64, error) {
	if err := ix.checkOpen(); err != nil {
		return 0, err
	}

	var hdr [dumpHeaderLen]byte
	copy(hdr[:4], dumpMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], dumpVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], dumpFlagZstd)
	// hdr[8:16] reserved
	if _, err := w.Write(hdr[:]); err != nil {
		return 0, fmt.Errorf("dump: write header: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("dump: %w", err)
	}

	// The checksum covers every framed byte of the pair section including
	// the terminator; the trailer itself is excluded.
	sum := crc32.NewIEEE()
	payload := io.MultiWriter(zw, sum)

	var (
		entries uint64
		scratch [binary.MaxVarintLen64]byte
	)
	writeField := func(b []byte) error {
		n := binary.PutUvarint(scratch[:], uint64(len(b)))
		if _, err := payload.Write(scratch[:n]); err != nil {
			return err
		}
		if len(b) == 0 {
			return nil
		}
		_, err := payload.Write(b)
		return err
	}

	err = ix.store.ForEach(ctx, func(key string, value []byte) error {
		if key == "" {
			// A zero-length key is the stream terminator and cannot be
			// represented.
			return fmt.Errorf("empty key")
		}
		if err := writeField([]byte(key)); err != nil {
			return err
		}
		if err := writeField(value); err != nil {
			return err
		}
		entries++
		return nil
	})
	if err != nil {
		zw.Close()
		return entries, fmt.Errorf("dump: %w", err)
	}

	n := binary.PutUvarint(scratch[:], 0)
	if _, err := payload.Write(scratch[:n]); err != nil {
		zw.Close()
		return entries, fmt.Errorf("dump: %w", err)
	}

	var tail [12]byte
	binary.LittleEndian.PutUint64(tail[0:8], entries)
	binary.LittleEndian.PutUint32(tail[8:12], sum.Sum32())
	if _, err := zw.Write(tail[:]); err != nil {
		zw.Close()
		return entries, fmt.Errorf("dump: %w", err)
	}

	if err := zw.Close(); err != nil {
		return entries, fmt.Errorf("dump: %w", err)
	}
	return entries, nil
}

// Restore loads a Dump snapshot into this handle's store. The handle must be
// writable and the store must hold nothing beyond the stamp written at open;
// the snapshot's stamp (identity included) replaces it. The snapshot's type
// tag and format version must match the handle's, and its registered files
// must resolve on this host with their recorded sizes.
//
// Pairs stream straight into the store, so a Restore that fails partway
// leaves partial contents behind; restore into a fresh store and discard it
// on failure.
func (ix *Index) Restore(ctx context.Context, r io.Reader) error {
	entries, err := ix.restore(ctx, r)
	ix.logger.LogRestore(ctx, entries, err)
	return err
}

func (ix *Index) restore(ctx context.Context, r io.Reader) (uint64, error) {
	if err := ix.checkOpen(); err != nil {
		return 0, err
	}
	if ix.store.ReadOnly() {
		return 0, ErrReadOnly
	}
	stats, err := ix.Stats(ctx)
	if err != nil {
		return 0, err
	}
	if stats.Records != 0 || len(stats.Files) != 0 {
		return 0, fmt.Errorf("%w: target store is not empty", ErrInvalidArgument)
	}

	var hdr [dumpHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, fmt.Errorf("%w: short header", ErrIncompatibleDump)
	}
	if [4]byte(hdr[:4]) != dumpMagic {
		return 0, fmt.Errorf("%w: bad magic", ErrIncompatibleDump)
	}
	if version := binary.LittleEndian.Uint16(hdr[4:6]); version != dumpVersion {
		return 0, fmt.Errorf("%w: version %d", ErrIncompatibleDump, version)
	}
	if flags := binary.LittleEndian.Uint16(hdr[6:8]); flags != dumpFlagZstd {
		return 0, fmt.Errorf("%w: flags %#x", ErrIncompatibleDump, flags)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptDump, err)
	}
	defer zr.Close()

	cr := &crcReader{r: bufio.NewReaderSize(zr, scanBufSize), sum: crc32.NewIEEE()}

	var entries uint64
	for {
		key, err := cr.readField()
		if err != nil {
			return entries, fmt.Errorf("%w: %v", ErrCorruptDump, err)
		}
		if len(key) == 0 {
			break
		}
		value, err := cr.readField()
		if err != nil {
			return entries, fmt.Errorf("%w: %v", ErrCorruptDump, err)
		}
		if err := ix.store.Put(ctx, string(key), value); err != nil {
			return entries, err
		}
		entries++
	}

	wantSum := cr.sum.Sum32()
	var tail [12]byte
	if _, err := io.ReadFull(cr.r, tail[:]); err != nil {
		return entries, fmt.Errorf("%w: short trailer", ErrCorruptDump)
	}
	if count := binary.LittleEndian.Uint64(tail[0:8]); count != entries {
		return entries, fmt.Errorf("%w: %d entries, trailer says %d", ErrCorruptDump, entries, count)
	}
	if sum := binary.LittleEndian.Uint32(tail[8:12]); sum != wantSum {
		return entries, fmt.Errorf("%w: checksum mismatch", ErrCorruptDump)
	}

	if err := ix.validateStamp(ctx); err != nil {
		return entries, err
	}
	files, err := ix.loadRegistry(ctx)
	if err != nil {
		return entries, err
	}
	if err := validateRegistry(files); err != nil {
		return entries, err
	}
	ix.files = files

	return entries, nil
}

// crcReader hashes every byte it reads so the dump trailer can be checked.
type crcReader struct {
	r   *bufio.Reader
	sum hash.Hash32
	one [1]byte
}

func (c *crcReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err != nil {
		return 0, err
	}
	c.one[0] = b
	c.sum.Write(c.one[:])
	return b, nil
}

func (c *crcReader) readField() ([]byte, error) {
	length, err := binary.ReadUvarint(c)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	if length > maxDumpFieldLen {
		return nil, fmt.Errorf("field length %d exceeds limit", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, err
	}
	c.sum.Write(buf)
	return buf, nil
}
