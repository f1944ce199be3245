// Package codec packs index records into the opaque byte strings kept in the
// key-value store.
//
// Seqidx intentionally treats the packed layout as a breaking-change boundary:
// bytes written by a different layout may no longer unpack, which is why every
// store also carries a format version stamp that is validated on open.
//
// Records are sequences of decimal/string fields joined by a single separator
// byte (ASCII FS, 0x1C). The separator is a control character that cannot
// appear in decimal offsets and does not occur in sane file paths, so packing
// needs no escaping and unpacking is a plain split. The arity is unbounded:
// the same primitive carries both the 3-field record location and the 2-field
// file metadata record.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Separator joins packed fields. ASCII FS: not whitespace, not a digit, and
// never produced by the decimal formatting of offsets.
const Separator byte = 0x1C

// ErrCorrupt is returned when stored bytes do not unpack to the expected
// field count or field types.
var ErrCorrupt = errors.New("codec: corrupt record")

// Pack joins the given fields with Separator.
//
// Fields must not contain the separator byte themselves; Pack does not escape.
// All callers in this module pack decimal numbers or absolute file paths, for
// which the separator cannot occur.
func Pack(fields ...string) []byte {
	if len(fields) == 0 {
		return []byte{}
	}
	n := len(fields) - 1
	for _, f := range fields {
		n += len(f)
	}
	buf := make([]byte, 0, n)
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, Separator)
		}
		buf = append(buf, f...)
	}
	return buf
}

// Unpack splits packed bytes back into their fields.
//
// Unpack(Pack(fields...)) returns fields unchanged for every input whose
// fields are free of the separator byte.
func Unpack(data []byte) []string {
	parts := bytes.Split(data, []byte{Separator})
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = string(p)
	}
	return fields
}

// PackLocation packs a record location (file index, start offset, one-past-end
// offset) for storage under the record's identifier.
func PackLocation(fileIndex uint32, start, end int64) []byte {
	return Pack(
		strconv.FormatUint(uint64(fileIndex), 10),
		strconv.FormatInt(start, 10),
		strconv.FormatInt(end, 10),
	)
}

// UnpackLocation reverses PackLocation.
//
// It fails with an error wrapping ErrCorrupt if the field count is not three
// or any field is not a non-negative decimal number.
func UnpackLocation(data []byte) (fileIndex uint32, start, end int64, err error) {
	fields := Unpack(data)
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: want 3 location fields, got %d", ErrCorrupt, len(fields))
	}
	fi, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: file index %q", ErrCorrupt, fields[0])
	}
	start, err = parseOffset(fields[1])
	if err != nil {
		return 0, 0, 0, err
	}
	end, err = parseOffset(fields[2])
	if err != nil {
		return 0, 0, 0, err
	}
	return uint32(fi), start, end, nil
}

// PackFileInfo packs the per-file metadata record (source path, size in bytes
// at index time).
func PackFileInfo(path string, size int64) []byte {
	return Pack(path, strconv.FormatInt(size, 10))
}

// UnpackFileInfo reverses PackFileInfo.
func UnpackFileInfo(data []byte) (path string, size int64, err error) {
	fields := Unpack(data)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("%w: want 2 file fields, got %d", ErrCorrupt, len(fields))
	}
	if fields[0] == "" {
		return "", 0, fmt.Errorf("%w: empty file path", ErrCorrupt)
	}
	size, err = parseOffset(fields[1])
	if err != nil {
		return "", 0, err
	}
	return fields[0], size, nil
}

func parseOffset(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: offset %q", ErrCorrupt, s)
	}
	return v, nil
}
