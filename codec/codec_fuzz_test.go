package codec

import (
	"bytes"
	"testing"
)

// FuzzUnpackLocation ensures arbitrary stored bytes either unpack cleanly or
// fail with ErrCorrupt; they must never panic or round-trip inexactly.
func FuzzUnpackLocation(f *testing.F) {
	f.Add(PackLocation(0, 0, 8))
	f.Add(PackLocation(3, 1024, 4096))
	f.Add([]byte{})
	f.Add([]byte("0\x1c0"))
	f.Add([]byte("not a record"))
	f.Add(bytes.Repeat([]byte{0x1C}, 16))

	f.Fuzz(func(t *testing.T, data []byte) {
		fi, start, end, err := UnpackLocation(data)
		if err != nil {
			return
		}
		if start < 0 || end < 0 {
			t.Fatalf("negative offsets unpacked: start=%d end=%d", start, end)
		}
		// Parsing accepts non-canonical decimals (leading zeros), so assert a
		// semantic round trip rather than byte equality with the input.
		fi2, start2, end2, err := UnpackLocation(PackLocation(fi, start, end))
		if err != nil || fi2 != fi || start2 != start || end2 != end {
			t.Fatalf("re-pack mismatch: %q -> (%d,%d,%d) -> (%d,%d,%d, %v)",
				data, fi, start, end, fi2, start2, end2, err)
		}
	})
}

// FuzzPackUnpackFields checks the generic split/join round-trip for
// separator-free fields.
func FuzzPackUnpackFields(f *testing.F) {
	f.Add("id42", "/data/archive.fa", "1000")
	f.Add("", "", "")

	f.Fuzz(func(t *testing.T, a, b, c string) {
		for _, s := range []string{a, b, c} {
			if bytes.ContainsRune([]byte(s), rune(Separator)) {
				t.Skip()
			}
		}
		got := Unpack(Pack(a, b, c))
		if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
			t.Fatalf("round trip mismatch: got %q", got)
		}
	})
}
