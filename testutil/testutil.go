package testutil

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const bases = "ACGT"

// Record is one sequence record: an id, an optional header description and
// body lines.
type Record struct {
	ID          string
	Description string
	Lines       []string
}

// Header renders the record's header line without a terminator.
func (r Record) Header() string {
	if r.Description == "" {
		return ">" + r.ID
	}
	return ">" + r.ID + " " + r.Description
}

// Generator produces deterministic pseudo-random records.
// It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewGenerator creates a Generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rand: rand.New(rand.NewSource(seed))}
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rand.Intn(n)
}

// Sequence returns a random base string of length n.
func (g *Generator) Sequence(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = bases[g.intn(len(bases))]
	}
	return string(b)
}

// Records returns count records named seq0000, seq0001, ... each with one to
// four body lines of up to sixty bases.
func (g *Generator) Records(count int) []Record {
	recs := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		rec := Record{ID: fmt.Sprintf("seq%04d", i)}
		for j, lines := 0, 1+g.intn(4); j < lines; j++ {
			rec.Lines = append(rec.Lines, g.Sequence(1+g.intn(60)))
		}
		recs = append(recs, rec)
	}
	return recs
}

// RenderFASTA renders records to FASTA text using the given line terminator
// ("\n" or "\r\n").
func RenderFASTA(recs []Record, eol string) []byte {
	var buf bytes.Buffer
	for _, rec := range recs {
		buf.WriteString(rec.Header())
		buf.WriteString(eol)
		for _, line := range rec.Lines {
			buf.WriteString(line)
			buf.WriteString(eol)
		}
	}
	return buf.Bytes()
}

// WriteFASTA writes records as a FASTA file under dir and returns its path.
func WriteFASTA(tb testing.TB, dir, name string, recs []Record) string {
	tb.Helper()
	return WriteFile(tb, dir, name, RenderFASTA(recs, "\n"))
}

// WriteFile writes raw fixture bytes under dir and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
