package seqidx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqidx/kvstore"
	"github.com/hupe1980/seqidx/testutil"
)

func dumpOf(t *testing.T, ix *Index) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ix.Dump(context.Background(), &buf))
	return buf.Bytes()
}

func TestDumpRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)

	snapshot := dumpOf(t, ix)

	restored, err := New(ctx, kvstore.NewMemory())
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Restore(ctx, bytes.NewReader(snapshot)))

	wantIDs, err := ix.IDs(ctx)
	require.NoError(t, err)
	gotIDs, err := restored.IDs(ctx)
	require.NoError(t, err)
	require.Equal(t, wantIDs, gotIDs)

	data, ok, err := restored.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ">a\nSEQ1\n", string(data))

	// Identity travels with the snapshot.
	wantStats, err := ix.Stats(ctx)
	require.NoError(t, err)
	gotStats, err := restored.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, wantStats, gotStats)

	vstats, err := restored.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, VerifyStats{Files: 1, Records: 2}, vstats)
}

func TestRestore_TargetNotEmpty(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)
	snapshot := dumpOf(t, ix)

	target, err := New(ctx, kvstore.NewMemory())
	require.NoError(t, err)
	defer target.Close()
	indexSample(t, target)

	err = target.Restore(ctx, bytes.NewReader(snapshot))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRestore_ReadOnly(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	snapshot := dumpOf(t, ix)

	store := kvstore.NewMemory()
	rw, err := New(ctx, store)
	require.NoError(t, err)
	defer rw.Close()
	store.Freeze()

	err = rw.Restore(ctx, bytes.NewReader(snapshot))
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestRestore_IncompatibleHeader(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)
	snapshot := dumpOf(t, ix)

	tests := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{name: "bad magic", mangle: func(d []byte) []byte { d[0] ^= 0xFF; return d }},
		{name: "unknown version", mangle: func(d []byte) []byte { d[4] = 0x7F; return d }},
		{name: "unknown flags", mangle: func(d []byte) []byte { d[6] = 0x00; return d }},
		{name: "truncated header", mangle: func(d []byte) []byte { return d[:4] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := New(ctx, kvstore.NewMemory())
			require.NoError(t, err)
			defer target.Close()

			mangled := tt.mangle(append([]byte(nil), snapshot...))
			err = target.Restore(ctx, bytes.NewReader(mangled))
			require.ErrorIs(t, err, ErrIncompatibleDump)
		})
	}
}

func TestRestore_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)
	snapshot := dumpOf(t, ix)

	tests := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{name: "truncated stream", mangle: func(d []byte) []byte { return d[:len(d)-6] }},
		{name: "flipped payload byte", mangle: func(d []byte) []byte { d[len(d)/2] ^= 0xFF; return d }},
		{name: "empty payload", mangle: func(d []byte) []byte { return d[:dumpHeaderLen] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := New(ctx, kvstore.NewMemory())
			require.NoError(t, err)
			defer target.Close()

			mangled := tt.mangle(append([]byte(nil), snapshot...))
			err = target.Restore(ctx, bytes.NewReader(mangled))
			require.ErrorIs(t, err, ErrCorruptDump)
		})
	}
}

func TestRestore_TypeTagMismatch(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)
	snapshot := dumpOf(t, ix)

	target, err := New(ctx, kvstore.NewMemory(), WithTypeTag("proteins/v2"))
	require.NoError(t, err)
	defer target.Close()

	err = target.Restore(ctx, bytes.NewReader(snapshot))
	require.ErrorIs(t, err, ErrIncompatibleIndex)
}

func TestRestore_MissingDataFile(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	path := indexSample(t, ix)
	snapshot := dumpOf(t, ix)

	require.NoError(t, os.Remove(path))

	target, err := New(ctx, kvstore.NewMemory())
	require.NoError(t, err)
	defer target.Close()

	err = target.Restore(ctx, bytes.NewReader(snapshot))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDump_SQLiteToMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dataPath := testutil.WriteFile(t, dir, "sample.fa", []byte(sampleFASTA))

	disk, err := Open(ctx, filepath.Join(dir, "recs.idx"), ModeReadWrite)
	require.NoError(t, err)
	_, err = disk.IndexFiles(ctx, dataPath)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, disk.Dump(ctx, &buf))
	require.NoError(t, disk.Close())

	// Snapshots are backend-independent.
	restored, err := New(ctx, kvstore.NewMemory())
	require.NoError(t, err)
	defer restored.Close()

	require.NoError(t, restored.Restore(ctx, &buf))
	data, ok, err := restored.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ">b\nSEQ2\n", string(data))
}
