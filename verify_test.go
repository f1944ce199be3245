package seqidx

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/seqidx/codec"
	"github.com/hupe1980/seqidx/kvstore"
	"github.com/hupe1980/seqidx/testutil"
)

func TestVerify_FreshIndex(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	dir := t.TempDir()

	g := testutil.NewGenerator(11)
	one := testutil.WriteFASTA(t, dir, "one.fa", g.Records(40))
	moreRecs := g.Records(60)
	for i := range moreRecs {
		moreRecs[i].ID = "alt_" + moreRecs[i].ID
	}
	two := testutil.WriteFASTA(t, dir, "two.fa", moreRecs)

	total, err := ix.IndexFiles(ctx, one, two)
	require.NoError(t, err)
	require.Equal(t, 100, total)

	stats, err := ix.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, VerifyStats{Files: 2, Records: 100}, stats)
}

func TestVerify_SizeChanged(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	path := indexSample(t, ix)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(">c\nSEQ3\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ix.Verify(ctx)
	require.ErrorIs(t, err, ErrStaleIndex)
}

func TestVerify_CorruptEntries(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{name: "undecodable value", key: "bad", value: []byte("junk")},
		{name: "unknown file index", key: "ghost", value: codec.PackLocation(9, 0, 8)},
		{name: "range past eof", key: "a", value: codec.PackLocation(0, 8, 999)},
		{name: "misaligned start", key: "a", value: codec.PackLocation(0, 1, 9)},
		{name: "id mismatch", key: "a", value: codec.PackLocation(0, 8, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kvstore.NewMemory()
			ix, err := New(ctx, store)
			require.NoError(t, err)
			defer ix.Close()

			path := testutil.WriteFile(t, t.TempDir(), "sample.fa", []byte(sampleFASTA))
			_, err = ix.IndexFile(ctx, path)
			require.NoError(t, err)

			require.NoError(t, store.Put(ctx, tt.key, tt.value))

			_, err = ix.Verify(ctx)
			require.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestVerify_SurvivesGetTraffic(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)

	// Verification shares the cached read handles with Get.
	_, ok, err := ix.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := ix.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, VerifyStats{Files: 1, Records: 2}, stats)

	data, ok, err := ix.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ">b\nSEQ2\n", string(data))
}
