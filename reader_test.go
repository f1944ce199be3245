package seqidx

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/seqidx/testutil"
)

func TestGet_WholeFileTiling(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	path := indexSample(t, ix)

	a, ok, err := ix.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	b, ok, err := ix.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(raw), string(a)+string(b))
}

func TestGetLines(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	path := testutil.WriteFile(t, t.TempDir(), "multi.fa",
		[]byte(">a desc here\nAAAA\nCCCC\n>b\nGG\n"))

	_, err := ix.IndexFile(ctx, path)
	require.NoError(t, err)

	lines, ok, err := ix.GetLines(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{">a desc here", "AAAA", "CCCC"}, lines)

	_, ok, err = ix.GetLines(ctx, "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGet_HandleCacheReuse(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	indexSample(t, ix)

	for i := 0; i < 5; i++ {
		_, ok, err := ix.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	require.Len(t, ix.handles, 1)
}

func TestGet_TruncatedDataFile(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	path := indexSample(t, ix)

	// Shrink the file under the open index; the stored range for "b" now
	// runs past EOF.
	require.NoError(t, os.Truncate(path, 10))

	_, _, err := ix.Get(ctx, "b")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestGet_DeletedDataFile(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)
	path := indexSample(t, ix)

	require.NoError(t, os.Remove(path))

	_, _, err := ix.Get(ctx, "a")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestGet_ConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	ix := newMemoryIndex(t)

	recs := testutil.NewGenerator(3).Records(64)
	path := testutil.WriteFASTA(t, t.TempDir(), "conc.fa", recs)
	_, err := ix.IndexFile(ctx, path)
	require.NoError(t, err)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, rec := range recs {
		g.Go(func() error {
			data, ok, err := ix.Get(gctx, rec.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("record %q missing", rec.ID)
			}
			if want := rec.Header(); string(data[:len(want)]) != want {
				return fmt.Errorf("record %q: wrong header", rec.ID)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
