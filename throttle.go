package seqidx

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttledReader paces reads through a token bucket, one token per byte.
// Chunks are capped at the limiter burst so a single large read can never
// overdraw the bucket.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if waitErr := t.limiter.WaitN(t.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
