package ratelimit

import (
	"context"
	"io"
)

// ThrottledReader wraps r so every Read first waits on throttle for
// enough tokens to cover the caller's buffer, one token per byte. A buffer
// larger than the throttle's capacity is served only up to that capacity.
// Short reads from r are retried until the granted span is filled or r
// returns an error (including io.EOF).
func ThrottledReader(ctx context.Context, r io.Reader, throttle Throttle) io.Reader {
	return &throttledReader{ctx: ctx, wrapped: r, throttle: throttle}
}

type throttledReader struct {
	ctx      context.Context
	wrapped  io.Reader
	throttle Throttle
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	tokens := uint64(len(p))
	if cap := tr.throttle.Capacity(); tokens > cap {
		tokens = cap
		p = p[:tokens]
	}

	if err := tr.throttle.Wait(tr.ctx, tokens); err != nil {
		return 0, err
	}

	var n int
	var err error
	for len(p) > 0 && err == nil {
		var m int
		m, err = tr.wrapped.Read(p)
		n += m
		p = p[m:]
	}
	return n, err
}
