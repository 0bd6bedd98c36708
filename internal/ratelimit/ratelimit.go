// Package ratelimit throttles data connection reads to a fixed number of
// bytes per second.
package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// maxChunk caps a single read so that waits stay short.
const maxChunk = 8 * 1024

// New returns a limiter allowing bytesPerSecond bytes per second. The burst
// is one second of data, capped at maxChunk. A non-positive rate returns
// nil, which NewReader treats as unlimited.
func New(bytesPerSecond int64) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := int(min(bytesPerSecond, int64(maxChunk)))
	return rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
}

type reader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

// NewReader returns a reader that waits on limiter before every read.
// If limiter is nil, it returns r unchanged.
func NewReader(r io.Reader, limiter *rate.Limiter) io.Reader {
	return NewReaderContext(context.Background(), r, limiter)
}

// NewReaderContext is like NewReader, but waiting stops when ctx is done.
func NewReaderContext(ctx context.Context, r io.Reader, limiter *rate.Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{ctx: ctx, r: r, limiter: limiter}
}

// Read reads at most one burst, then waits for the bytes it got.
func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
