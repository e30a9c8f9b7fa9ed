package understand

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// RateLimited wraps an Understander with a client-side rate limiter so
// a single shared client can be invoked safely from concurrent pipeline
// instances. This is caller policy; the pipeline itself never retries.
type RateLimited struct {
	next    Understander
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limiter of perSecond events and the
// given burst. A non-positive rate disables limiting.
func NewRateLimited(next Understander, perSecond float64, burst int) *RateLimited {
	if perSecond <= 0 {
		return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Understand waits for limiter admission, then delegates.
func (r *RateLimited) Understand(ctx context.Context, msgs []Message) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "understand: rate limiter wait")
	}
	return r.next.Understand(ctx, msgs)
}
