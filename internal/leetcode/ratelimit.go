package leetcode

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// pacerPool manages per-operation request pacers. Burst is pinned to 1:
// the whole point of pacing is a minimum gap between consecutive requests
// to the judge, and the pipeline is strictly sequential anyway.
type pacerPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newPacerPool() *pacerPool {
	return &pacerPool{limiters: make(map[string]*rate.Limiter)}
}

func (p *pacerPool) get(operation string, perMinute int) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, ok := p.limiters[operation]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1)
	p.limiters[operation] = limiter
	return limiter
}

// Wait blocks until the pacer allows the next request for operation.
func (p *pacerPool) Wait(ctx context.Context, operation string, perMinute int) error {
	if perMinute <= 0 {
		return nil
	}
	return p.get(operation, perMinute).Wait(ctx)
}
