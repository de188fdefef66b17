package rate_limiter

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// FetchLimiter bounds the rate and concurrency of artifact fetches.
// Every successful Wait must be paired with a Release.
type FetchLimiter struct {
	Name string

	limiter *rate.Limiter
	sem     *semaphore.Weighted
	def     *Definition
}

func NewFetchLimiter(d *Definition) *FetchLimiter {
	res := &FetchLimiter{
		Name: d.Name,
		def:  d,
	}
	if d.FillRate > 0 {
		res.limiter = rate.NewLimiter(d.FillRate, int(d.BucketSize))
	}
	if d.MaxConcurrency > 0 {
		res.sem = semaphore.NewWeighted(d.MaxConcurrency)
	}
	return res
}

func (l *FetchLimiter) String() string {
	return l.def.String()
}

// Wait blocks until a fetch slot is available and the rate limit allows it
func (l *FetchLimiter) Wait(ctx context.Context) error {
	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			l.Release()
			return err
		}
	}
	return nil
}

func (l *FetchLimiter) TryAcquire() bool {
	if l.sem == nil {
		return true
	}
	return l.sem.TryAcquire(1)
}

func (l *FetchLimiter) Release() {
	if l.sem == nil {
		return
	}
	l.sem.Release(1)
}
