package collector

import "github.com/turbot/forensic-dispatch/rate_limiter"

type CollectorOption func(*Collector)

// WithConcurrency fetches up to n remote artifacts at once. n <= 1 keeps retrieval sequential.
func WithConcurrency(n int) CollectorOption {
	return func(c *Collector) {
		if n > 1 {
			c.limiter = rate_limiter.NewFetchLimiter(rate_limiter.DefaultDefinition(int64(n)))
		}
	}
}

// WithLimiter uses a fully specified fetch limiter
func WithLimiter(d *rate_limiter.Definition) CollectorOption {
	return func(c *Collector) {
		if d != nil {
			c.limiter = rate_limiter.NewFetchLimiter(d)
		}
	}
}
