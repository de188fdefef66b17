package rate_limiter

import (
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

// Definition configures a FetchLimiter
type Definition struct {
	// the limiter name, used in logs
	Name string
	// fetches per second, 0 for no rate limit
	FillRate   rate.Limit
	BucketSize int64
	// the max number of fetches in flight, 0 for no bound
	MaxConcurrency int64
}

// DefaultDefinition bounds concurrency only
func DefaultDefinition(maxConcurrency int64) *Definition {
	return &Definition{
		Name:           "artifact_fetch",
		MaxConcurrency: maxConcurrency,
	}
}

func (d *Definition) String() string {
	var parts []string
	if d.FillRate > 0 {
		parts = append(parts, fmt.Sprintf("Limit(/s): %v, Burst: %d", d.FillRate, d.BucketSize))
	}
	if d.MaxConcurrency > 0 {
		parts = append(parts, fmt.Sprintf("MaxConcurrency: %d", d.MaxConcurrency))
	}
	return strings.Join(parts, " ")
}

func (d *Definition) Validate() []string {
	var validationErrors []string
	if d.Name == "" {
		validationErrors = append(validationErrors, "rate limiter definition must specify a name")
	}
	if d.FillRate < 0 || d.BucketSize < 0 || d.MaxConcurrency < 0 {
		validationErrors = append(validationErrors, "rate limiter definition must not contain negative values")
	}
	if d.FillRate > 0 && d.BucketSize == 0 {
		validationErrors = append(validationErrors, "rate limiter definition with a fill rate must specify a bucket size")
	}
	return validationErrors
}
