package rate_limiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		want int
	}{
		{name: "concurrency only", def: Definition{Name: "f", MaxConcurrency: 4}},
		{name: "unbounded", def: Definition{Name: "f"}},
		{name: "rate without bucket", def: Definition{Name: "f", FillRate: 2}, want: 1},
		{name: "no name and negative", def: Definition{MaxConcurrency: -1}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.def.Validate(), tt.want)
		})
	}
}

func TestFetchLimiter_BoundsConcurrency(t *testing.T) {
	l := NewFetchLimiter(DefaultDefinition(2))
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.False(t, l.TryAcquire())

	l.Release()
	assert.True(t, l.TryAcquire())
}

func TestFetchLimiter_WaitCancelled(t *testing.T) {
	l := NewFetchLimiter(DefaultDefinition(1))
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestFetchLimiter_ReleasesSlotWhenRateWaitFails(t *testing.T) {
	l := NewFetchLimiter(&Definition{Name: "f", FillRate: rate.Limit(0.001), BucketSize: 1, MaxConcurrency: 1})

	// the first token is available immediately
	require.NoError(t, l.Wait(context.Background()))
	l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
	assert.True(t, l.TryAcquire())
}

func TestFetchLimiter_Unbounded(t *testing.T) {
	l := NewFetchLimiter(&Definition{Name: "f"})
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.True(t, l.TryAcquire())
	assert.Equal(t, "", l.String())
}
