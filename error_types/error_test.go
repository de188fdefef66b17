package error_types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "dispatch matches dispatch sentinel",
			err:    NewDispatchError("abc", cause),
			target: ErrDispatch,
			want:   true,
		},
		{
			name:   "dispatch does not match poll sentinel",
			err:    NewDispatchError("abc", cause),
			target: ErrPoll,
			want:   false,
		},
		{
			name:   "wrapped retrieval matches",
			err:    fmt.Errorf("collect: %w", NewRetrievalError("gs://b/o.plaso", cause)),
			target: ErrRetrieval,
			want:   true,
		},
		{
			name:   "cause is reachable",
			err:    NewPollError("abc", cause),
			target: cause,
			want:   true,
		},
		{
			name:   "plain error does not match",
			err:    cause,
			target: ErrNoArtifacts,
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConfiguration, KindOf(NewConfigurationError("scope %s", "p1")))
	assert.Equal(t, KindNoArtifacts, KindOf(fmt.Errorf("wrapped: %w", NewNoArtifactsError("none"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewDispatchError("r", nil)))
	assert.True(t, IsRetryable(NewPollError("r", nil)))
	assert.True(t, IsRetryable(NewRetrievalError("gs://a/b", nil)))
	assert.False(t, IsRetryable(NewConfigurationError("bad")))
	assert.False(t, IsRetryable(NewNoArtifactsError("none")))
	assert.False(t, IsRetryable(errors.New("other")))
}

func TestError_Error(t *testing.T) {
	err := NewRetrievalError("gs://bucket/a.plaso", errors.New("403"))
	assert.Equal(t, "retrieval error: failed to retrieve gs://bucket/a.plaso: 403", err.Error())
	assert.Equal(t, "no artifacts", ErrNoArtifacts.Error())
}
