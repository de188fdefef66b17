package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/events"
	"github.com/turbot/forensic-dispatch/evidence"
	"github.com/turbot/forensic-dispatch/observable"
	"github.com/turbot/forensic-dispatch/request"
)

func testRequest(id string) *request.ProcessingRequest {
	return &request.ProcessingRequest{
		RequestID:      id,
		Evidence:       evidence.Descriptor{TargetID: "disk-1", ScopeID: "project-a", Zone: "us-central1-f"},
		FilterPatterns: []string{"evil"},
	}
}

func TestDispatcher_Submit(t *testing.T) {
	client := analysis_client.NewScriptedClient()
	d := New(client)

	var submitted []*events.RequestSubmitted
	require.NoError(t, d.AddObserver(observable.ObserverFunc(func(_ context.Context, e events.Event) error {
		if s, ok := e.(*events.RequestSubmitted); ok {
			submitted = append(submitted, s)
		}
		return nil
	})))

	coords, err := d.Submit(context.Background(), testRequest("r1"))
	require.NoError(t, err)

	assert.Equal(t, analysis_client.JobCoordinates{Instance: "scripted", ScopeID: "project-a", Region: "local", RequestID: "r1"}, coords)
	require.Len(t, submitted, 1)
	assert.Equal(t, 1, submitted[0].FilterPatterns)
	assert.Len(t, client.Submitted(), 1)
}

func TestDispatcher_Submit_Failure(t *testing.T) {
	remoteErr := errors.New("pubsub topic not found")
	client := analysis_client.NewScriptedClient()
	client.SubmitErr = remoteErr

	_, err := New(client).Submit(context.Background(), testRequest("r1"))

	assert.ErrorIs(t, err, error_types.ErrDispatch)
	assert.ErrorIs(t, err, remoteErr)
	assert.Empty(t, client.Submitted())
}

func TestDispatcher_Submit_NilRequest(t *testing.T) {
	_, err := New(analysis_client.NewScriptedClient()).Submit(context.Background(), nil)
	assert.ErrorIs(t, err, error_types.ErrDispatch)
}
