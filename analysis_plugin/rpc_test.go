package analysis_plugin

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"testing"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/evidence"
	"github.com/turbot/forensic-dispatch/request"
)

var _ plugin.Plugin = (*AnalysisPlugin)(nil)
var _ analysis_client.Client = (*RPCClient)(nil)

// connect serves impl over an in-memory connection the same way the plugin does
func connect(t *testing.T, impl analysis_client.Client) *RPCClient {
	t.Helper()

	raw, err := (&AnalysisPlugin{Impl: impl}).Server(nil)
	require.NoError(t, err)

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("Plugin", raw))

	serverConn, clientConn := net.Pipe()
	go server.ServeConn(serverConn)

	client := rpc.NewClient(clientConn)
	t.Cleanup(func() { _ = client.Close() })

	dispensed, err := (&AnalysisPlugin{}).Client(nil, client)
	require.NoError(t, err)
	return dispensed.(*RPCClient)
}

func TestRPCClient_RoundTrip(t *testing.T) {
	impl := analysis_client.NewScriptedClient([]analysis_client.TaskRecord{
		{ID: "t1", Name: "PlasoTask", Status: analysis_client.TaskStatusSuccessful, SavedPaths: []string{"gs://b/t1.plaso"}},
	})
	c := connect(t, impl)
	ctx := context.Background()

	id := c.NewRequestID()
	assert.Equal(t, "scripted-0001", id)

	req := &request.ProcessingRequest{
		RequestID:      id,
		Evidence:       evidence.Descriptor{TargetID: "disk", ScopeID: "proj", Zone: "zone"},
		FilterPatterns: []string{"xmrig"},
	}
	coords, err := c.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, analysis_client.JobCoordinates{Instance: "scripted", ScopeID: "proj", Region: "local", RequestID: id}, coords)

	submitted := impl.Submitted()
	require.Len(t, submitted, 1)
	assert.Equal(t, req, submitted[0])

	tasks, err := c.GetTasks(ctx, coords)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, analysis_client.TaskStatusSuccessful, tasks[0].Status)
	assert.Equal(t, []string{"gs://b/t1.plaso"}, tasks[0].SavedPaths)
}

func TestRPCClient_Errors(t *testing.T) {
	impl := analysis_client.NewScriptedClient()
	impl.SubmitErr = errors.New("quota exceeded")
	c := connect(t, impl)

	_, err := c.Submit(context.Background(), &request.ProcessingRequest{RequestID: "r"})
	assert.ErrorContains(t, err, "quota exceeded")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetTasks(ctx, analysis_client.JobCoordinates{RequestID: "r"})
	assert.ErrorIs(t, err, context.Canceled)
}
