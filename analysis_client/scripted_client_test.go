package analysis_client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/forensic-dispatch/evidence"
	"github.com/turbot/forensic-dispatch/request"
)

func TestScriptedClient_RepeatsLastSnapshot(t *testing.T) {
	c := NewScriptedClient(
		[]TaskRecord{{ID: "t1", Status: TaskStatusPending}},
		[]TaskRecord{{ID: "t1", Status: TaskStatusSuccessful, SavedPaths: []string{"/a.plaso"}}},
	)
	ctx := context.Background()

	var statuses []TaskStatus
	for i := 0; i < 4; i++ {
		tasks, err := c.GetTasks(ctx, JobCoordinates{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		statuses = append(statuses, tasks[0].Status)
	}
	assert.Equal(t, []TaskStatus{TaskStatusPending, TaskStatusSuccessful, TaskStatusSuccessful, TaskStatusSuccessful}, statuses)
	assert.Equal(t, 4, c.Polls())

	// snapshots are copies
	tasks, _ := c.GetTasks(ctx, JobCoordinates{})
	tasks[0].SavedPaths[0] = "/changed"
	tasks, _ = c.GetTasks(ctx, JobCoordinates{})
	assert.Equal(t, "/a.plaso", tasks[0].SavedPaths[0])
}

func TestScriptedClient_Failures(t *testing.T) {
	c := NewScriptedClient([]TaskRecord{{ID: "t1"}})
	c.FailOnPoll = 2
	c.GetTasksErr = errors.New("unavailable")
	ctx := context.Background()

	_, err := c.GetTasks(ctx, JobCoordinates{})
	require.NoError(t, err)
	_, err = c.GetTasks(ctx, JobCoordinates{})
	assert.EqualError(t, err, "unavailable")

	c.SubmitErr = errors.New("rejected")
	_, err = c.Submit(ctx, &request.ProcessingRequest{RequestID: "r", Evidence: evidence.Descriptor{ScopeID: "p"}})
	assert.EqualError(t, err, "rejected")
	assert.Empty(t, c.Submitted())
}

func TestLoadScript(t *testing.T) {
	script := `[
  [{"id": "t1", "name": "PlasoTask", "successful": null, "saved_paths": null}],
  [{"id": "t1", "name": "PlasoTask", "successful": true, "status": "done", "saved_paths": ["gs://b/t1.plaso"]},
   {"id": "t2", "name": "StringsTask", "successful": false}]
]`
	snapshots, err := LoadScript(strings.NewReader(script))
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, TaskStatusPending, snapshots[0][0].Status)
	assert.Equal(t, TaskStatusSuccessful, snapshots[1][0].Status)
	assert.Equal(t, []string{"gs://b/t1.plaso"}, snapshots[1][0].SavedPaths)
	assert.Equal(t, TaskStatusFailed, snapshots[1][1].Status)

	_, err = LoadScript(strings.NewReader(`{"not": "a list"}`))
	assert.Error(t, err)
}
