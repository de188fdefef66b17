package analysis_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/turbot/forensic-dispatch/request"
)

// ScriptedClient is a Client which replays a fixed sequence of task snapshots.
// It is used by tests and by the CLI dry run.
// Once the script is exhausted the last snapshot is returned for every further poll.
type ScriptedClient struct {
	Instance  string
	Region    string
	Snapshots [][]TaskRecord
	// SubmitErr is returned by Submit if set
	SubmitErr error
	// GetTasksErr is returned by the FailOnPoll'th call to GetTasks (1 based, 0 disables)
	GetTasksErr error
	FailOnPoll  int

	mu        sync.Mutex
	ids       int
	polls     int
	submitted []*request.ProcessingRequest
}

func NewScriptedClient(snapshots ...[]TaskRecord) *ScriptedClient {
	return &ScriptedClient{
		Instance:  "scripted",
		Region:    "local",
		Snapshots: snapshots,
	}
}

func (c *ScriptedClient) NewRequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids++
	return fmt.Sprintf("scripted-%04d", c.ids)
}

func (c *ScriptedClient) Submit(ctx context.Context, req *request.ProcessingRequest) (JobCoordinates, error) {
	if err := ctx.Err(); err != nil {
		return JobCoordinates{}, err
	}
	if c.SubmitErr != nil {
		return JobCoordinates{}, c.SubmitErr
	}

	c.mu.Lock()
	c.submitted = append(c.submitted, req)
	c.mu.Unlock()

	return JobCoordinates{
		Instance:  c.Instance,
		ScopeID:   req.Evidence.ScopeID,
		Region:    c.Region,
		RequestID: req.RequestID,
	}, nil
}

func (c *ScriptedClient) GetTasks(ctx context.Context, _ JobCoordinates) ([]TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if c.FailOnPoll > 0 && c.polls == c.FailOnPoll {
		return nil, c.GetTasksErr
	}
	if len(c.Snapshots) == 0 {
		return nil, nil
	}
	idx := c.polls - 1
	if idx >= len(c.Snapshots) {
		idx = len(c.Snapshots) - 1
	}

	// return a copy so callers cannot mutate the script
	snapshot := make([]TaskRecord, len(c.Snapshots[idx]))
	for i, t := range c.Snapshots[idx] {
		t.SavedPaths = append([]string(nil), t.SavedPaths...)
		snapshot[i] = t
	}
	return snapshot, nil
}

// Polls returns the number of GetTasks calls made so far
func (c *ScriptedClient) Polls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

// Submitted returns the requests passed to Submit
func (c *ScriptedClient) Submitted() []*request.ProcessingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*request.ProcessingRequest(nil), c.submitted...)
}

// LoadScript reads a list of task snapshots for a ScriptedClient. Each snapshot is a
// list of tasks in the same JSON form the analysis API server returns them.
func LoadScript(r io.Reader) ([][]TaskRecord, error) {
	var payload [][]taskPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode task script: %w", err)
	}
	snapshots := make([][]TaskRecord, len(payload))
	for i, tasks := range payload {
		snapshots[i] = make([]TaskRecord, len(tasks))
		for j, t := range tasks {
			snapshots[i][j] = t.toTaskRecord()
		}
	}
	return snapshots, nil
}
