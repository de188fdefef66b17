package analysis_client

import (
	"context"
	"fmt"

	"github.com/turbot/forensic-dispatch/request"
)

// Client is the remote analysis service, treated as an opaque collaborator
type Client interface {
	// NewRequestID generates the id for a new processing request
	NewRequestID() string
	// Submit sends the request and returns the coordinates needed to poll it
	Submit(ctx context.Context, req *request.ProcessingRequest) (JobCoordinates, error)
	// GetTasks returns the current full snapshot of the tasks for a request
	GetTasks(ctx context.Context, coords JobCoordinates) ([]TaskRecord, error)
}

// JobCoordinates identify a submitted request for later status queries
type JobCoordinates struct {
	Instance  string
	ScopeID   string
	Region    string
	RequestID string
}

func (c JobCoordinates) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", c.Instance, c.ScopeID, c.Region, c.RequestID)
}

type TaskStatus int

const (
	TaskStatusPending TaskStatus = iota
	TaskStatusSuccessful
	TaskStatusFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusSuccessful:
		return "Successful"
	case TaskStatusFailed:
		return "Failed"
	default:
		return "Pending"
	}
}

// IsTerminal reports whether no further transition can occur from this status
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccessful || s == TaskStatusFailed
}

// TaskRecord is a read-only snapshot of one remote task
type TaskRecord struct {
	ID     string
	Name   string
	Status TaskStatus
	// StatusDetail is the free text status reported by the service, if any
	StatusDetail string
	SavedPaths   []string
}
