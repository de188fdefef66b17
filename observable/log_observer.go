package observable

import (
	"context"
	"log/slog"
	"sync"

	"github.com/turbot/forensic-dispatch/events"
)

// LogObserver writes a log line for every event
type LogObserver struct {
	Logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (l *LogObserver) Notify(ctx context.Context, e events.Event) error {
	switch ev := e.(type) {
	case *events.RequestSubmitted:
		l.Logger.InfoContext(ctx, "Submitted processing request", "request_id", ev.RequestId, "evidence", ev.EvidenceName, "filter_patterns", ev.FilterPatterns, "instance", ev.Instance, "region", ev.Region)
	case *events.TaskProgress:
		l.Logger.InfoContext(ctx, "Task status update", "request_id", ev.RequestId, "completed", len(ev.Completed), "pending", len(ev.Pending))
		for _, t := range ev.Completed {
			l.Logger.InfoContext(ctx, "Completed task", "task_id", t.ID, "name", t.Name)
		}
		for _, t := range ev.Pending {
			l.Logger.InfoContext(ctx, "Pending task", "task_id", t.ID, "name", t.Name)
		}
	case *events.TasksCompleted:
		l.Logger.InfoContext(ctx, "All tasks completed", "request_id", ev.RequestId, "tasks", ev.Total, "failed", ev.Failed, "elapsed", ev.Elapsed.String())
	case *events.ArtifactExcluded:
		if ev.Reason == events.ExclusionMissingLocal {
			l.Logger.WarnContext(ctx, "Reported local artifact not present on this host, skipping", "task_id", ev.TaskId, "path", ev.Path)
		} else {
			l.Logger.DebugContext(ctx, "Excluded saved path", "task_id", ev.TaskId, "path", ev.Path, "reason", string(ev.Reason))
		}
	case *events.ArtifactDownloaded:
		l.Logger.InfoContext(ctx, "Downloaded artifact", "task_id", ev.TaskId, "uri", ev.Uri, "local_path", ev.LocalPath)
	case *events.ArtifactCollected:
		l.Logger.DebugContext(ctx, "Collected artifact", "task_id", ev.TaskId, "label", ev.Label, "local_path", ev.LocalPath)
	case *events.Error:
		l.Logger.ErrorContext(ctx, "Run failed", "request_id", ev.RequestId, "error", ev.Err)
	}
	return nil
}

// StatusObserver accumulates a Status from the events it sees
type StatusObserver struct {
	mu     sync.Mutex
	status *events.Status
}

func NewStatusObserver(requestId string) *StatusObserver {
	return &StatusObserver{status: events.NewStatusEvent(requestId)}
}

func (s *StatusObserver) Notify(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Update(e)
	return nil
}

// Status returns a copy of the accumulated status
func (s *StatusObserver) Status() events.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.status
}
