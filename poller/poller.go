package poller

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/events"
	"github.com/turbot/forensic-dispatch/observable"
	"golang.org/x/exp/maps"
)

const DefaultInterval = 60 * time.Second

// Poller waits for every task of a request to reach a terminal state.
// The analysis service does not push notifications, so the full task snapshot is
// queried every Interval until all tasks are Successful or Failed.
type Poller struct {
	observable.ObservableImpl

	client analysis_client.Client
	// Interval between snapshots, DefaultInterval if zero
	Interval time.Duration
	// MaxWait bounds the whole wait if non-zero. The base behaviour is unbounded;
	// a caller may equally cancel the context passed to Poll.
	MaxWait time.Duration
}

func New(client analysis_client.Client, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		Interval: interval,
	}
}

// Poll blocks until all tasks of the request are terminal and returns the final snapshot.
// Any query failure, and cancellation of ctx, is returned as a poll error.
func (p *Poller) Poll(ctx context.Context, coords analysis_client.JobCoordinates) ([]analysis_client.TaskRecord, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if p.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.MaxWait)
		defer cancel()
	}

	slog.Info("Waiting for request to complete", "request_id", coords.RequestID, "poll_interval", interval.String())

	start := time.Now()
	state := newSnapshotState(coords.RequestID)
	totalCompleted := 0

	for iteration := 1; ; iteration++ {
		tasks, err := p.client.GetTasks(ctx, coords)
		if err != nil {
			return nil, error_types.NewPollError(coords.RequestID, err)
		}
		tasks = state.reconcile(tasks)

		completed, pending := partition(tasks)
		if iteration == 1 || len(completed) > totalCompleted {
			totalCompleted = len(completed)
			evt := events.NewTaskProgressEvent(coords.RequestID, iteration, completed, pending)
			if err := p.NotifyObservers(ctx, evt); err != nil {
				slog.Warn("Failed to notify observers of task progress", "request_id", coords.RequestID, "error", err)
			}
		}

		if len(completed) > 0 && len(completed) == len(tasks) {
			evt := events.NewTasksCompletedEvent(coords.RequestID, len(tasks), countFailed(tasks), time.Since(start))
			if err := p.NotifyObservers(ctx, evt); err != nil {
				slog.Warn("Failed to notify observers of completion", "request_id", coords.RequestID, "error", err)
			}
			return tasks, nil
		}

		if err := wait(ctx, interval); err != nil {
			return nil, error_types.NewPollError(coords.RequestID, err)
		}
	}
}

// wait sleeps for d, returning early with the context error if ctx is done
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// partition splits tasks into terminal and non-terminal, in snapshot order
func partition(tasks []analysis_client.TaskRecord) (completed, pending []events.TaskRef) {
	for _, t := range tasks {
		ref := events.TaskRef{ID: t.ID, Name: t.Name}
		if t.Status.IsTerminal() {
			completed = append(completed, ref)
		} else {
			pending = append(pending, ref)
		}
	}
	return completed, pending
}

func countFailed(tasks []analysis_client.TaskRecord) int {
	failed := 0
	for _, t := range tasks {
		if t.Status == analysis_client.TaskStatusFailed {
			failed++
		}
	}
	return failed
}

// snapshotState holds the last observation of every task seen for a request.
// Task ids never disappear and terminal statuses never regress; if the service
// reports otherwise the last observation is kept and a warning logged.
type snapshotState struct {
	requestId string
	order     []string
	last      map[string]analysis_client.TaskRecord
}

func newSnapshotState(requestId string) *snapshotState {
	return &snapshotState{
		requestId: requestId,
		last:      make(map[string]analysis_client.TaskRecord),
	}
}

func (s *snapshotState) reconcile(tasks []analysis_client.TaskRecord) []analysis_client.TaskRecord {
	res := make([]analysis_client.TaskRecord, 0, len(tasks))
	present := make(map[string]struct{}, len(tasks))

	for _, t := range tasks {
		if _, dup := present[t.ID]; dup {
			slog.Warn("Duplicate task id in snapshot, ignoring", "request_id", s.requestId, "task_id", t.ID)
			continue
		}
		present[t.ID] = struct{}{}

		prev, seen := s.last[t.ID]
		if !seen {
			s.order = append(s.order, t.ID)
		} else if prev.Status.IsTerminal() && t.Status != prev.Status {
			slog.Warn("Task status regressed, keeping terminal status", "request_id", s.requestId, "task_id", t.ID, "previous", prev.Status.String(), "reported", t.Status.String())
			t = prev
		}
		s.last[t.ID] = t
		res = append(res, t)
	}

	if len(present) < len(s.last) {
		var missing []string
		for _, id := range maps.Keys(s.last) {
			if _, ok := present[id]; !ok {
				missing = append(missing, id)
			}
		}
		sort.Strings(missing)
		slog.Warn("Tasks missing from snapshot, keeping last observation", "request_id", s.requestId, "task_ids", missing)

		for _, id := range s.order {
			if _, ok := present[id]; !ok {
				res = append(res, s.last[id])
			}
		}
	}
	return res
}
