package collector

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/artifact"
	"github.com/turbot/forensic-dispatch/artifact_fetcher"
	"github.com/turbot/forensic-dispatch/context_values"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/events"
	"github.com/turbot/forensic-dispatch/observable"
	"github.com/turbot/forensic-dispatch/rate_limiter"
	"golang.org/x/sync/errgroup"
)

// Artifact is a result file available on the local filesystem, ready for the next stage
type Artifact struct {
	Label     string
	LocalPath string
	// TaskID is the task which saved the artifact
	TaskID string
}

// Collector turns the saved paths of completed tasks into local artifacts
type Collector struct {
	observable.ObservableImpl

	filter  *artifact.Filter
	fetcher artifact_fetcher.Fetcher
	// limiter bounds concurrent fetches, nil for sequential retrieval
	limiter *rate_limiter.FetchLimiter
}

func New(filter *artifact.Filter, fetcher artifact_fetcher.Fetcher, opts ...CollectorOption) *Collector {
	if filter == nil {
		filter = artifact.NewFilter(nil)
	}
	c := &Collector{
		filter:  filter,
		fetcher: fetcher,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// slot is a retained path in discovery order; localPath is set once the file is available
type slot struct {
	taskId    string
	path      artifact.Path
	localPath string
}

// Collect filters, classifies and retrieves the saved paths of tasks.
// Output order is task order then path order, with no de-duplication.
// Paths saved by failed tasks are considered too.
func (c *Collector) Collect(ctx context.Context, tasks []analysis_client.TaskRecord, stagingDir string, label string) ([]Artifact, error) {
	slots := c.plan(ctx, tasks)

	if err := c.retrieve(ctx, slots, stagingDir); err != nil {
		return nil, err
	}

	var res []Artifact
	for _, s := range slots {
		if s.localPath == "" {
			continue
		}
		if s.path.Kind() == artifact.KindRemote {
			c.notify(ctx, events.NewArtifactDownloadedEvent(s.taskId, s.path.Value(), s.localPath))
		}
		c.notify(ctx, events.NewArtifactCollectedEvent(s.taskId, label, s.localPath))
		res = append(res, Artifact{Label: label, LocalPath: s.localPath, TaskID: s.taskId})
	}

	if len(res) == 0 {
		return nil, error_types.NewNoArtifactsError("no result artifacts found for request %s", context_values.RequestIdFromContext(ctx))
	}
	slog.Info("Collected artifacts", "count", len(res), "staging_dir", stagingDir)
	return res, nil
}

// plan applies the filter to every task and resolves local paths
func (c *Collector) plan(ctx context.Context, tasks []analysis_client.TaskRecord) []*slot {
	var slots []*slot
	for _, t := range tasks {
		if t.Status == analysis_client.TaskStatusFailed {
			slog.Warn("Task failed, collecting any saved paths", "task_id", t.ID, "name", t.Name, "status_detail", t.StatusDetail)
		}

		retained, excluded := c.filter.Apply(t.ID, t.SavedPaths)
		for _, e := range excluded {
			c.notify(ctx, events.NewArtifactExcludedEvent(t.ID, e.Path, e.Reason))
		}

		for _, p := range retained {
			s := &slot{taskId: t.ID, path: p}
			if p.Kind() == artifact.KindLocal {
				if _, err := os.Stat(p.Value()); err != nil {
					c.notify(ctx, events.NewArtifactExcludedEvent(t.ID, p.Value(), events.ExclusionMissingLocal))
					continue
				}
				s.localPath = p.Value()
			}
			slots = append(slots, s)
		}
	}
	return slots
}

// retrieve fetches every remote slot into stagingDir
func (c *Collector) retrieve(ctx context.Context, slots []*slot, stagingDir string) error {
	var remote []*slot
	for _, s := range slots {
		if s.path.Kind() == artifact.KindRemote {
			remote = append(remote, s)
		}
	}
	if len(remote) == 0 {
		return nil
	}
	if c.fetcher == nil {
		return error_types.NewRetrievalError(remote[0].path.Value(), errors.New("no remote fetcher configured"))
	}

	if c.limiter == nil {
		for _, s := range remote {
			if err := c.fetch(ctx, s, stagingDir); err != nil {
				return err
			}
		}
		return nil
	}

	// each goroutine writes only its own slot, so order is preserved
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range remote {
		s := s
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return error_types.NewRetrievalError(s.path.Value(), err)
			}
			defer c.limiter.Release()
			return c.fetch(gctx, s, stagingDir)
		})
	}
	return g.Wait()
}

func (c *Collector) fetch(ctx context.Context, s *slot, stagingDir string) error {
	slog.Debug("Fetching remote artifact", "task_id", s.taskId, "uri", s.path.Value())
	localPath, err := c.fetcher.Fetch(ctx, s.path.Value(), stagingDir)
	if err != nil {
		return error_types.NewRetrievalError(s.path.Value(), err)
	}
	s.localPath = localPath
	return nil
}

func (c *Collector) notify(ctx context.Context, e events.Event) {
	if err := c.NotifyObservers(ctx, e); err != nil {
		slog.Warn("Failed to notify observers", "error", err)
	}
}
