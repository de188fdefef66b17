package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/analysis_plugin"
	"github.com/turbot/forensic-dispatch/artifact"
	"github.com/turbot/forensic-dispatch/artifact_fetcher"
	"github.com/turbot/forensic-dispatch/collector"
	"github.com/turbot/forensic-dispatch/config"
	"github.com/turbot/forensic-dispatch/containers"
	"github.com/turbot/forensic-dispatch/context_values"
	"github.com/turbot/forensic-dispatch/dispatcher"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/events"
	"github.com/turbot/forensic-dispatch/filepaths"
	"github.com/turbot/forensic-dispatch/evidence"
	"github.com/turbot/forensic-dispatch/observable"
	"github.com/turbot/forensic-dispatch/poller"
	"github.com/turbot/forensic-dispatch/publisher"
	"github.com/turbot/forensic-dispatch/request"
)

// State is the part of the pipeline state a processor reads and writes
type State interface {
	containers.Reader
	containers.Writer
	publisher.OutputSetter
	AddError(err error, critical bool)
}

// Processor runs one remote analysis of one piece of evidence:
// build the request, dispatch it, wait for the tasks, collect and publish the results.
type Processor struct {
	config *config.Config
	state  State

	client    analysis_client.Client
	fetcher   artifact_fetcher.Fetcher
	observers []observable.Observer
	console   io.Writer
	closers   []io.Closer

	stagingDir     string
	ownsStagingDir bool
	failed         bool
}

func New(cfg *config.Config, state State, opts ...ProcessorOption) *Processor {
	p := &Processor{
		config: cfg,
		state:  state,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StagingDir returns the directory remote artifacts are copied into, once Setup has run
func (p *Processor) StagingDir() string {
	return p.stagingDir
}

// Setup validates the configuration, prepares the staging directory and creates
// the analysis client and remote fetchers not already provided
func (p *Processor) Setup(ctx context.Context) error {
	if p.config == nil {
		return p.fail(ctx, error_types.NewConfigurationError("no configuration provided"))
	}
	if err := p.config.Validate(); err != nil {
		return p.fail(ctx, err)
	}
	if p.config.Project == "" || p.config.Zone == "" {
		return p.fail(ctx, error_types.NewConfigurationError("project and zone must both be specified"))
	}

	if err := p.setupStagingDir(); err != nil {
		return p.fail(ctx, err)
	}

	if p.client == nil && p.config.AnalysisPlugin != nil {
		client, err := analysis_plugin.NewClient(*p.config.AnalysisPlugin)
		if err != nil {
			return p.fail(ctx, error_types.NewConfigurationError("failed to start analysis plugin: %s", err.Error()))
		}
		p.client = client
		p.closers = append(p.closers, client)
	}
	if p.client == nil {
		client, err := analysis_client.NewHTTPClient(analysis_client.HTTPClientConfig{
			BaseURL:   p.config.ApiUrl,
			Instance:  p.config.Instance,
			Region:    p.config.Region,
			Token:     deref(p.config.Token),
			Requester: deref(p.config.Requester),
		})
		if err != nil {
			return p.fail(ctx, error_types.NewConfigurationError("failed to create analysis client: %s", err.Error()))
		}
		p.client = client
	}

	if p.fetcher == nil {
		router := artifact_fetcher.NewRouter()
		router.Register(artifact.SchemeGCS, artifact_fetcher.GCSFetcherFactory(p.config.Gcp))
		router.Register(artifact.SchemeS3, artifact_fetcher.S3FetcherFactory(p.config.Aws))
		p.fetcher = router
		p.closers = append(p.closers, router)
	}

	slog.Info("Processor setup complete", "project", p.config.Project, "zone", p.config.Zone, "staging_dir", p.stagingDir)
	return nil
}

func (p *Processor) setupStagingDir() error {
	dir, err := p.config.GetStagingDir()
	if err != nil {
		return error_types.NewConfigurationError("%s", err.Error())
	}
	if dir == "" {
		dir, err = filepaths.NewTempStagingPath()
		p.ownsStagingDir = err == nil
	} else {
		dir, err = filepaths.EnsureStagingPath(dir)
	}
	if err != nil {
		return error_types.NewConfigurationError("%s", err.Error())
	}
	p.stagingDir = dir
	return nil
}

// Process runs the request to completion. Any error is fatal: it is recorded once
// on the state as a critical error and returned.
func (p *Processor) Process(ctx context.Context) error {
	if p.client == nil {
		return p.fail(ctx, error_types.NewConfigurationError("processor has not been set up"))
	}

	desc, err := p.descriptor()
	if err != nil {
		return p.fail(ctx, err)
	}

	builder := request.NewBuilder(p.config.ServiceProject, p.client)
	req, err := builder.Build(desc, request.ExtractFilters(p.state))
	if err != nil {
		return p.fail(ctx, err)
	}
	ctx = context_values.WithRequestId(ctx, req.RequestID)

	d := dispatcher.New(p.client)
	pl := poller.New(p.client, p.config.PollIntervalDuration())
	pl.MaxWait = p.config.MaxWaitDuration()
	c := collector.New(artifact.NewFilter(p.config.GetExtensions()), p.fetcher, collector.WithConcurrency(p.config.GetFetchConcurrency()))
	if err := p.addObservers(&d.ObservableImpl, &pl.ObservableImpl, &c.ObservableImpl); err != nil {
		return p.fail(ctx, err)
	}

	coords, err := d.Submit(ctx, req)
	if err != nil {
		return p.fail(ctx, err)
	}

	tasks, err := pl.Poll(ctx, coords)
	if err != nil {
		return p.fail(ctx, err)
	}
	for _, t := range tasks {
		if t.Status == analysis_client.TaskStatusFailed {
			slog.Warn("Task failed", "request_id", coords.RequestID, "task_id", t.ID, "name", t.Name, "status_detail", t.StatusDetail)
		}
	}

	artifacts, err := c.Collect(ctx, tasks, p.stagingDir, desc.Label())
	if err != nil {
		return p.fail(ctx, err)
	}

	pub := publisher.New(p.config.GetReportFormat())
	pub.Console = p.console
	if err := pub.Publish(p.state, p.state, tasks, artifacts); err != nil {
		return p.fail(ctx, err)
	}
	return nil
}

// descriptor builds the evidence descriptor, taking the disk from the first
// Disk container stored upstream if none is configured
func (p *Processor) descriptor() (evidence.Descriptor, error) {
	target := p.config.Disk
	if target == "" {
		disks := containers.GetContainers[*containers.Disk](p.state)
		if len(disks) == 0 {
			return evidence.Descriptor{}, error_types.NewConfigurationError("no disk specified and no disk provided by a previous module")
		}
		target = disks[0].Name
		slog.Info("Using disk from previous module", "disk", target)
	}

	desc, err := evidence.NewDescriptor(target, p.config.Project, p.config.Zone)
	if err != nil {
		return evidence.Descriptor{}, error_types.NewConfigurationError("%s", err.Error())
	}
	return desc, nil
}

func (p *Processor) addObservers(targets ...*observable.ObservableImpl) error {
	observers := append([]observable.Observer{observable.NewLogObserver(slog.Default())}, p.observers...)
	for _, t := range targets {
		for _, o := range observers {
			if err := t.AddObserver(o); err != nil {
				return fmt.Errorf("failed to add observer: %w", err)
			}
		}
	}
	return nil
}

func (p *Processor) fail(ctx context.Context, err error) error {
	p.failed = true
	p.state.AddError(err, true)

	evt := events.NewErrorEvent(context_values.RequestIdFromContext(ctx), err)
	for _, o := range p.observers {
		if notifyErr := o.Notify(ctx, evt); notifyErr != nil {
			slog.Warn("Failed to notify observer of error", "error", notifyErr)
		}
	}
	slog.Error("Processing failed", "error", err)
	return err
}

// Cleanup stops any plugin and releases the remote storage clients created by Setup.
// A staging directory created by Setup is removed if the run failed; after a
// successful run it belongs to the next stage.
func (p *Processor) Cleanup() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	if p.failed && p.ownsStagingDir && p.stagingDir != "" {
		slog.Debug("Removing staging directory", "staging_dir", p.stagingDir)
		if err := os.RemoveAll(p.stagingDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove staging directory: %w", err))
		}
	}
	return errors.Join(errs...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
