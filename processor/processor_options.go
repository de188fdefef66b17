package processor

import (
	"io"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/artifact_fetcher"
	"github.com/turbot/forensic-dispatch/observable"
)

type ProcessorOption func(*Processor)

// WithClient uses client instead of an HTTP client built from the config
func WithClient(client analysis_client.Client) ProcessorOption {
	return func(p *Processor) {
		p.client = client
	}
}

// WithFetcher uses fetcher for remote artifacts instead of the GCS/S3 router
func WithFetcher(fetcher artifact_fetcher.Fetcher) ProcessorOption {
	return func(p *Processor) {
		p.fetcher = fetcher
	}
}

// WithObserver is notified of every event of the run, in addition to the log observer
func WithObserver(o observable.Observer) ProcessorOption {
	return func(p *Processor) {
		p.observers = append(p.observers, o)
	}
}

// WithConsole writes the rendered report to w
func WithConsole(w io.Writer) ProcessorOption {
	return func(p *Processor) {
		p.console = w
	}
}
