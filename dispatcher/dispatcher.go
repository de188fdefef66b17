package dispatcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/turbot/forensic-dispatch/analysis_client"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/events"
	"github.com/turbot/forensic-dispatch/observable"
	"github.com/turbot/forensic-dispatch/request"
)

// Dispatcher submits a processing request to the remote analysis service.
// A failed submission is never retried.
type Dispatcher struct {
	observable.ObservableImpl

	client analysis_client.Client
}

func New(client analysis_client.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Submit(ctx context.Context, req *request.ProcessingRequest) (analysis_client.JobCoordinates, error) {
	if req == nil {
		return analysis_client.JobCoordinates{}, error_types.NewDispatchError("", errors.New("request is nil"))
	}

	slog.Info("Creating processing request", "request_id", req.RequestID, "evidence", req.Evidence.TargetID)
	if len(req.FilterPatterns) > 0 {
		slog.Info("Sending threat intelligence filter patterns", "request_id", req.RequestID, "count", len(req.FilterPatterns))
	}

	coords, err := d.client.Submit(ctx, req)
	if err != nil {
		return analysis_client.JobCoordinates{}, error_types.NewDispatchError(req.RequestID, err)
	}
	if coords.RequestID == "" {
		return analysis_client.JobCoordinates{}, error_types.NewDispatchError(req.RequestID, errors.New("analysis service acknowledged the request without a request id"))
	}

	evt := events.NewRequestSubmittedEvent(coords.RequestID, req.Evidence.TargetID, len(req.FilterPatterns), coords.Instance, coords.Region)
	if err := d.NotifyObservers(ctx, evt); err != nil {
		slog.Warn("Failed to notify observers of submitted request", "request_id", coords.RequestID, "error", err)
	}
	return coords, nil
}
