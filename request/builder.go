package request

import (
	"log/slog"

	"github.com/turbot/forensic-dispatch/containers"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/evidence"
)

// RequestIDSource generates request ids; the remote client owns the id format
type RequestIDSource interface {
	NewRequestID() string
}

// Builder composes evidence, filters and a generated request id into a ProcessingRequest
type Builder struct {
	// ConfiguredScope is the project the remote service operates in.
	// If set, evidence from any other scope is rejected.
	ConfiguredScope string
	IDs             RequestIDSource
}

func NewBuilder(configuredScope string, ids RequestIDSource) *Builder {
	return &Builder{
		ConfiguredScope: configuredScope,
		IDs:             ids,
	}
}

func (b *Builder) Build(desc evidence.Descriptor, indicators []evidence.Indicator) (*ProcessingRequest, error) {
	if err := desc.Validate(); err != nil {
		return nil, error_types.NewConfigurationError("%s", err.Error())
	}
	if b.ConfiguredScope != "" && desc.ScopeID != b.ConfiguredScope {
		return nil, error_types.NewConfigurationError(
			"specified project %s does not match the analysis service configured project %s; copy the evidence into the same project first",
			desc.ScopeID, b.ConfiguredScope)
	}

	req := &ProcessingRequest{
		RequestID:      b.IDs.NewRequestID(),
		Evidence:       desc,
		FilterPatterns: evidence.Patterns(indicators),
	}
	slog.Debug("Built processing request", "request_id", req.RequestID, "evidence", desc.String(), "filter_patterns", len(req.FilterPatterns))
	return req, nil
}

// ExtractFilters reads the threat intelligence stored by upstream modules, in store order
func ExtractFilters(r containers.Reader) []evidence.Indicator {
	intel := containers.GetContainers[*containers.ThreatIntelligence](r)
	if len(intel) == 0 {
		return nil
	}

	indicators := make([]evidence.Indicator, 0, len(intel))
	for _, item := range intel {
		indicators = append(indicators, evidence.Indicator{
			Name:       item.Name,
			Pattern:    item.Indicator,
			SourcePath: item.Path,
		})
	}
	slog.Info("Extracted threat intelligence filters", "count", len(indicators))
	return indicators
}
