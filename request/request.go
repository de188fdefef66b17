package request

import (
	"fmt"

	"github.com/turbot/forensic-dispatch/evidence"
)

// ProcessingRequest is a single batch request sent to the remote analysis service.
// RequestID is the correlation key for every later status query.
type ProcessingRequest struct {
	RequestID      string
	Evidence       evidence.Descriptor
	FilterPatterns []string
}

func (r *ProcessingRequest) String() string {
	return fmt.Sprintf("request %s (evidence %s, %d filter patterns)", r.RequestID, r.Evidence, len(r.FilterPatterns))
}
