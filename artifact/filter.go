package artifact

import (
	"strings"

	"github.com/turbot/forensic-dispatch/events"
)

const (
	// WorkerLogName is the log file every worker saves alongside its task output
	WorkerLogName = "worker-log.txt"
	// DefaultResultExtension is the result format retained when no extensions are configured
	DefaultResultExtension = ".plaso"

	SchemeGCS = "gs"
	SchemeS3  = "s3"
)

// Exclusion is a saved path which was dropped, and why
type Exclusion struct {
	Path   string
	Reason events.ExclusionReason
}

// Filter drops the noise from the saved paths reported for a task and classifies the rest
type Filter struct {
	Extensions    ExtensionLookup
	RemoteSchemes []string
}

// NewFilter returns a filter retaining the given extensions (DefaultResultExtension if none)
// and remote paths in GCS or S3
func NewFilter(extensions []string) *Filter {
	if len(extensions) == 0 {
		extensions = []string{DefaultResultExtension}
	}
	return &Filter{
		Extensions:    NewExtensionLookup(extensions),
		RemoteSchemes: []string{SchemeGCS, SchemeS3},
	}
}

// Apply filters and classifies the saved paths of one task, preserving their order
func (f *Filter) Apply(taskId string, savedPaths []string) (retained []Path, excluded []Exclusion) {
	for _, p := range savedPaths {
		if reason, noise := f.exclude(taskId, p); noise {
			excluded = append(excluded, Exclusion{Path: p, Reason: reason})
			continue
		}
		classified, ok := f.Classify(p)
		if !ok {
			excluded = append(excluded, Exclusion{Path: p, Reason: events.ExclusionUnknownScheme})
			continue
		}
		retained = append(retained, classified)
	}
	return retained, excluded
}

func (f *Filter) exclude(taskId, p string) (events.ExclusionReason, bool) {
	if strings.HasSuffix(p, WorkerLogName) {
		return events.ExclusionWorkerLog, true
	}
	if taskId != "" && strings.HasSuffix(p, taskId+".log") {
		return events.ExclusionTaskLog, true
	}
	if !f.Extensions.IsValid(p) {
		return events.ExclusionExtension, true
	}
	return "", false
}

// Classify returns a Local path for an absolute path and a Remote path for a
// supported object store uri
func (f *Filter) Classify(p string) (Path, bool) {
	if strings.HasPrefix(p, "/") {
		return Local(p), true
	}
	for _, scheme := range f.RemoteSchemes {
		if strings.HasPrefix(p, scheme+"://") {
			return Remote(p), true
		}
	}
	return Path{}, false
}
