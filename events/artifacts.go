package events

// ExclusionReason says why a reported saved path was not collected
type ExclusionReason string

const (
	ExclusionWorkerLog     ExclusionReason = "worker_log"
	ExclusionTaskLog       ExclusionReason = "task_log"
	ExclusionExtension     ExclusionReason = "extension"
	ExclusionUnknownScheme ExclusionReason = "unknown_scheme"
	// ExclusionMissingLocal is a local path reported by a worker which does not exist on this host.
	// It is not noise: it usually means the worker ran on a different host.
	ExclusionMissingLocal ExclusionReason = "missing_local"
)

type ArtifactExcluded struct {
	Base
	TaskId string
	Path   string
	Reason ExclusionReason
}

func NewArtifactExcludedEvent(taskId, path string, reason ExclusionReason) *ArtifactExcluded {
	return &ArtifactExcluded{
		TaskId: taskId,
		Path:   path,
		Reason: reason,
	}
}

type ArtifactDownloaded struct {
	Base
	TaskId    string
	Uri       string
	LocalPath string
}

func NewArtifactDownloadedEvent(taskId, uri, localPath string) *ArtifactDownloaded {
	return &ArtifactDownloaded{
		TaskId:    taskId,
		Uri:       uri,
		LocalPath: localPath,
	}
}

type ArtifactCollected struct {
	Base
	TaskId    string
	Label     string
	LocalPath string
}

func NewArtifactCollectedEvent(taskId, label, localPath string) *ArtifactCollected {
	return &ArtifactCollected{
		TaskId:    taskId,
		Label:     label,
		LocalPath: localPath,
	}
}
