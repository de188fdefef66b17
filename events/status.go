package events

// Status accumulates counts of the events raised during a run
type Status struct {
	Base
	RequestId           string
	ProgressUpdates     int
	TasksTotal          int
	TasksFailed         int
	ArtifactsExcluded   int
	MissingLocal        int
	ArtifactsDownloaded int
	ArtifactsCollected  int
	Errors              int
}

func NewStatusEvent(requestId string) *Status {
	return &Status{
		RequestId: requestId,
	}
}

func (r *Status) Update(event Event) {
	switch e := event.(type) {
	case *TaskProgress:
		r.ProgressUpdates++
	case *TasksCompleted:
		r.TasksTotal = e.Total
		r.TasksFailed = e.Failed
	case *ArtifactExcluded:
		r.ArtifactsExcluded++
		if e.Reason == ExclusionMissingLocal {
			r.MissingLocal++
		}
	case *ArtifactDownloaded:
		r.ArtifactsDownloaded++
	case *ArtifactCollected:
		r.ArtifactsCollected++
	case *Error:
		r.Errors++
	}
}

func (r *Status) Equals(status *Status) bool {
	if status == nil {
		return false
	}

	return r.ProgressUpdates == status.ProgressUpdates &&
		r.TasksTotal == status.TasksTotal &&
		r.TasksFailed == status.TasksFailed &&
		r.ArtifactsExcluded == status.ArtifactsExcluded &&
		r.MissingLocal == status.MissingLocal &&
		r.ArtifactsDownloaded == status.ArtifactsDownloaded &&
		r.ArtifactsCollected == status.ArtifactsCollected &&
		r.Errors == status.Errors
}
