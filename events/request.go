package events

import "time"

type RequestSubmitted struct {
	Base
	RequestId      string
	EvidenceName   string
	FilterPatterns int
	Instance       string
	Region         string
}

func NewRequestSubmittedEvent(requestId, evidenceName string, filterPatterns int, instance, region string) *RequestSubmitted {
	return &RequestSubmitted{
		RequestId:      requestId,
		EvidenceName:   evidenceName,
		FilterPatterns: filterPatterns,
		Instance:       instance,
		Region:         region,
	}
}

// TaskProgress is raised by the poller on the first poll and whenever the completed count increases
type TaskProgress struct {
	Base
	RequestId string
	Iteration int
	Completed []TaskRef
	Pending   []TaskRef
}

func NewTaskProgressEvent(requestId string, iteration int, completed, pending []TaskRef) *TaskProgress {
	return &TaskProgress{
		RequestId: requestId,
		Iteration: iteration,
		Completed: completed,
		Pending:   pending,
	}
}

type TasksCompleted struct {
	Base
	RequestId string
	Total     int
	Failed    int
	Elapsed   time.Duration
}

func NewTasksCompletedEvent(requestId string, total, failed int, elapsed time.Duration) *TasksCompleted {
	return &TasksCompleted{
		RequestId: requestId,
		Total:     total,
		Failed:    failed,
		Elapsed:   elapsed,
	}
}
