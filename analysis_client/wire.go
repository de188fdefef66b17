package analysis_client

import "github.com/turbot/forensic-dispatch/request"

const evidenceTypeCloudDisk = "GoogleCloudDisk"

type submitRequest struct {
	RequestID      string          `json:"request_id"`
	Evidence       evidencePayload `json:"evidence"`
	RequestOptions requestOptions  `json:"request_options"`
}

type evidencePayload struct {
	Type     string `json:"type"`
	DiskName string `json:"disk_name"`
	Project  string `json:"project"`
	Zone     string `json:"zone"`
}

type requestOptions struct {
	FilterPatterns []string `json:"filter_patterns,omitempty"`
	Requester      string   `json:"requester,omitempty"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type requestStatusResponse struct {
	RequestID string        `json:"request_id"`
	Tasks     []taskPayload `json:"tasks"`
}

type taskPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Successful is null while the task is still running
	Successful *bool    `json:"successful"`
	Status     string   `json:"status"`
	SavedPaths []string `json:"saved_paths"`
}

func newSubmitRequest(req *request.ProcessingRequest, requester string) *submitRequest {
	return &submitRequest{
		RequestID: req.RequestID,
		Evidence: evidencePayload{
			Type:     evidenceTypeCloudDisk,
			DiskName: req.Evidence.TargetID,
			Project:  req.Evidence.ScopeID,
			Zone:     req.Evidence.Zone,
		},
		RequestOptions: requestOptions{
			FilterPatterns: req.FilterPatterns,
			Requester:      requester,
		},
	}
}

func (t taskPayload) toTaskRecord() TaskRecord {
	status := TaskStatusPending
	if t.Successful != nil {
		if *t.Successful {
			status = TaskStatusSuccessful
		} else {
			status = TaskStatusFailed
		}
	}
	return TaskRecord{
		ID:           t.ID,
		Name:         t.Name,
		Status:       status,
		StatusDetail: t.Status,
		// saved_paths may be null
		SavedPaths: append([]string(nil), t.SavedPaths...),
	}
}
