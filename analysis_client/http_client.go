package analysis_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/turbot/forensic-dispatch/request"
)

const (
	requestPath      = "/api/request/"
	maxErrorBodySize = 4096
)

// HTTPClientConfig configures an HTTPClient
type HTTPClientConfig struct {
	// BaseURL of the analysis API server, e.g. http://localhost:8000
	BaseURL string
	// Instance is the name of the analysis service instance (returned in the job coordinates)
	Instance string
	Region   string
	// Token is sent as a bearer token if set
	Token     string
	Requester string
	Timeout   time.Duration
}

// HTTPClient talks JSON to a Turbinia style analysis API server
type HTTPClient struct {
	config     HTTPClientConfig
	baseURL    *url.URL
	httpClient *http.Client
}

func NewHTTPClient(config HTTPClientConfig) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, errors.New("api url is required")
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %s: %w", config.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %s: scheme must be http or https", config.BaseURL)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPClient{
		config:  config,
		baseURL: u,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   timeout,
		},
	}, nil
}

// NewRequestID returns a random uuid in hex form
func (c *HTTPClient) NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (c *HTTPClient) Submit(ctx context.Context, req *request.ProcessingRequest) (JobCoordinates, error) {
	body := newSubmitRequest(req, c.config.Requester)

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, requestPath, body, &resp); err != nil {
		return JobCoordinates{}, err
	}

	requestId := resp.RequestID
	if requestId == "" {
		requestId = req.RequestID
	} else if requestId != req.RequestID {
		slog.Warn("Analysis service assigned a different request id", "sent", req.RequestID, "assigned", requestId)
	}

	return JobCoordinates{
		Instance:  c.config.Instance,
		ScopeID:   req.Evidence.ScopeID,
		Region:    c.config.Region,
		RequestID: requestId,
	}, nil
}

func (c *HTTPClient) GetTasks(ctx context.Context, coords JobCoordinates) ([]TaskRecord, error) {
	var resp requestStatusResponse
	if err := c.do(ctx, http.MethodGet, requestPath+url.PathEscape(coords.RequestID), nil, &resp); err != nil {
		return nil, err
	}

	tasks := make([]TaskRecord, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		tasks = append(tasks, t.toTaskRecord())
	}
	return tasks, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL.JoinPath(path)
	// JoinPath drops the trailing slash the API server expects on collection routes
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, target.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("%s %s returned %s: %s", method, target.Path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", target.Path, err)
	}
	return nil
}
