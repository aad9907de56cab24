package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// Video polling defaults. Jobs are checked every interval until the ceiling.
const (
	DefaultPollInterval = 10 * time.Second
	DefaultPollCeiling  = 5 * time.Minute
)

// VideoJobStatus is the remote job lifecycle.
type VideoJobStatus string

const (
	VideoJobPending   VideoJobStatus = "pending"
	VideoJobSucceeded VideoJobStatus = "succeeded"
	VideoJobFailed    VideoJobStatus = "failed"
)

// VideoJobService is the provider-side job API the poller drives.
type VideoJobService interface {
	StartJob(ctx context.Context, req VideoRequest) (jobID string, err error)
	CheckJob(ctx context.Context, jobID string) (VideoJobStatus, *VideoResult, error)
}

// VideoOpts holds configuration options for the polling video generator.
type VideoOpts struct {
	PollInterval time.Duration
	PollCeiling  time.Duration
}

// VideoOption defines a configuration option for the video generator.
type VideoOption func(*VideoOpts)

// WithPollInterval sets how often a running job is checked.
func WithPollInterval(d time.Duration) VideoOption {
	return func(o *VideoOpts) { o.PollInterval = d }
}

// WithPollCeiling sets how long a job may run before it is abandoned.
func WithPollCeiling(d time.Duration) VideoOption {
	return func(o *VideoOpts) { o.PollCeiling = d }
}

// PollingVideoGenerator implements VideoGenerator by polling a job service.
type PollingVideoGenerator struct {
	svc      VideoJobService
	interval time.Duration
	ceiling  time.Duration
}

// NewPollingVideoGenerator wraps a job service with polling.
func NewPollingVideoGenerator(svc VideoJobService, opts ...VideoOption) *PollingVideoGenerator {
	cfg := VideoOpts{
		PollInterval: DefaultPollInterval,
		PollCeiling:  DefaultPollCeiling,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &PollingVideoGenerator{svc: svc, interval: cfg.PollInterval, ceiling: cfg.PollCeiling}
}

// Start submits the job and returns its ID.
func (g *PollingVideoGenerator) Start(ctx context.Context, req VideoRequest) (string, error) {
	jobID, err := g.svc.StartJob(ctx, req)
	if err != nil {
		slog.Error("Video job submission failed", "error", err)
		return "", Classify(err)
	}
	slog.Debug("Video job started", "job_id", jobID)
	return jobID, nil
}

// Wait polls the job until it finishes. A job still running at the ceiling
// returns ErrGenerationTimeout; a cancelled context returns its error.
func (g *PollingVideoGenerator) Wait(ctx context.Context, jobID string) (*VideoResult, error) {
	deadline := time.Now().Add(g.ceiling)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		status, result, err := g.svc.CheckJob(ctx, jobID)
		if err != nil {
			slog.Error("Video job check failed", "error", err, "job_id", jobID)
			return nil, Classify(err)
		}
		switch status {
		case VideoJobSucceeded:
			slog.Debug("Video job finished", "job_id", jobID)
			return result, nil
		case VideoJobFailed:
			return nil, &models.CapabilityError{
				Category: models.ErrorCategoryUnknown,
				Message:  "The video could not be generated. Please try again.",
			}
		}

		if time.Now().After(deadline) {
			slog.Warn("Video job timed out", "job_id", jobID, "ceiling", g.ceiling)
			return nil, fmt.Errorf("%w: job %s still running after %s", models.ErrGenerationTimeout, jobID, g.ceiling)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// HTTPVideoService talks to a video rendering backend over HTTP.
type HTTPVideoService struct {
	baseURL string
	client  *http.Client
}

// NewHTTPVideoService creates a job service for the given backend URL.
func NewHTTPVideoService(baseURL string) *HTTPVideoService {
	return &HTTPVideoService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type videoJobRequest struct {
	Prompt      string `json:"prompt"`
	SourceImage string `json:"source_image,omitempty"`
}

type videoJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *HTTPVideoService) StartJob(ctx context.Context, req VideoRequest) (string, error) {
	body, err := json.Marshal(videoJobRequest{Prompt: req.Prompt, SourceImage: req.SourceImage})
	if err != nil {
		return "", fmt.Errorf("failed to marshal video job request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/videos", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var job videoJobResponse
	if err := s.do(httpReq, &job); err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", fmt.Errorf("video backend returned no job id")
	}
	return job.ID, nil
}

func (s *HTTPVideoService) CheckJob(ctx context.Context, jobID string) (VideoJobStatus, *VideoResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/videos/"+jobID, nil)
	if err != nil {
		return "", nil, err
	}

	var job videoJobResponse
	if err := s.do(httpReq, &job); err != nil {
		return "", nil, err
	}
	switch VideoJobStatus(job.Status) {
	case VideoJobSucceeded:
		return VideoJobSucceeded, &VideoResult{URL: job.URL}, nil
	case VideoJobFailed:
		return VideoJobFailed, nil, fmt.Errorf("video job failed: %s", job.Error)
	default:
		return VideoJobPending, nil, nil
	}
}

func (s *HTTPVideoService) do(req *http.Request, out *videoJobResponse) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("video backend returned %d: %s", resp.StatusCode, string(payload))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
