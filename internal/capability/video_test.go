package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// fakeVideoService implements VideoJobService with scripted statuses.
type fakeVideoService struct {
	startErr error
	statuses []VideoJobStatus
	checkErr error
	calls    int
}

func (f *fakeVideoService) StartJob(ctx context.Context, req VideoRequest) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return "job-1", nil
}

func (f *fakeVideoService) CheckJob(ctx context.Context, jobID string) (VideoJobStatus, *VideoResult, error) {
	if f.checkErr != nil {
		return "", nil, f.checkErr
	}
	status := f.statuses[len(f.statuses)-1]
	if f.calls < len(f.statuses) {
		status = f.statuses[f.calls]
	}
	f.calls++
	switch status {
	case VideoJobSucceeded:
		return VideoJobSucceeded, &VideoResult{URL: "https://cdn.example.com/v.mp4"}, nil
	case VideoJobFailed:
		return VideoJobFailed, nil, nil
	default:
		return VideoJobPending, nil, nil
	}
}

func TestVideoWait_SucceedsAfterPolling(t *testing.T) {
	svc := &fakeVideoService{statuses: []VideoJobStatus{VideoJobPending, VideoJobPending, VideoJobSucceeded}}
	gen := NewPollingVideoGenerator(svc, WithPollInterval(time.Millisecond), WithPollCeiling(time.Second))

	jobID, err := gen.Start(context.Background(), VideoRequest{Prompt: "steam rising from a chai cup"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	result, err := gen.Wait(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.URL == "" {
		t.Error("Expected result URL")
	}
	if svc.calls != 3 {
		t.Errorf("Expected 3 checks, got %d", svc.calls)
	}
}

func TestVideoWait_TimeoutIsDistinct(t *testing.T) {
	svc := &fakeVideoService{statuses: []VideoJobStatus{VideoJobPending}}
	gen := NewPollingVideoGenerator(svc, WithPollInterval(time.Millisecond), WithPollCeiling(5*time.Millisecond))

	_, err := gen.Wait(context.Background(), "job-1")
	if !errors.Is(err, models.ErrGenerationTimeout) {
		t.Errorf("Expected ErrGenerationTimeout, got %v", err)
	}
}

func TestVideoWait_CancelledContext(t *testing.T) {
	svc := &fakeVideoService{statuses: []VideoJobStatus{VideoJobPending}}
	gen := NewPollingVideoGenerator(svc, WithPollInterval(time.Hour), WithPollCeiling(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err := gen.Wait(ctx, "job-1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestVideoWait_FailedJob(t *testing.T) {
	svc := &fakeVideoService{statuses: []VideoJobStatus{VideoJobFailed}}
	gen := NewPollingVideoGenerator(svc, WithPollInterval(time.Millisecond), WithPollCeiling(time.Second))

	_, err := gen.Wait(context.Background(), "job-1")
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Expected CapabilityError, got %v", err)
	}
}

func TestVideoStart_ClassifiesError(t *testing.T) {
	svc := &fakeVideoService{startErr: errors.New("429 rate limit exceeded")}
	gen := NewPollingVideoGenerator(svc)

	_, err := gen.Start(context.Background(), VideoRequest{})
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) || capErr.Category != models.ErrorCategoryBusy {
		t.Errorf("Expected busy CapabilityError, got %v", err)
	}
}
