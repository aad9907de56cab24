package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorCategory
	}{
		{"quota", errors.New("insufficient quota for request"), models.ErrorCategoryBusy},
		{"rate limit", errors.New("429 rate limit exceeded"), models.ErrorCategoryBusy},
		{"safety", errors.New("rejected by safety system"), models.ErrorCategoryBlocked},
		{"content policy", errors.New("your request violates our content policy"), models.ErrorCategoryBlocked},
		{"api key", errors.New("invalid api key provided"), models.ErrorCategoryConfig},
		{"unauthorized", errors.New("401 unauthorized"), models.ErrorCategoryConfig},
		{"timeout", errors.New("request timed out"), models.ErrorCategoryTimeout},
		{"deadline", errors.New("context deadline exceeded"), models.ErrorCategoryTimeout},
		{"not found", errors.New("model not found"), models.ErrorCategoryNotFound},
		{"other", errors.New("connection reset by peer"), models.ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Category != tt.want {
				t.Errorf("Classify(%q) category = %q, want %q", tt.err, got.Category, tt.want)
			}
			if got.Message == "" {
				t.Error("Expected a user-facing message")
			}
			if got.Detail != tt.err.Error() {
				t.Errorf("Expected detail to carry the raw error, got %q", got.Detail)
			}
		})
	}
}

func TestClassify_PassesThroughClassified(t *testing.T) {
	orig := &models.CapabilityError{Category: models.ErrorCategoryBusy, Message: "busy"}
	if got := Classify(orig); got != orig {
		t.Errorf("Expected classified error to pass through unchanged, got %+v", got)
	}
}

func TestRetryWithBackoff_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errors.New("invalid api key provided")
	})
	if calls != 1 {
		t.Errorf("Expected 1 call for configuration error, got %d", calls)
	}
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) || capErr.Category != models.ErrorCategoryConfig {
		t.Errorf("Expected configuration CapabilityError, got %v", err)
	}
}

func TestRetryWithBackoff_RetriesTransient(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("429 rate limit exceeded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return errors.New("insufficient quota")
	})
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) || capErr.Category != models.ErrorCategoryBusy {
		t.Errorf("Expected busy CapabilityError after exhaustion, got %v", err)
	}
}

func TestRetryWithBackoff_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryWithBackoff(ctx, 3, 10*time.Second, func() error {
		return errors.New("insufficient quota")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
