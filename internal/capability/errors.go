package capability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// Classify maps a raw provider error to a CapabilityError with a
// user-facing message. Already classified errors pass through unchanged.
func Classify(err error) *models.CapabilityError {
	if err == nil {
		return nil
	}
	var capErr *models.CapabilityError
	if errors.As(err, &capErr) {
		return capErr
	}

	detail := err.Error()
	msg := strings.ToLower(detail)
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return &models.CapabilityError{
			Category: models.ErrorCategoryBusy,
			Message:  "The image service is busy right now. Please try again in a moment.",
			Detail:   detail,
		}
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked") || strings.Contains(msg, "content policy") || strings.Contains(msg, "content_policy"):
		return &models.CapabilityError{
			Category: models.ErrorCategoryBlocked,
			Message:  "That request was declined by the content filter. Try rephrasing it.",
			Detail:   detail,
		}
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401"):
		return &models.CapabilityError{
			Category: models.ErrorCategoryConfig,
			Message:  "The generation service is not configured correctly.",
			Detail:   detail,
		}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline exceeded"):
		return &models.CapabilityError{
			Category: models.ErrorCategoryTimeout,
			Message:  "The generation took too long. Please try again.",
			Detail:   detail,
		}
	case strings.Contains(msg, "not found") || strings.Contains(msg, "404"):
		return &models.CapabilityError{
			Category: models.ErrorCategoryNotFound,
			Message:  "A required model or resource is unavailable.",
			Detail:   detail,
		}
	default:
		return &models.CapabilityError{
			Category: models.ErrorCategoryUnknown,
			Message:  "Something went wrong during generation. Please try again.",
			Detail:   detail,
		}
	}
}

// retryable reports whether a failure category is worth another attempt.
// Policy rejections, configuration problems and missing resources fail the
// same way every time.
func retryable(category models.ErrorCategory) bool {
	switch category {
	case models.ErrorCategoryBlocked, models.ErrorCategoryConfig, models.ErrorCategoryNotFound:
		return false
	default:
		return true
	}
}

// Retry defaults.
const (
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 2 * time.Second
)

// retryWithBackoff runs fn up to attempts times with exponential backoff,
// classifying each failure. Non-retryable failures and context cancellation
// return immediately.
func retryWithBackoff(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var lastErr *models.CapabilityError
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoff << (attempt - 1)
			slog.Debug("Retrying capability call", "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = Classify(err)
		if !retryable(lastErr.Category) {
			return lastErr
		}
	}
	return lastErr
}
