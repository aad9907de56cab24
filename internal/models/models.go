// Package models defines shared response and error types for Content Studio.
package models

import "errors"

// Error variables for better error handling and testability
var (
	ErrInvalidTransition   = errors.New("invalid workflow transition")
	ErrSessionNotFound     = errors.New("session not found")
	ErrEmptyUserID         = errors.New("user id cannot be empty")
	ErrEmptyMessage        = errors.New("message cannot be empty")
	ErrBrandIncomplete     = errors.New("brand setup incomplete: name is required")
	ErrMissingImage        = errors.New("no generated image available for this step")
	ErrMissingBrief        = errors.New("no approved brief available for this step")
	ErrUnknownCapability   = errors.New("no capability registered for this action")
	ErrTurnInProgress      = errors.New("another turn is already in flight for this session")
	ErrGenerationTimeout   = errors.New("generation timed out")
	ErrGenerationCancelled = errors.New("generation cancelled")
)

// ErrorCategory classifies a capability failure into a small set of
// user-facing categories. Raw provider errors never reach the session layer.
type ErrorCategory string

const (
	// ErrorCategoryBusy indicates quota or rate limiting at the provider.
	ErrorCategoryBusy ErrorCategory = "busy"
	// ErrorCategoryBlocked indicates a content-policy rejection.
	ErrorCategoryBlocked ErrorCategory = "content_blocked"
	// ErrorCategoryConfig indicates a configuration problem (keys, models).
	ErrorCategoryConfig ErrorCategory = "configuration"
	// ErrorCategoryTimeout indicates the operation exceeded its deadline.
	ErrorCategoryTimeout ErrorCategory = "timeout"
	// ErrorCategoryNotFound indicates a missing model or resource.
	ErrorCategoryNotFound ErrorCategory = "not_found"
	// ErrorCategoryUnknown covers everything else.
	ErrorCategoryUnknown ErrorCategory = "unknown"
)

// CapabilityError carries a classified capability failure: a plain-terms
// message for the user and the technical detail for logs.
type CapabilityError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
	Detail   string        `json:"technical_details,omitempty"`
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithMessage(message).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
