package imagechat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownModel is returned when a model key has no registered descriptor.
	ErrUnknownModel = errors.New("unknown model")

	// ErrMissingCredentials is returned when no API key is available for the
	// target backend. Checked before any network I/O.
	ErrMissingCredentials = errors.New("missing API credentials")

	// ErrMissingReferenceImage is returned when an image-to-image request has
	// no resolvable reference image. Raised by the adapter, before dispatch.
	ErrMissingReferenceImage = errors.New("image-to-image generation requires a reference image")

	// ErrEmptyResult is returned when the backend responds successfully but
	// yields zero images.
	ErrEmptyResult = errors.New("no images returned from API")

	// ErrSessionNotFound is returned when loading a session id that does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGenerationInFlight is returned when a generation is submitted while
	// another one is still pending. The second submission is rejected, not queued.
	ErrGenerationInFlight = errors.New("a generation is already in flight")

	// ErrInvalidImageFile is returned when a picked file is not a supported image type.
	ErrInvalidImageFile = errors.New("file is not a supported image")

	// ErrImageTooLarge is returned when a picked image exceeds MaxReferenceImageSize.
	ErrImageTooLarge = errors.New("image file exceeds maximum size")

	// ErrStorageNotConfigured is returned when persistence is attempted
	// without a configured storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")
)

// RateLimitError is returned when the local per-model request limiter rejects
// a dispatch. Never retried internally.
type RateLimitError struct {
	Model      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %v", e.Model, e.RetryAfter)
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// ProviderError is returned when the backend answers with a structured error body.
type ProviderError struct {
	// Message extracted from the provider's documented error fields, with a
	// generic fallback when none are present.
	Message string

	// Status is the HTTP status code of the error response, if known.
	Status int

	// Backend identifies which provider produced the error.
	Backend string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Backend, e.Status, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Backend, e.Message)
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var pErr *ProviderError
	return errors.As(err, &pErr)
}

// TransportError is returned when the request cannot reach the backend at all
// (DNS failure, refused connection, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unable to reach backend: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError checks if an error is a TransportError.
func IsTransportError(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// Substrings recognized in raw provider and transport messages when mapping a
// failure to user guidance. Matching is case-insensitive.
var (
	credentialHints  = []string{"api key", "unauthorized", "401", "forbidden", "invalid key", "authentication"}
	quotaHints       = []string{"quota", "rate limit", "429", "too many requests", "exhausted", "billing"}
	unavailableHints = []string{"not found", "404", "unavailable", "503", "overloaded", "capacity"}
)

// UserMessage maps any orchestrator error to a distinct human-readable string.
// ProviderError and TransportError messages are classified into coarse guidance
// buckets by substring; anything unmatched falls back to a generic failure line
// carrying the raw message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownModel):
		return "The selected model is not supported."
	case errors.Is(err, ErrMissingCredentials):
		return "No API key configured. Add one in settings before generating."
	case errors.Is(err, ErrMissingReferenceImage):
		return "This model edits an existing image. Select a generated image or upload one first."
	case errors.Is(err, ErrEmptyResult):
		return "The model returned no images. Try a different prompt."
	case errors.Is(err, ErrSessionNotFound):
		return "That conversation no longer exists."
	case errors.Is(err, ErrGenerationInFlight):
		return "A generation is already running. Wait for it to finish."
	case errors.Is(err, ErrInvalidImageFile):
		return "That file is not a supported image. Use PNG, JPEG, WebP or GIF."
	case errors.Is(err, ErrImageTooLarge):
		return "That image is too large. The limit is 10 MB."
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return "You have hit a rate limit or quota. Wait a moment and try again."
	}
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return classifyRawMessage(pErr.Message)
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return classifyRawMessage(tErr.Error())
	}
	return fmt.Sprintf("generation failed: %s", err.Error())
}

func classifyRawMessage(raw string) string {
	lower := strings.ToLower(raw)
	for _, hint := range credentialHints {
		if strings.Contains(lower, hint) {
			return "The API rejected your credentials. Check your API key in settings."
		}
	}
	for _, hint := range quotaHints {
		if strings.Contains(lower, hint) {
			return "You have hit a rate limit or quota. Wait a moment and try again."
		}
	}
	for _, hint := range unavailableHints {
		if strings.Contains(lower, hint) {
			return "The model is currently unavailable. Try another model or retry later."
		}
	}
	return fmt.Sprintf("generation failed: %s", raw)
}
