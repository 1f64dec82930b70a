package imagechat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DispatchTimeout is the fixed upper bound on one backend call. Exceeding it
// surfaces as a TransportError, never a silent hang.
const DispatchTimeout = 60 * time.Second

// Dispatcher executes a resolved payload against one backend family and
// normalizes the answer. Exactly one network call per invocation; retries are
// caller policy.
type Dispatcher interface {
	Dispatch(ctx context.Context, desc ModelDescriptor, payload ProviderPayload, apiKey string) (*GenerationResult, error)
}

// Executor is the Dispatcher for HTTP JSON backends (the fal family). It
// performs the POST through the configured Transport, classifies failures into
// the error taxonomy, and normalizes the two supported success shapes.
type Executor struct {
	transport Transport
	logger    *slog.Logger
}

var _ Dispatcher = (*Executor)(nil)

// NewExecutor creates an executor over the given transport. A nil transport
// gets the net/http default.
func NewExecutor(transport Transport, logger *slog.Logger) *Executor {
	if transport == nil {
		transport = NewHTTPTransport()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{transport: transport, logger: logger}
}

// Dispatch performs the backend call.
func (e *Executor) Dispatch(ctx context.Context, desc ModelDescriptor, payload ProviderPayload, apiKey string) (*GenerationResult, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingCredentials, desc.Backend)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	e.logger.Debug("dispatching generation request",
		"backend", string(desc.Backend),
		"endpoint", desc.Endpoint,
		"payload_bytes", len(body),
	)

	resp, err := e.transport.Post(ctx, &PostRequest{
		URL: desc.Endpoint,
		Headers: map[string]string{
			"Authorization": "Key " + apiKey,
			"Content-Type":  "application/json",
		},
		Body:    body,
		Timeout: DispatchTimeout,
	})
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices {
		return nil, &ProviderError{
			Message: decodeErrorMessage(resp.Body),
			Status:  resp.Status,
			Backend: string(desc.Backend),
		}
	}

	images, err := decodeImages(resp.Body)
	if err != nil {
		return nil, &ProviderError{
			Message: fmt.Sprintf("malformed response body: %v", err),
			Status:  resp.Status,
			Backend: string(desc.Backend),
		}
	}
	if len(images) == 0 {
		return nil, ErrEmptyResult
	}

	return &GenerationResult{
		Images: images,
		Model:  desc.DisplayName,
	}, nil
}
