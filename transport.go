package imagechat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PostRequest is one outbound JSON POST.
type PostRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// PostResponse is the raw answer from the backend. Status is set for any HTTP
// response, including error statuses; the executor does the classification.
type PostResponse struct {
	Status int
	Body   []byte
}

// Transport is the HTTP(S) POST capability the executor consumes. The default
// implementation is HTTPTransport; tests substitute a recording stub.
type Transport interface {
	Post(ctx context.Context, req *PostRequest) (*PostResponse, error)
}

// maxResponseBody bounds how much of a response we read into memory. Image
// APIs return URLs, not image bytes, so 8 MB is generous.
const maxResponseBody = 8 << 20

// HTTPTransport is the net/http-backed Transport.
type HTTPTransport struct {
	client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport backed by a dedicated http.Client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{client: &http.Client{}}
}

// Post performs the request. The per-request timeout comes from req.Timeout;
// a transport-level failure (DNS, connection, timeout) is returned as-is for
// the executor to classify.
func (t *HTTPTransport) Post(ctx context.Context, req *PostRequest) (*PostResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &PostResponse{Status: resp.StatusCode, Body: body}, nil
}
