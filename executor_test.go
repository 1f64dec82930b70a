package imagechat

import (
	"context"
	"errors"
	"testing"
)

var testDesc = ModelDescriptor{
	Key:         "test-model",
	DisplayName: "Test Model",
	Capability:  CapabilityTextToImage,
	Backend:     BackendFal,
	Endpoint:    "https://fal.run/fal-ai/test",
	Defaults:    DefaultParameters(),
}

func testPayload() ProviderPayload {
	return TextToImagePayload{Prompt: "a fox", ImageSize: "landscape_4_3", NumInferenceSteps: 4, NumImages: 1}
}

func TestExecutor_MissingCredentials(t *testing.T) {
	transport := &stubTransport{}
	executor := NewExecutor(transport, nil)

	_, err := executor.Dispatch(context.Background(), testDesc, testPayload(), "")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("error = %v, want ErrMissingCredentials", err)
	}
	if transport.calls() != 0 {
		t.Errorf("transport invoked %d times, want 0 before credential check", transport.calls())
	}
}

func TestExecutor_NormalizesBothSuccessShapes(t *testing.T) {
	flat := []byte(`{"images":[{"url":"https://img.example/a.png","width":1024,"height":768},{"url":"https://img.example/b.png"}]}`)
	nested := []byte(`{"data":{"images":[{"url":"https://img.example/a.png","width":1024,"height":768},{"url":"https://img.example/b.png"}]}}`)

	for name, body := range map[string][]byte{"top-level": flat, "nested under data": nested} {
		t.Run(name, func(t *testing.T) {
			transport := &stubTransport{responses: []*PostResponse{{Status: 200, Body: body}}}
			executor := NewExecutor(transport, nil)

			result, err := executor.Dispatch(context.Background(), testDesc, testPayload(), "key")
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if len(result.Images) != 2 {
				t.Fatalf("len(Images) = %d, want 2", len(result.Images))
			}
			if result.Images[0].URL != "https://img.example/a.png" {
				t.Errorf("Images[0].URL = %q", result.Images[0].URL)
			}
			if result.Images[0].Width == nil || *result.Images[0].Width != 1024 {
				t.Errorf("Images[0].Width = %v, want 1024", result.Images[0].Width)
			}
			if result.Images[1].Width != nil || result.Images[1].Height != nil {
				t.Error("Images[1] dimensions should be nil when the provider omits them")
			}
		})
	}
}

func TestExecutor_EmptyResult(t *testing.T) {
	transport := &stubTransport{responses: []*PostResponse{{Status: 200, Body: []byte(`{"images":[]}`)}}}
	executor := NewExecutor(transport, nil)

	_, err := executor.Dispatch(context.Background(), testDesc, testPayload(), "key")
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("error = %v, want ErrEmptyResult", err)
	}
}

func TestExecutor_ProviderError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"detail field", `{"detail":"prompt was rejected"}`, "prompt was rejected"},
		{"message field", `{"message":"model is warming up"}`, "model is warming up"},
		{"error field", `{"error":"something broke"}`, "something broke"},
		{"unparseable body", `<html>bad gateway</html>`, genericProviderMessage},
		{"empty object", `{}`, genericProviderMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &stubTransport{responses: []*PostResponse{{Status: 422, Body: []byte(tt.body)}}}
			executor := NewExecutor(transport, nil)

			_, err := executor.Dispatch(context.Background(), testDesc, testPayload(), "key")
			var pErr *ProviderError
			if !errors.As(err, &pErr) {
				t.Fatalf("error = %v, want ProviderError", err)
			}
			if pErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", pErr.Message, tt.wantMessage)
			}
			if pErr.Status != 422 {
				t.Errorf("Status = %d, want 422", pErr.Status)
			}
		})
	}
}

func TestExecutor_TransportError(t *testing.T) {
	transport := &stubTransport{err: errors.New("dial tcp: connection refused")}
	executor := NewExecutor(transport, nil)

	_, err := executor.Dispatch(context.Background(), testDesc, testPayload(), "key")
	if !IsTransportError(err) {
		t.Fatalf("error = %v, want TransportError", err)
	}
}

func TestExecutor_RequestShape(t *testing.T) {
	transport := &stubTransport{responses: []*PostResponse{{Status: 200, Body: []byte(`{"images":[{"url":"u"}]}`)}}}
	executor := NewExecutor(transport, nil)

	if _, err := executor.Dispatch(context.Background(), testDesc, testPayload(), "secret"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	req := transport.requests[0]
	if req.URL != testDesc.Endpoint {
		t.Errorf("URL = %q, want %q", req.URL, testDesc.Endpoint)
	}
	if req.Headers["Authorization"] != "Key secret" {
		t.Errorf("Authorization = %q, want Key prefix", req.Headers["Authorization"])
	}
	if req.Headers["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", req.Headers["Content-Type"])
	}
	if req.Timeout != DispatchTimeout {
		t.Errorf("Timeout = %v, want %v", req.Timeout, DispatchTimeout)
	}
}
