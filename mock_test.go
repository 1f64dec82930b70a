package imagechat

import (
	"context"
	"sync"
)

// memStorage is an in-memory Storage for tests.
type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (s *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *memStorage) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// stubTransport records every POST and replies from a canned queue.
type stubTransport struct {
	mu        sync.Mutex
	requests  []*PostRequest
	responses []*PostResponse
	err       error
}

func (t *stubTransport) Post(_ context.Context, req *PostRequest) (*PostResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if t.err != nil {
		return nil, t.err
	}
	resp := t.responses[0]
	if len(t.responses) > 1 {
		t.responses = t.responses[1:]
	}
	return resp, nil
}

func (t *stubTransport) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// MockDispatcher is a function-field Dispatcher for manager tests.
type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, desc ModelDescriptor, payload ProviderPayload, apiKey string) (*GenerationResult, error)
}

func (m *MockDispatcher) Dispatch(ctx context.Context, desc ModelDescriptor, payload ProviderPayload, apiKey string) (*GenerationResult, error) {
	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, desc, payload, apiKey)
	}
	return &GenerationResult{Images: []GeneratedImage{{URL: "https://img.example/out.png"}}}, nil
}
