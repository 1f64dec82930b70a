package imagechat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pixelfold/imagechat/ratelimiter"
)

// Manager is the generation orchestrator. It routes abstract requests through
// the registry, adapter and per-backend dispatchers, records every exchange in
// the session store, and drives the edit chain.
//
// All state mutation happens inside one request/response cycle or an explicit
// user action; a single in-flight guard keeps generations from interleaving.
type Manager struct {
	registry    *Registry
	dispatchers map[Backend]Dispatcher
	credentials Credentials
	sessions    *SessionStore
	chain       EditChain
	limiters    map[string]ratelimiter.Limiter
	logger      *slog.Logger
	transport   Transport

	activeModel  string
	inFlight     bool
	rateLimiting bool

	mu sync.Mutex
}

// NewManager creates an orchestrator over the given durable storage. The
// built-in catalog and the HTTP executor for the fal backend are wired by
// default; use options to override.
func NewManager(ctx context.Context, storage Storage, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		registry:    DefaultCatalog(),
		dispatchers: make(map[Backend]Dispatcher),
		limiters:    make(map[string]ratelimiter.Limiter),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.credentials == nil {
		if storage != nil {
			m.credentials = NewStoredCredentials(storage)
		} else {
			m.credentials = StaticCredentials{}
		}
	}
	if _, ok := m.dispatchers[BackendFal]; !ok {
		m.dispatchers[BackendFal] = NewExecutor(m.transport, m.logger)
	}
	if m.rateLimiting {
		for _, desc := range m.registry.List() {
			if desc.RequestsPerMinute > 0 && m.limiters[desc.Key] == nil {
				m.limiters[desc.Key] = ratelimiter.PerMinute(desc.RequestsPerMinute)
			}
		}
	}

	sessions, err := NewSessionStore(ctx, storage, m.logger)
	if err != nil {
		return nil, fmt.Errorf("initializing session store: %w", err)
	}
	m.sessions = sessions

	if m.activeModel == "" {
		m.activeModel = m.registry.DefaultModel()
	}
	return m, nil
}

// RegisterDispatcher attaches a dispatcher for a backend family. Used to plug
// in SDK-backed providers such as provider/gemini.
func (m *Manager) RegisterDispatcher(backend Backend, d Dispatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchers[backend] = d
}

// ListModels returns the registry descriptors in registration order.
func (m *Manager) ListModels() []ModelDescriptor {
	return m.registry.List()
}

// DescribeModel returns the descriptor for a model key.
func (m *Manager) DescribeModel(key string) (ModelDescriptor, error) {
	return m.registry.Describe(key)
}

// ActiveModel returns the currently active model key.
func (m *Manager) ActiveModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeModel
}

// SetActiveModel switches the active model. Switching to a text-to-image
// model clears any edit-chain selection: the stale image-to-image intent must
// not leak into the next request.
func (m *Manager) SetActiveModel(key string) error {
	desc, err := m.registry.Describe(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.activeModel = key
	m.mu.Unlock()

	if desc.Capability == CapabilityTextToImage {
		m.chain.Clear()
	}
	m.logger.Debug("active model switched", "model", key, "capability", string(desc.Capability))
	return nil
}

// SelectImage marks an image as the input for the next generation. If the
// active model cannot consume an image, the active model is force-switched to
// the default image-to-image model so the next submission is immediately
// valid.
func (m *Manager) SelectImage(ref string) {
	m.chain.Select(ref)
	m.ensureImageCapableModel()
	m.logger.Debug("image selected for editing", "ref_length", len(ref))
}

// ClearSelection removes the edit-chain selection. Past messages are not
// affected.
func (m *Manager) ClearSelection() {
	m.chain.Clear()
}

// Selection returns the currently selected image reference, if any.
func (m *Manager) Selection() (string, bool) {
	return m.chain.Selected()
}

// SetCredential stores an API key for a backend.
func (m *Manager) SetCredential(ctx context.Context, backend Backend, apiKey string) error {
	return m.credentials.Set(ctx, backend, apiKey)
}

// Sessions exposes the session store for listing, switching and clearing.
func (m *Manager) Sessions() *SessionStore {
	return m.sessions
}

// Generate runs one end-to-end generation: guard, model resolution, reference
// injection, payload adaptation, dispatch, session recording and edit-chain
// update. At most one generation is in flight at a time; a second submission
// is rejected with ErrGenerationInFlight and has no effect on the pending one.
func (m *Manager) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		m.logger.Warn("generation rejected, another is in flight")
		return nil, ErrGenerationInFlight
	}
	m.inFlight = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	result, err := m.generate(ctx, req)
	if err != nil {
		// A failed generation never mutates edit-chain state; it only leaves
		// a notice in the log.
		m.recordFailure(ctx, err)
		return nil, err
	}
	return result, nil
}

func (m *Manager) generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	start := time.Now()

	modelKey := req.ModelKey
	if modelKey == "" {
		modelKey = m.ActiveModel()
	}
	desc, err := m.registry.Describe(modelKey)
	if err != nil {
		return nil, err
	}

	// Submitting against an explicit model is a model switch, with the same
	// edit-chain consequences as switching through the UI.
	if err := m.SetActiveModel(modelKey); err != nil {
		return nil, err
	}

	if desc.Capability == CapabilityImageToImage && req.ReferenceImage == "" {
		if ref, ok := m.chain.Selected(); ok {
			req.ReferenceImage = ref
		}
	}

	m.logger.Debug("starting generation",
		"model", modelKey,
		"capability", string(desc.Capability),
		"prompt_length", len(req.Prompt),
		"has_reference", req.ReferenceImage != "",
	)

	payload, err := BuildPayload(desc, req)
	if err != nil {
		return nil, err
	}

	if err := m.checkRateLimit(modelKey, desc); err != nil {
		m.logger.Warn("rate limit hit", "model", modelKey, "error", err.Error())
		return nil, err
	}

	m.mu.Lock()
	dispatcher, ok := m.dispatchers[desc.Backend]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no dispatcher registered for backend %s", desc.Backend)
	}

	apiKey, err := m.credentials.Get(ctx, desc.Backend)
	if err != nil {
		return nil, err
	}

	if err := m.sessions.Append(ctx, m.sessions.ActiveID(), Message{
		Role:    RoleUser,
		Content: req.Prompt,
	}); err != nil {
		return nil, err
	}

	result, err := dispatcher.Dispatch(ctx, desc, payload, apiKey)
	duration := time.Since(start)
	if err != nil {
		m.logger.Error("generation failed",
			"model", modelKey,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	result.Prompt = req.Prompt
	result.Model = desc.DisplayName
	result.Params = req.Params.withDefaults(desc.Defaults)

	if err := m.sessions.Append(ctx, m.sessions.ActiveID(), Message{
		Role:    RoleAssistant,
		Content: fmt.Sprintf("Generated %d image(s)", len(result.Images)),
		Images:  result.Images,
	}); err != nil {
		return nil, err
	}

	// Auto-select the newest output so the next prompt can edit it. The
	// first element of the result sequence is treated as the newest.
	m.chain.Select(result.Images[0].URL)
	m.ensureImageCapableModel()

	m.logger.Info("generation completed",
		"model", modelKey,
		"duration_ms", duration.Milliseconds(),
		"image_count", len(result.Images),
	)
	return result, nil
}

// recordFailure appends a system notice for a failed generation. Best effort:
// a persistence error here must not mask the generation error.
func (m *Manager) recordFailure(ctx context.Context, genErr error) {
	msg := Message{
		Role:    RoleSystem,
		Content: UserMessage(genErr),
	}
	if err := m.sessions.Append(ctx, m.sessions.ActiveID(), msg); err != nil {
		m.logger.Error("failed to record generation failure", "error", err.Error())
	}
}

// ensureImageCapableModel force-switches the active model to the default
// image-to-image model when the current one cannot consume the selection.
func (m *Manager) ensureImageCapableModel() {
	m.mu.Lock()
	current := m.activeModel
	m.mu.Unlock()

	desc, err := m.registry.Describe(current)
	if err == nil && desc.Capability == CapabilityImageToImage {
		return
	}
	fallback, ok := m.registry.DefaultForCapability(CapabilityImageToImage)
	if !ok {
		return
	}

	m.mu.Lock()
	m.activeModel = fallback
	m.mu.Unlock()
	m.logger.Debug("switched to image-to-image model for selection", "model", fallback)
}

// checkRateLimit consults the per-model limiter, creating one lazily from the
// descriptor's RequestsPerMinute when rate limiting is enabled.
func (m *Manager) checkRateLimit(modelKey string, desc ModelDescriptor) error {
	m.mu.Lock()
	limiter := m.limiters[modelKey]
	m.mu.Unlock()

	if limiter == nil {
		return nil
	}
	if limiter.TryAcquire() {
		return nil
	}
	return &RateLimitError{
		Model:      modelKey,
		RetryAfter: limiter.TimeUntilAvailable(),
	}
}
