package imagechat

import (
	"log/slog"

	"github.com/pixelfold/imagechat/ratelimiter"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRegistry replaces the built-in model catalog.
func WithRegistry(registry *Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = registry
	}
}

// WithTransport sets the HTTP transport used by the default executor. Tests
// substitute a recording stub here.
func WithTransport(transport Transport) ManagerOption {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithCredentials replaces the storage-backed credential provider.
func WithCredentials(credentials Credentials) ManagerOption {
	return func(m *Manager) {
		m.credentials = credentials
	}
}

// WithDispatcher attaches a dispatcher for a backend family at construction.
func WithDispatcher(backend Backend, d Dispatcher) ManagerOption {
	return func(m *Manager) {
		m.dispatchers[backend] = d
	}
}

// WithDefaultModel sets the initially active model.
func WithDefaultModel(key string) ManagerOption {
	return func(m *Manager) {
		m.activeModel = key
	}
}

// WithRateLimiting enables per-model request limiters, sized from each
// descriptor's RequestsPerMinute. Limiters are built in NewManager after all
// options are applied, so this composes with WithRegistry in any order.
func WithRateLimiting() ManagerOption {
	return func(m *Manager) {
		m.rateLimiting = true
	}
}

// WithRateLimiter sets a custom limiter for one model, overriding the default
// in-memory window limiter.
func WithRateLimiter(modelKey string, limiter ratelimiter.Limiter) ManagerOption {
	return func(m *Manager) {
		m.limiters[modelKey] = limiter
	}
}
