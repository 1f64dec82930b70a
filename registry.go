package imagechat

import "fmt"

// Capability describes what a model consumes: a text prompt alone, or a text
// prompt plus a reference image.
type Capability string

const (
	CapabilityTextToImage  Capability = "text-to-image"
	CapabilityImageToImage Capability = "image-to-image"
)

// Backend identifies the provider family a descriptor is dispatched to.
type Backend string

const (
	BackendFal    Backend = "fal"
	BackendGemini Backend = "gemini"
)

// ModelDescriptor is the static metadata for one generation model.
// Descriptors are loaded once at startup and never mutated.
type ModelDescriptor struct {
	// Key uniquely identifies the model within the registry.
	Key string

	// DisplayName is the human-readable name shown in model pickers and
	// echoed in results.
	DisplayName string

	// Capability declares whether the model needs a reference image.
	Capability Capability

	// Backend selects the dispatcher used for this model.
	Backend Backend

	// Endpoint is the full request URL for HTTP backends, or the API model
	// name for SDK backends.
	Endpoint string

	// Description is a short blurb for UI population.
	Description string

	// Defaults are the parameters applied when the caller leaves them unset.
	Defaults Parameters

	// RequestsPerMinute caps dispatches for this model when a rate limiter is
	// attached. Zero means unlimited.
	RequestsPerMinute int
}

// Registry holds model descriptors in registration order. The order is a
// display contract: List feeds UI model pickers directly.
type Registry struct {
	order []string
	byKey map[string]ModelDescriptor
}

// NewRegistry creates a registry from the given descriptors, preserving order.
// Duplicate keys panic: the catalog is static configuration and a duplicate is
// a programming error.
func NewRegistry(descriptors ...ModelDescriptor) *Registry {
	r := &Registry{byKey: make(map[string]ModelDescriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := r.byKey[d.Key]; dup {
			panic(fmt.Sprintf("imagechat: duplicate model key %q", d.Key))
		}
		r.order = append(r.order, d.Key)
		r.byKey[d.Key] = d
	}
	return r
}

// Describe returns the descriptor for a model key.
func (r *Registry) Describe(key string) (ModelDescriptor, error) {
	d, ok := r.byKey[key]
	if !ok {
		return ModelDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownModel, key)
	}
	return d, nil
}

// List returns all descriptors in registration order.
func (r *Registry) List() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byKey[key])
	}
	return out
}

// DefaultModel returns the key of the first registered model.
func (r *Registry) DefaultModel() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[0]
}

// DefaultForCapability returns the first registered model with the given
// capability. Used by the edit chain to force-switch the active model when an
// image is selected.
func (r *Registry) DefaultForCapability(c Capability) (string, bool) {
	for _, key := range r.order {
		if r.byKey[key].Capability == c {
			return key, true
		}
	}
	return "", false
}
