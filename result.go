package imagechat

import (
	"encoding/json"
)

// GeneratedImage is a single output image reference. Width and Height are nil
// when the provider omits them.
type GeneratedImage struct {
	URL    string `json:"url"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// GenerationResult holds the normalized outcome of one generation call.
// Immutable after construction.
type GenerationResult struct {
	// Images in the order the provider returned them.
	Images []GeneratedImage

	// Prompt echoes the request prompt.
	Prompt string

	// Model is the display name of the model that produced the images.
	Model string

	// Params echoes the effective parameters of the request.
	Params Parameters
}

// wireImage tolerates providers that send width/height and those that do not.
type wireImage struct {
	URL    string `json:"url"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

// successEnvelope covers both documented success shapes: images at the top
// level, or nested under "data".
type successEnvelope struct {
	Images []wireImage `json:"images"`
	Data   struct {
		Images []wireImage `json:"images"`
	} `json:"data"`
}

// decodeImages extracts the image list from a success body. Two branches, one
// per supported nesting; adding a third shape means adding a visible branch
// here. Never raises on a missing list: the caller treats an empty result as
// ErrEmptyResult.
func decodeImages(body []byte) ([]GeneratedImage, error) {
	var envelope successEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	wire := envelope.Images
	if len(wire) == 0 {
		wire = envelope.Data.Images
	}

	images := make([]GeneratedImage, 0, len(wire))
	for _, img := range wire {
		images = append(images, GeneratedImage{
			URL:    img.URL,
			Width:  img.Width,
			Height: img.Height,
		})
	}
	return images, nil
}

// errorEnvelope covers the provider's documented error fields. "detail" may be
// a plain string or a structured validation list; anything non-string falls
// through to "message", then to a generic line.
type errorEnvelope struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

const genericProviderMessage = "API request failed"

// decodeErrorMessage extracts a human-readable message from an error body.
func decodeErrorMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return genericProviderMessage
	}

	if len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail != "" {
			return detail
		}
		// Structured detail: keep the raw JSON so the user sees what failed.
		raw := string(envelope.Detail)
		if raw != "null" {
			return raw
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return genericProviderMessage
}
