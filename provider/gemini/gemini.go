// Package gemini provides a Dispatcher implementation backed by Google's
// Gemini API via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// Gemini models return image bytes inline rather than hosted URLs, so
// generated images surface as data-URI references.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/pixelfold/imagechat"
)

// Dispatcher executes generation payloads against the Gemini API. The client
// is rebuilt whenever a dispatch carries a key different from the one the
// current client was created with, so credentials stored after construction
// still take effect.
type Dispatcher struct {
	mu     sync.Mutex
	apiKey string
	client *genai.Client
}

var _ imagechat.Dispatcher = (*Dispatcher)(nil)

// New creates a dispatcher. An empty apiKey falls back to the GEMINI_API_KEY /
// GOOGLE_API_KEY environment variables; when neither is set, client creation
// is deferred until a dispatch supplies a key.
func New(ctx context.Context, apiKey string) (*Dispatcher, error) {
	d := &Dispatcher{}
	if apiKey == "" {
		apiKey = envAPIKey()
	}
	if apiKey != "" {
		client, err := newClient(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		d.apiKey = apiKey
		d.client = client
	}
	return d, nil
}

func newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func envAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// clientFor resolves the client for one dispatch. The per-call key wins over
// the construction-time key; with no key from either source and no existing
// client, the dispatch fails with ErrMissingCredentials before any network I/O.
func (d *Dispatcher) clientFor(ctx context.Context, apiKey string) (*genai.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if apiKey == "" {
		apiKey = envAPIKey()
	}
	if apiKey == "" {
		if d.client != nil {
			return d.client, nil
		}
		return nil, fmt.Errorf("%w for gemini", imagechat.ErrMissingCredentials)
	}
	if apiKey == d.apiKey && d.client != nil {
		return d.client, nil
	}

	client, err := newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	d.apiKey = apiKey
	d.client = client
	return client, nil
}

// Dispatch performs one GenerateContent call for the given payload. The
// descriptor's Endpoint carries the API model name.
func (d *Dispatcher) Dispatch(ctx context.Context, desc imagechat.ModelDescriptor, payload imagechat.ProviderPayload, apiKey string) (*imagechat.GenerationResult, error) {
	client, err := d.clientFor(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	contents, imageCount, aspectRatio, err := buildContents(payload)
	if err != nil {
		return nil, err
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspectRatio},
	}
	if imageCount > 1 {
		genConfig.CandidateCount = int32(imageCount)
	}

	result, err := client.Models.GenerateContent(ctx, desc.Endpoint, contents, genConfig)
	if err != nil {
		return nil, classifyError(err, desc)
	}

	images, parseErr := parseImages(result)
	if parseErr != nil {
		return nil, parseErr
	}
	if len(images) == 0 {
		return nil, imagechat.ErrEmptyResult
	}
	return &imagechat.GenerationResult{
		Images: images,
		Model:  desc.DisplayName,
	}, nil
}

// buildContents converts a payload variant into Gemini content parts.
func buildContents(payload imagechat.ProviderPayload) (contents []*genai.Content, imageCount int, aspectRatio string, err error) {
	switch p := payload.(type) {
	case imagechat.TextToImagePayload:
		contents = []*genai.Content{
			{Parts: []*genai.Part{{Text: p.Prompt}}},
		}
		return contents, p.NumImages, imagechat.AspectRatioForSize(imagechat.ImageSize(p.ImageSize)), nil

	case imagechat.ImageToImagePayload:
		imagePart, err := partForReference(p.ImageURL)
		if err != nil {
			return nil, 0, "", err
		}
		contents = []*genai.Content{
			{Parts: []*genai.Part{imagePart, {Text: p.Prompt}}},
		}
		return contents, p.NumImages, p.AspectRatio, nil

	default:
		return nil, 0, "", fmt.Errorf("unsupported payload type %T", payload)
	}
}

// partForReference turns an image reference into a content part. Data URIs
// become inline blobs; anything else is passed through as a file URI.
func partForReference(ref string) (*genai.Part, error) {
	if !strings.HasPrefix(ref, "data:") {
		return &genai.Part{
			FileData: &genai.FileData{FileURI: ref},
		}, nil
	}

	meta, b64, found := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !found {
		return nil, fmt.Errorf("%w: malformed data URI", imagechat.ErrInvalidImageFile)
	}
	mimeType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload", imagechat.ErrInvalidImageFile)
	}
	return &genai.Part{
		InlineData: &genai.Blob{Data: data, MIMEType: mimeType},
	}, nil
}

// parseImages extracts inline images from the response and re-encodes them as
// data-URI references.
func parseImages(result *genai.GenerateContentResponse) ([]imagechat.GeneratedImage, error) {
	if result == nil {
		return nil, imagechat.ErrEmptyResult
	}

	var images []imagechat.GeneratedImage
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == nil {
				continue
			}
			uri, err := imagechat.EncodeImageData(part.InlineData.Data, part.InlineData.MIMEType)
			if err != nil {
				return nil, fmt.Errorf("encoding generated image: %w", err)
			}
			images = append(images, imagechat.GeneratedImage{URL: uri})
		}
	}
	return images, nil
}

// classifyError maps SDK errors into the orchestrator's taxonomy.
func classifyError(err error, desc imagechat.ModelDescriptor) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &imagechat.ProviderError{
			Message: apiErr.Message,
			Status:  apiErr.Code,
			Backend: string(desc.Backend),
		}
	}
	return &imagechat.TransportError{Err: err}
}
