package imagechat

import (
	"errors"
	"fmt"
)

// ErrEmptyPrompt is returned when a request carries no prompt text.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// ImageSize is a semantic output-size token, e.g. "landscape_4_3".
type ImageSize string

const (
	ImageSizeSquareHD     ImageSize = "square_hd"
	ImageSizeSquare       ImageSize = "square"
	ImageSizePortrait43   ImageSize = "portrait_4_3"
	ImageSizePortrait169  ImageSize = "portrait_16_9"
	ImageSizeLandscape43  ImageSize = "landscape_4_3"
	ImageSizeLandscape169 ImageSize = "landscape_16_9"
)

// Parameters are the abstract, provider-independent generation knobs. The
// adapter translates them into whichever schema the target backend expects.
type Parameters struct {
	// ImageSize is a semantic size token (see the ImageSize constants).
	ImageSize ImageSize

	// Steps is the number of inference steps.
	Steps int

	// NumImages is how many images to generate (>= 1).
	NumImages int

	// SafetyChecker toggles the provider's content filter. Nil means enabled.
	SafetyChecker *bool

	// GuidanceScale controls prompt adherence for models that support it.
	GuidanceScale float64

	// AspectRatio overrides the ratio derived from ImageSize when set,
	// in "W:H" notation.
	AspectRatio string
}

// DefaultParameters returns the parameter set the original desktop client
// starts with.
func DefaultParameters() Parameters {
	enabled := true
	return Parameters{
		ImageSize:     ImageSizeLandscape43,
		Steps:         4,
		NumImages:     1,
		SafetyChecker: &enabled,
		GuidanceScale: 3.5,
	}
}

// withDefaults fills unset fields from d. Set fields win.
func (p Parameters) withDefaults(d Parameters) Parameters {
	if p.ImageSize == "" {
		p.ImageSize = d.ImageSize
	}
	if p.Steps == 0 {
		p.Steps = d.Steps
	}
	if p.NumImages == 0 {
		p.NumImages = d.NumImages
	}
	if p.SafetyChecker == nil {
		p.SafetyChecker = d.SafetyChecker
	}
	if p.GuidanceScale == 0 {
		p.GuidanceScale = d.GuidanceScale
	}
	if p.AspectRatio == "" {
		p.AspectRatio = d.AspectRatio
	}
	return p
}

// safetyEnabled resolves the tri-state SafetyChecker; unset means enabled.
func (p Parameters) safetyEnabled() bool {
	return p.SafetyChecker == nil || *p.SafetyChecker
}

// Summary returns a one-line human-readable description of the parameters,
// recorded as a system message when the user changes them.
func (p Parameters) Summary() string {
	return fmt.Sprintf("size: %s, steps: %d, images: %d", p.ImageSize, p.Steps, p.NumImages)
}

// GenerationRequest is one abstract generation call. Constructed per call and
// not retained beyond it.
type GenerationRequest struct {
	// ModelKey selects the registry descriptor. Empty means the manager's
	// active model.
	ModelKey string

	// Prompt is the user's description of the desired image. Required.
	Prompt string

	// ReferenceImage is an optional URI (or data URI) of the input image for
	// image-to-image models. The manager injects the edit-chain selection here
	// when the caller leaves it empty.
	ReferenceImage string

	// Params are the abstract generation knobs.
	Params Parameters
}

// Validate checks request fields that do not depend on the target model.
func (r *GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return ErrEmptyPrompt
	}
	if r.Params.NumImages < 0 {
		return fmt.Errorf("num images must be >= 1, got %d", r.Params.NumImages)
	}
	return nil
}
