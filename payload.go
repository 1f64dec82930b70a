package imagechat

// The parameter adapter. Providers diverge in what they accept: the
// text-to-image family takes a semantic image_size token plus step and safety
// fields, while the image-to-image family takes an aspect_ratio in "W:H"
// notation, a guidance scale and a safety tolerance, and requires image_url.
// Each family gets its own payload variant so a field can never leak into the
// wrong provider's request body.

// ProviderPayload is the provider-specific request body produced by
// BuildPayload. It is a sealed union: exactly TextToImagePayload and
// ImageToImagePayload implement it.
type ProviderPayload interface {
	providerPayload()
}

// TextToImagePayload is the wire shape for the text-to-image model family.
type TextToImagePayload struct {
	Prompt              string `json:"prompt"`
	ImageSize           string `json:"image_size"`
	NumInferenceSteps   int    `json:"num_inference_steps"`
	NumImages           int    `json:"num_images"`
	EnableSafetyChecker bool   `json:"enable_safety_checker"`
}

func (TextToImagePayload) providerPayload() {}

// ImageToImagePayload is the wire shape for the image-to-image model family.
type ImageToImagePayload struct {
	Prompt          string  `json:"prompt"`
	ImageURL        string  `json:"image_url"`
	AspectRatio     string  `json:"aspect_ratio"`
	GuidanceScale   float64 `json:"guidance_scale"`
	SafetyTolerance string  `json:"safety_tolerance"`
	NumImages       int     `json:"num_images"`
}

func (ImageToImagePayload) providerPayload() {}

// BuildPayload maps an abstract request onto the wire shape of the target
// model. Pure: no I/O, no side effects. An image-to-image descriptor with no
// resolvable reference image fails here with ErrMissingReferenceImage, before
// any network round-trip is attempted.
func BuildPayload(desc ModelDescriptor, req GenerationRequest) (ProviderPayload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := req.Params.withDefaults(desc.Defaults)

	switch desc.Capability {
	case CapabilityImageToImage:
		if req.ReferenceImage == "" {
			return nil, ErrMissingReferenceImage
		}
		ratio := params.AspectRatio
		if ratio == "" {
			ratio = AspectRatioForSize(params.ImageSize)
		}
		return ImageToImagePayload{
			Prompt:          req.Prompt,
			ImageURL:        req.ReferenceImage,
			AspectRatio:     ratio,
			GuidanceScale:   params.GuidanceScale,
			SafetyTolerance: safetyTolerance(params),
			NumImages:       params.NumImages,
		}, nil

	default:
		return TextToImagePayload{
			Prompt:              req.Prompt,
			ImageSize:           string(params.ImageSize),
			NumInferenceSteps:   params.Steps,
			NumImages:           params.NumImages,
			EnableSafetyChecker: params.safetyEnabled(),
		}, nil
	}
}

// aspectRatios maps semantic size tokens to "W:H" notation.
var aspectRatios = map[ImageSize]string{
	ImageSizeSquareHD:     "1:1",
	ImageSizeSquare:       "1:1",
	ImageSizePortrait43:   "3:4",
	ImageSizePortrait169:  "9:16",
	ImageSizeLandscape43:  "4:3",
	ImageSizeLandscape169: "16:9",
}

// AspectRatioForSize converts a semantic image-size token to the aspect-ratio
// notation the image-to-image family expects. Unknown tokens map to "4:3";
// downstream UI depends on that exact default.
func AspectRatioForSize(size ImageSize) string {
	if ratio, ok := aspectRatios[size]; ok {
		return ratio
	}
	return "4:3"
}

// safetyTolerance converts the boolean safety toggle to fal's 1..6 scale,
// where lower is stricter.
func safetyTolerance(p Parameters) string {
	if p.safetyEnabled() {
		return "2"
	}
	return "6"
}
