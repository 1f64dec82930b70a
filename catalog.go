package imagechat

// Built-in model catalog. Mirrors the model set of the desktop client, plus
// the image-to-image models the edit chain dispatches to. Registration order
// is the order the UI presents.

const (
	ModelNanoBanana           = "fal-nano-banana"
	ModelFluxProUltra         = "flux-pro-ultra"
	ModelFluxDev              = "flux-dev"
	ModelRecraftV3            = "recraft-v3"
	ModelIdeogramV2           = "ideogram-v2"
	ModelSD35                 = "stable-diffusion-35"
	ModelFluxKontext          = "flux-kontext"
	ModelFluxKontextMax       = "flux-kontext-max"
	ModelGeminiFlashImage     = "gemini-flash-image"
	ModelGeminiFlashImageEdit = "gemini-flash-image-edit"
)

// DefaultCatalog returns a registry populated with the built-in models.
func DefaultCatalog() *Registry {
	return NewRegistry(
		ModelDescriptor{
			Key:               ModelNanoBanana,
			DisplayName:       "Fal.ai Nano Banana (default)",
			Capability:        CapabilityTextToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/flux/schnell",
			Description:       "Fast generation, good for quick previews",
			Defaults:          DefaultParameters(),
			RequestsPerMinute: 60,
		},
		ModelDescriptor{
			Key:               ModelFluxProUltra,
			DisplayName:       "FLUX1.1 [pro] ultra",
			Capability:        CapabilityTextToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/flux-pro/v1.1-ultra",
			Description:       "Professional image quality, up to 2K resolution",
			Defaults:          proDefaults(),
			RequestsPerMinute: 10,
		},
		ModelDescriptor{
			Key:               ModelFluxDev,
			DisplayName:       "FLUX.1 [dev]",
			Capability:        CapabilityTextToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/flux/dev",
			Description:       "12B parameter model, high quality output",
			Defaults:          proDefaults(),
			RequestsPerMinute: 30,
		},
		ModelDescriptor{
			Key:               ModelRecraftV3,
			DisplayName:       "Recraft V3",
			Capability:        CapabilityTextToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/recraft-v3/text-to-image",
			Description:       "Long text, vector art and brand styles",
			Defaults:          DefaultParameters(),
			RequestsPerMinute: 30,
		},
		ModelDescriptor{
			Key:               ModelIdeogramV2,
			DisplayName:       "Ideogram V2",
			Capability:        CapabilityTextToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/ideogram-v2/text-to-image",
			Description:       "Strong typography handling and realistic output",
			Defaults:          DefaultParameters(),
			RequestsPerMinute: 30,
		},
		ModelDescriptor{
			Key:               ModelSD35,
			DisplayName:       "Stable Diffusion 3.5 Large",
			Capability:        CapabilityTextToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/stable-diffusion-v3-5-large/text-to-image",
			Description:       "Improved quality and complex prompt understanding",
			Defaults:          proDefaults(),
			RequestsPerMinute: 30,
		},
		ModelDescriptor{
			Key:               ModelFluxKontext,
			DisplayName:       "FLUX.1 Kontext [pro]",
			Capability:        CapabilityImageToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/flux-pro/kontext",
			Description:       "Instruction-based editing of an existing image",
			Defaults:          proDefaults(),
			RequestsPerMinute: 10,
		},
		ModelDescriptor{
			Key:               ModelFluxKontextMax,
			DisplayName:       "FLUX.1 Kontext [max]",
			Capability:        CapabilityImageToImage,
			Backend:           BackendFal,
			Endpoint:          "https://fal.run/fal-ai/flux-pro/kontext/max",
			Description:       "Highest fidelity editing, improved typography",
			Defaults:          proDefaults(),
			RequestsPerMinute: 5,
		},
		ModelDescriptor{
			Key:               ModelGeminiFlashImage,
			DisplayName:       "Gemini 2.5 Flash Image",
			Capability:        CapabilityTextToImage,
			Backend:           BackendGemini,
			Endpoint:          "gemini-2.5-flash-image",
			Description:       "Google's conversational image model",
			Defaults:          DefaultParameters(),
			RequestsPerMinute: 10,
		},
		ModelDescriptor{
			Key:               ModelGeminiFlashImageEdit,
			DisplayName:       "Gemini 2.5 Flash Image (edit)",
			Capability:        CapabilityImageToImage,
			Backend:           BackendGemini,
			Endpoint:          "gemini-2.5-flash-image",
			Description:       "Image editing via Gemini",
			Defaults:          DefaultParameters(),
			RequestsPerMinute: 10,
		},
	)
}

// proDefaults are the defaults for the heavier models, which need more
// inference steps.
func proDefaults() Parameters {
	p := DefaultParameters()
	p.Steps = 28
	return p
}
