package imagechat

import (
	"errors"
	"testing"
)

func TestAspectRatioForSize(t *testing.T) {
	tests := []struct {
		size ImageSize
		want string
	}{
		{ImageSizeLandscape43, "4:3"},
		{ImageSizeLandscape169, "16:9"},
		{ImageSizeSquare, "1:1"},
		{ImageSizeSquareHD, "1:1"},
		{ImageSizePortrait43, "3:4"},
		{ImageSizePortrait169, "9:16"},
		{ImageSize("some_future_token"), "4:3"},
		{ImageSize(""), "4:3"},
	}

	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			if got := AspectRatioForSize(tt.size); got != tt.want {
				t.Errorf("AspectRatioForSize(%q) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

func TestBuildPayload_TextToImage(t *testing.T) {
	desc := ModelDescriptor{
		Key:        "t2i",
		Capability: CapabilityTextToImage,
		Defaults:   DefaultParameters(),
	}

	payload, err := BuildPayload(desc, GenerationRequest{Prompt: "a red fox"})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}

	p, ok := payload.(TextToImagePayload)
	if !ok {
		t.Fatalf("payload type = %T, want TextToImagePayload", payload)
	}
	if p.Prompt != "a red fox" {
		t.Errorf("Prompt = %q", p.Prompt)
	}
	if p.ImageSize != "landscape_4_3" {
		t.Errorf("ImageSize = %q, want landscape_4_3", p.ImageSize)
	}
	if p.NumInferenceSteps != 4 {
		t.Errorf("NumInferenceSteps = %d, want 4", p.NumInferenceSteps)
	}
	if p.NumImages != 1 {
		t.Errorf("NumImages = %d, want 1", p.NumImages)
	}
	if !p.EnableSafetyChecker {
		t.Error("EnableSafetyChecker = false, want true by default")
	}
}

func TestBuildPayload_ImageToImage(t *testing.T) {
	desc := ModelDescriptor{
		Key:        "i2i",
		Capability: CapabilityImageToImage,
		Defaults:   DefaultParameters(),
	}

	payload, err := BuildPayload(desc, GenerationRequest{
		Prompt:         "make it snow",
		ReferenceImage: "https://img.example/in.png",
		Params:         Parameters{ImageSize: ImageSizePortrait169},
	})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}

	p, ok := payload.(ImageToImagePayload)
	if !ok {
		t.Fatalf("payload type = %T, want ImageToImagePayload", payload)
	}
	if p.ImageURL != "https://img.example/in.png" {
		t.Errorf("ImageURL = %q", p.ImageURL)
	}
	if p.AspectRatio != "9:16" {
		t.Errorf("AspectRatio = %q, want 9:16", p.AspectRatio)
	}
	if p.GuidanceScale != 3.5 {
		t.Errorf("GuidanceScale = %v, want default 3.5", p.GuidanceScale)
	}
	if p.SafetyTolerance != "2" {
		t.Errorf("SafetyTolerance = %q, want 2", p.SafetyTolerance)
	}
}

func TestBuildPayload_MissingReferenceImage(t *testing.T) {
	desc := ModelDescriptor{
		Key:        "i2i",
		Capability: CapabilityImageToImage,
		Defaults:   DefaultParameters(),
	}

	_, err := BuildPayload(desc, GenerationRequest{Prompt: "make it snow"})
	if !errors.Is(err, ErrMissingReferenceImage) {
		t.Fatalf("error = %v, want ErrMissingReferenceImage", err)
	}
}

func TestBuildPayload_EmptyPrompt(t *testing.T) {
	desc := ModelDescriptor{Key: "t2i", Capability: CapabilityTextToImage}

	_, err := BuildPayload(desc, GenerationRequest{})
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("error = %v, want ErrEmptyPrompt", err)
	}
}

func TestBuildPayload_ExplicitAspectRatioWins(t *testing.T) {
	desc := ModelDescriptor{
		Key:        "i2i",
		Capability: CapabilityImageToImage,
		Defaults:   DefaultParameters(),
	}

	payload, err := BuildPayload(desc, GenerationRequest{
		Prompt:         "crop it wide",
		ReferenceImage: "https://img.example/in.png",
		Params:         Parameters{AspectRatio: "21:9"},
	})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if p := payload.(ImageToImagePayload); p.AspectRatio != "21:9" {
		t.Errorf("AspectRatio = %q, want explicit 21:9", p.AspectRatio)
	}
}

func TestBuildPayload_SafetyDisabled(t *testing.T) {
	disabled := false
	desc := ModelDescriptor{
		Key:        "t2i",
		Capability: CapabilityTextToImage,
		Defaults:   DefaultParameters(),
	}

	payload, err := BuildPayload(desc, GenerationRequest{
		Prompt: "a fox",
		Params: Parameters{SafetyChecker: &disabled},
	})
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	if p := payload.(TextToImagePayload); p.EnableSafetyChecker {
		t.Error("EnableSafetyChecker = true, want false when explicitly disabled")
	}
}
