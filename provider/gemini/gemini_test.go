package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/pixelfold/imagechat"
)

func TestDispatch_MissingCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	d := &Dispatcher{}
	payload := imagechat.TextToImagePayload{Prompt: "a fox", ImageSize: "landscape_4_3", NumImages: 1}

	_, err := d.Dispatch(context.Background(), imagechat.ModelDescriptor{Endpoint: "gemini-2.5-flash-image"}, payload, "")
	if !errors.Is(err, imagechat.ErrMissingCredentials) {
		t.Fatalf("error = %v, want ErrMissingCredentials", err)
	}
}

func TestClientFor_UsesPerCallKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	ctx := context.Background()

	d := &Dispatcher{}
	first, err := d.clientFor(ctx, "key-1")
	if err != nil {
		t.Fatalf("clientFor(key-1): %v", err)
	}
	if d.apiKey != "key-1" {
		t.Errorf("apiKey = %q, want key-1", d.apiKey)
	}

	// A repeated call with the same key keeps the client.
	again, err := d.clientFor(ctx, "key-1")
	if err != nil {
		t.Fatalf("clientFor(key-1) again: %v", err)
	}
	if again != first {
		t.Error("same key must reuse the existing client")
	}

	// A different key rebuilds the client; stored credentials set after
	// construction take effect on the next dispatch.
	rebuilt, err := d.clientFor(ctx, "key-2")
	if err != nil {
		t.Fatalf("clientFor(key-2): %v", err)
	}
	if rebuilt == first {
		t.Error("a new key must rebuild the client")
	}
	if d.apiKey != "key-2" {
		t.Errorf("apiKey = %q, want key-2", d.apiKey)
	}

	// An empty per-call key falls back to the existing client.
	kept, err := d.clientFor(ctx, "")
	if err != nil {
		t.Fatalf("clientFor(empty): %v", err)
	}
	if kept != rebuilt {
		t.Error("empty key must keep the existing client")
	}
}

func TestNew_DefersClientWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	d, err := New(context.Background(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.client != nil {
		t.Error("client should not be created before a key is available")
	}
}
