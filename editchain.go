package imagechat

import "sync"

// EditChain tracks the image feeding the next image-to-image generation. Two
// states: no selection, or exactly one selected image reference.
//
// Transitions are driven by the Manager: explicit picks and successful
// generations select (the newest output), removing the selection or switching
// to a text-to-image model clears. Failed generations never touch the chain.
type EditChain struct {
	selected string
	mu       sync.Mutex
}

// Select replaces the current selection with ref.
func (c *EditChain) Select(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ref
}

// Clear drops the selection. Past messages stay untouched; only the intent
// for the next generation is reset.
func (c *EditChain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// Selected returns the current selection, if any.
func (c *EditChain) Selected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != ""
}
