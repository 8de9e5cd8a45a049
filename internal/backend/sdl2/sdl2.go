//go:build sdl2

// Package sdl2 is the optional accelerated display backend, built only
// with -tags sdl2 and the SDL2 development libraries installed. Grounded
// on jeebie/backend/sdl2.go's window/renderer/texture lifecycle, adapted
// from the Game Boy's fixed framebuffer to the PSX's on-demand RGB24
// display region.
package sdl2

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	psxcore "github.com/rook-emu/psxcore"
)

const (
	displayWidth  = 640
	displayHeight = 480
)

// Backend drives an SDL2 window from a machine's rendered display region.
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
}

// New returns an uninitialized backend; call Init before Update.
func New() *Backend { return &Backend{} }

// Init creates the SDL2 window, renderer, and streaming texture.
func (b *Backend) Init(title string) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl2: initializing SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, displayWidth, displayHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("sdl2: creating window: %w", err)
	}
	b.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl2: creating renderer: %w", err)
	}
	b.renderer = renderer

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGB24, sdl.TEXTUREACCESS_STREAMING, displayWidth, displayHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("sdl2: creating texture: %w", err)
	}
	b.texture = texture
	b.running = true
	return nil
}

// Update renders the machine's current display region to the window and
// drains pending SDL2 events, reporting whether the window is still open.
func (b *Backend) Update(m *psxcore.Machine) (bool, error) {
	if !b.running {
		return false, nil
	}

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			b.running = false
		}
	}

	frame := m.GPU().RenderRGB24(displayWidth, displayHeight)
	if err := b.texture.Update(nil, frame, displayWidth*3); err != nil {
		return b.running, fmt.Errorf("sdl2: updating texture: %w", err)
	}

	b.renderer.Clear()
	b.renderer.Copy(b.texture, nil, nil)
	b.renderer.Present()

	return b.running, nil
}

// Cleanup tears down the renderer and window.
func (b *Backend) Cleanup() error {
	if b.texture != nil {
		b.texture.Destroy()
	}
	if b.renderer != nil {
		b.renderer.Destroy()
	}
	if b.window != nil {
		b.window.Destroy()
	}
	sdl.Quit()
	return nil
}
