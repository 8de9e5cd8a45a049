//go:build !sdl2

package sdl2

import (
	"fmt"

	psxcore "github.com/rook-emu/psxcore"
)

// Backend stub used when the sdl2 build tag is absent.
type Backend struct{}

// New returns the stub backend.
func New() *Backend { return &Backend{} }

// Init always fails: compile with -tags sdl2 and the SDL2 development
// libraries installed to get a working backend.
func (b *Backend) Init(title string) error {
	return fmt.Errorf("sdl2: backend not available; compile with -tags sdl2")
}

// Update is a no-op in the stub build.
func (b *Backend) Update(m *psxcore.Machine) (bool, error) {
	return false, fmt.Errorf("sdl2: backend not available")
}

// Cleanup is a no-op in the stub build.
func (b *Backend) Cleanup() error { return nil }
