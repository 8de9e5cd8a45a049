// Package render draws the machine's framebuffer to a terminal using tcell,
// mapping RGB24 pixels onto the nearest terminal cell. Grounded on
// jeebie/render/terminal.go's screen-lifecycle and shading idiom, adapted
// from the Game Boy's fixed 160x144 panel to the PSX's on-demand
// RenderRGB24 output.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	psxcore "github.com/rook-emu/psxcore"
)

const frameTime = time.Second / 60

// shadeChars approximates luminance with block-drawing characters, reused
// from the teacher's terminal renderer.
var shadeChars = []rune{'█', '▓', '▒', '░', ' '}

// TerminalRenderer drives a machine and redraws its display region to the
// terminal at 60Hz.
type TerminalRenderer struct {
	screen  tcell.Screen
	machine *psxcore.Machine
	running bool
}

// NewTerminalRenderer initializes a tcell screen bound to the given machine.
func NewTerminalRenderer(m *psxcore.Machine) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("render: initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("render: initializing terminal: %w", err)
	}
	return &TerminalRenderer{screen: screen, machine: m, running: true}, nil
}

// Run drives the machine one frame per 60Hz tick until interrupted or 'q'
// is pressed.
func (t *TerminalRenderer) Run() error {
	defer t.screen.Fini()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	events := make(chan tcell.Event, 16)
	go t.screen.ChannelEvents(events, nil)

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for t.running {
		select {
		case <-signals:
			return nil
		case ev := <-events:
			t.handleEvent(ev)
		case <-ticker.C:
			t.machine.RunFrame()
			t.draw()
		}
	}
	return nil
}

func (t *TerminalRenderer) handleEvent(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if e.Rune() == 'q' || e.Key() == tcell.KeyCtrlC {
			t.running = false
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *TerminalRenderer) draw() {
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	frame := t.machine.GPU().RenderRGB24(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			r, g, b := frame[i], frame[i+1], frame[i+2]
			shade := shadeChars[luminanceBucket(r, g, b)]
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
			t.screen.SetContent(x, y, shade, nil, style)
		}
	}
	t.screen.Show()
}

func luminanceBucket(r, g, b uint8) int {
	lum := (int(r)*299 + int(g)*587 + int(b)*114) / 1000
	bucket := (255 - lum) * (len(shadeChars) - 1) / 255
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= len(shadeChars) {
		bucket = len(shadeChars) - 1
	}
	return bucket
}

func init() {
	slog.Debug("render: terminal backend registered")
}
