package render

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	jeebie "github.com/arlojames/pocketgb/gb"
	"github.com/arlojames/pocketgb/gb/input"
	"github.com/arlojames/pocketgb/gb/input/action"
	"github.com/arlojames/pocketgb/gb/input/event"
)

const ebitenScale = 4

// ebitenKeys pairs the action.Action values the GB cares about with the
// ebiten key that drives them, mirroring input.DefaultKeyMap's choices.
var ebitenKeys = []struct {
	key    ebiten.Key
	action action.Action
}{
	{ebiten.KeyArrowUp, action.GBDPadUp},
	{ebiten.KeyArrowDown, action.GBDPadDown},
	{ebiten.KeyArrowLeft, action.GBDPadLeft},
	{ebiten.KeyArrowRight, action.GBDPadRight},
	{ebiten.KeyZ, action.GBButtonA},
	{ebiten.KeyX, action.GBButtonB},
	{ebiten.KeyEnter, action.GBButtonStart},
	{ebiten.KeyShiftRight, action.GBButtonSelect},
}

// EbitenRenderer drives the emulator inside a real window via ebiten,
// an alternative to TerminalRenderer for environments with a display.
type EbitenRenderer struct {
	emulator *jeebie.Emulator
	input    *input.Manager
	tex      *ebiten.Image
	pressed  map[action.Action]bool
}

// NewEbitenRenderer constructs a windowed frontend for emu. Call Run to
// start ebiten's event loop (this blocks until the window closes).
func NewEbitenRenderer(emu *jeebie.Emulator) *EbitenRenderer {
	ebiten.SetWindowSize(width*ebitenScale, height*ebitenScale)
	ebiten.SetWindowTitle("pocketgb")

	r := &EbitenRenderer{
		emulator: emu,
		input:    input.NewManager(emu.GetMMU()),
		tex:      ebiten.NewImage(width, height),
		pressed:  make(map[action.Action]bool),
	}
	r.input.On(action.EmulatorPauseToggle, event.Press, func() {
		if emu.GetDebuggerState() == jeebie.DebuggerPaused {
			emu.DebuggerResume()
		} else {
			emu.DebuggerPause()
		}
	})
	return r
}

// Run starts ebiten's game loop; it returns when the window is closed.
func (r *EbitenRenderer) Run() error {
	if err := ebiten.RunGame(r); err != nil {
		return fmt.Errorf("ebiten exited: %w", err)
	}
	return nil
}

// Update is called by ebiten ~60 times a second: it polls the keyboard,
// feeds presses/releases through the shared input.Manager, and advances
// the emulator by one frame.
func (r *EbitenRenderer) Update() error {
	for _, k := range ebitenKeys {
		down := ebiten.IsKeyPressed(k.key)
		was := r.pressed[k.action]
		switch {
		case down && !was:
			r.input.Trigger(k.action, event.Press)
		case !down && was:
			r.input.Trigger(k.action, event.Release)
		}
		r.pressed[k.action] = down
	}
	if ebiten.IsKeyPressed(ebiten.KeyEscape) && !r.pressed[action.EmulatorPauseToggle] {
		r.input.Trigger(action.EmulatorPauseToggle, event.Press)
	}
	r.pressed[action.EmulatorPauseToggle] = ebiten.IsKeyPressed(ebiten.KeyEscape)

	r.emulator.RunUntilFrame()
	return nil
}

// Draw copies the emulator's frame buffer into the window.
func (r *EbitenRenderer) Draw(screen *ebiten.Image) {
	fb := r.emulator.GetCurrentFrame()
	r.tex.WritePixels(fb.ToBinaryData())

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(ebitenScale, ebitenScale)
	screen.DrawImage(r.tex, opts)
}

// Layout reports the emulator's native resolution; ebiten scales it to
// the window size set in NewEbitenRenderer.
func (r *EbitenRenderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return width, height
}
