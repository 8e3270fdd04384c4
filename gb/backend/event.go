// Package backend declares the types front ends (terminal, headless,
// future graphical backends) use to report input to the emulator,
// independent of any specific windowing library's event types.
package backend

import (
	"github.com/arlojames/pocketgb/gb/input/action"
	"github.com/arlojames/pocketgb/gb/input/event"
)

// InputEvent is a single input occurrence reported by a frontend: an
// action (what was triggered) paired with how it was triggered.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}
