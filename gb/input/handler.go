package input

import (
	"time"

	"github.com/arlojames/pocketgb/gb/backend"
	"github.com/arlojames/pocketgb/gb/input/action"
	"github.com/arlojames/pocketgb/gb/input/event"
)

// Handler manages input processing with debouncing for UI actions
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  300 * time.Millisecond,
	}
}

// ProcessEvent processes an input event, applying debouncing to Press events
// on actions flagged as debounced (UI/emulator controls, to stop one key-down
// from toggling a setting twice). Game Boy hardware buttons, Release, and
// Hold events always pass through undebounced.
// Returns true if the event should be handled, false if it was debounced.
func (h *Handler) ProcessEvent(evt backend.InputEvent) bool {
	if evt.Type != event.Press || !action.GetInfo(evt.Action).Debounce {
		return true
	}

	now := time.Now()
	if lastTime, exists := h.lastActionTime[evt.Action]; exists {
		if now.Sub(lastTime) < h.debounceDelay {
			return false
		}
	}
	h.lastActionTime[evt.Action] = now

	return true
}
