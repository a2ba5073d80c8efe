package input

import (
	"errors"
	"fmt"

	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// InputError wraps a per-event simulation failure. Per spec.md §7, an
// InputError fails only the single event, never the session.
type InputError struct {
	Err error
}

func (e *InputError) Error() string  { return fmt.Sprintf("input: %v", e.Err) }
func (e *InputError) Unwrap() error  { return e.Err }

// ErrUnmappedKey is returned when a KeyCode has no platform equivalent.
var ErrUnmappedKey = errors.New("input: key has no platform mapping")

// Simulator is the platform input-injection primitive (external collaborator,
// spec.md §1), generalized from the teacher's string-keyed InputHandler to
// the fixed protocol.KeyCode/MouseButton vocabulary spec.md §4.9 mandates.
type Simulator interface {
	MoveMouse(x, y int32) error
	MouseButtonDown(x, y int32, button protocol.MouseButton) error
	MouseButtonUp(x, y int32, button protocol.MouseButton) error
	MouseWheel(dx, dy int32) error
	KeyDown(key protocol.KeyCode) error
	KeyUp(key protocol.KeyCode) error
}

// Apply dispatches a single TransportInput event onto sim. A mapping or
// injection failure is wrapped as *InputError and does not propagate past
// the caller's event loop.
func Apply(sim Simulator, evt *protocol.TransportInput) error {
	switch {
	case evt.Keyboard != nil:
		return applyKeyboard(sim, evt.Keyboard)
	case evt.Mouse != nil:
		return applyMouse(sim, evt.Mouse)
	default:
		return &InputError{Err: errors.New("empty TransportInput event")}
	}
}

func applyKeyboard(sim Simulator, k *protocol.KeyboardEventData) error {
	var err error
	switch k.Kind {
	case protocol.KeyPress:
		err = sim.KeyDown(k.Key)
	case protocol.KeyRelease:
		err = sim.KeyUp(k.Key)
	default:
		err = fmt.Errorf("unknown keyboard event kind %v", k.Kind)
	}
	if err != nil {
		return &InputError{Err: err}
	}
	return nil
}

func applyMouse(sim Simulator, m *protocol.MouseEventData) error {
	var err error
	switch m.Kind {
	case protocol.MouseMove:
		err = sim.MoveMouse(m.X, m.Y)
	case protocol.MouseButtonPress:
		err = sim.MouseButtonDown(m.X, m.Y, m.Button)
	case protocol.MouseButtonRelease:
		err = sim.MouseButtonUp(m.X, m.Y, m.Button)
	case protocol.MouseWheel:
		err = sim.MouseWheel(m.DX, m.DY)
	default:
		err = fmt.Errorf("unknown mouse event kind %v", m.Kind)
	}
	if err != nil {
		return &InputError{Err: err}
	}
	return nil
}
