package input

import (
	"testing"

	"github.com/tanujdesk/remotedesk/internal/protocol"
)

func TestTranslateBasic(t *testing.T) {
	x, y := Translate(50, 50, 0, 0, 100, 100, 1920, 1080)
	if x != 960 || y != 540 {
		t.Fatalf("Translate() = (%d,%d), want (960,540)", x, y)
	}
}

func TestTranslateWithOffsetRect(t *testing.T) {
	// image rect starts at (10,20), local point (60,70) -> (50,50) within
	// the 100x100 rect -> same as TestTranslateBasic.
	x, y := Translate(60, 70, 10, 20, 100, 100, 1920, 1080)
	if x != 960 || y != 540 {
		t.Fatalf("Translate() = (%d,%d), want (960,540)", x, y)
	}
}

func TestMoveCoalescerSuppressesRepeats(t *testing.T) {
	var c MoveCoalescer
	if !c.Next(1, 1) {
		t.Fatal("first Next() call should always emit")
	}
	if c.Next(1, 1) {
		t.Fatal("repeated coordinate should be suppressed")
	}
	if !c.Next(2, 1) {
		t.Fatal("changed coordinate should emit")
	}
}

type recordingSimulator struct {
	events []string
	failOn protocol.KeyCode
}

func (r *recordingSimulator) MoveMouse(x, y int32) error { r.events = append(r.events, "move"); return nil }
func (r *recordingSimulator) MouseButtonDown(x, y int32, b protocol.MouseButton) error {
	r.events = append(r.events, "down")
	return nil
}
func (r *recordingSimulator) MouseButtonUp(x, y int32, b protocol.MouseButton) error {
	r.events = append(r.events, "up")
	return nil
}
func (r *recordingSimulator) MouseWheel(dx, dy int32) error { r.events = append(r.events, "wheel"); return nil }
func (r *recordingSimulator) KeyDown(key protocol.KeyCode) error {
	if key == r.failOn {
		return ErrUnmappedKey
	}
	r.events = append(r.events, "keydown")
	return nil
}
func (r *recordingSimulator) KeyUp(key protocol.KeyCode) error {
	if key == r.failOn {
		return ErrUnmappedKey
	}
	r.events = append(r.events, "keyup")
	return nil
}

func TestApplySequencePreservesOrder(t *testing.T) {
	sim := &recordingSimulator{}
	events := []*protocol.TransportInput{
		{Sequence: 1, Keyboard: protocol.NewKeyboardEventData(protocol.KeyPress, protocol.KeyA, 0)},
		{Sequence: 2, Keyboard: protocol.NewKeyboardEventData(protocol.KeyRelease, protocol.KeyA, 0)},
		{Sequence: 3, Mouse: protocol.MouseMoveTo(100, 200)},
		{Sequence: 4, Mouse: protocol.MouseButtonPressAt(100, 200, protocol.ButtonLeft)},
		{Sequence: 5, Mouse: protocol.MouseButtonReleaseAt(100, 200, protocol.ButtonLeft)},
		{Sequence: 6, Mouse: protocol.MouseWheelDelta(0, -10)},
	}
	for _, e := range events {
		if err := Apply(sim, e); err != nil {
			t.Fatalf("Apply(seq=%d): %v", e.Sequence, err)
		}
	}
	want := []string{"keydown", "keyup", "move", "down", "up", "wheel"}
	if len(sim.events) != len(want) {
		t.Fatalf("events = %v, want %v", sim.events, want)
	}
	for i := range want {
		if sim.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, sim.events[i], want[i])
		}
	}
}

func TestTypeStringTogglesShift(t *testing.T) {
	sim := &recordingSimulator{}
	if err := TypeString(sim, "Ab1!"); err != nil {
		t.Fatalf("TypeString: %v", err)
	}
	// A -> shift+keydown+keyup+shiftup, b -> keydown+keyup, 1 -> keydown+keyup, ! -> shift+down+up+shiftup
	wantEventCount := 4 + 2 + 2 + 4
	if len(sim.events) != wantEventCount {
		t.Fatalf("events count = %d, want %d (%v)", len(sim.events), wantEventCount, sim.events)
	}
}

func TestTypeStringFailsOnUnsupportedChar(t *testing.T) {
	sim := &recordingSimulator{}
	if err := TypeString(sim, "a€b"); err == nil {
		t.Fatal("expected failure on unsupported character")
	}
}

func TestApplyUnmappedKeyIsInputErrorOnly(t *testing.T) {
	sim := &recordingSimulator{failOn: protocol.KeyF1}
	err := Apply(sim, &protocol.TransportInput{Keyboard: protocol.NewKeyboardEventData(protocol.KeyPress, protocol.KeyF1, 0)})
	if err == nil {
		t.Fatal("expected InputError")
	}
	if _, ok := err.(*InputError); !ok {
		t.Fatalf("expected *InputError, got %T", err)
	}
}
