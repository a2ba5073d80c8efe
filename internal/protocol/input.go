package protocol

// KeyCode is the fixed, platform-neutral key enumeration (spec.md §4.9).
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeySpace
	KeyShift
	KeyControl
	KeyAlt
	KeyMeta
	KeyCapsLock
	KeyMinus
	KeyEquals
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyComma
	KeyPeriod
	KeySlash
	KeyBacktick
)

// KeyEventKind distinguishes press from release.
type KeyEventKind uint8

const (
	KeyPress KeyEventKind = iota
	KeyRelease
)

// KeyboardEventData is the wire payload for a single keyboard event.
type KeyboardEventData struct {
	Kind        KeyEventKind `cbor:"kind"`
	Key         KeyCode      `cbor:"key"`
	TimestampMs int64        `cbor:"timestamp_ms"`
}

// NewKeyboardEventData builds a KeyboardEventData payload.
func NewKeyboardEventData(kind KeyEventKind, key KeyCode, timestampMs int64) *KeyboardEventData {
	return &KeyboardEventData{Kind: kind, Key: key, TimestampMs: timestampMs}
}

// MouseButton enumerates mouse buttons.
type MouseButton uint8

const (
	ButtonLeft MouseButton = iota
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)

// MouseEventKind tags a MouseEventData variant.
type MouseEventKind uint8

const (
	MouseMove MouseEventKind = iota
	MouseButtonPress
	MouseButtonRelease
	MouseWheel
)

// MouseEventData is the wire payload for a single mouse event. Only the
// fields relevant to Kind are populated.
type MouseEventData struct {
	Kind   MouseEventKind `cbor:"kind"`
	X      int32          `cbor:"x"`
	Y      int32          `cbor:"y"`
	Button MouseButton    `cbor:"button"`
	DX     int32          `cbor:"dx"`
	DY     int32          `cbor:"dy"`
}

// NewMouseEventData builds a raw MouseEventData; prefer the Move/ButtonPress/
// ButtonRelease/Wheel constructors below for typical use.
func NewMouseEventData(kind MouseEventKind, x, y int32, button MouseButton, dx, dy int32) *MouseEventData {
	return &MouseEventData{Kind: kind, X: x, Y: y, Button: button, DX: dx, DY: dy}
}

// MouseMoveTo builds a MouseMove event to (x, y).
func MouseMoveTo(x, y int32) *MouseEventData {
	return &MouseEventData{Kind: MouseMove, X: x, Y: y}
}

// MouseButtonPressAt builds a MouseButtonPress event at (x, y).
func MouseButtonPressAt(x, y int32, button MouseButton) *MouseEventData {
	return &MouseEventData{Kind: MouseButtonPress, X: x, Y: y, Button: button}
}

// MouseButtonReleaseAt builds a MouseButtonRelease event at (x, y).
func MouseButtonReleaseAt(x, y int32, button MouseButton) *MouseEventData {
	return &MouseEventData{Kind: MouseButtonRelease, X: x, Y: y, Button: button}
}

// MouseWheelDelta builds a MouseWheel event with pixel deltas.
func MouseWheelDelta(dx, dy int32) *MouseEventData {
	return &MouseEventData{Kind: MouseWheel, DX: dx, DY: dy}
}

// TransportInput wraps a keyboard or mouse event with a monotonic sequence
// number (spec.md §3 TransportInput).
type TransportInput struct {
	Sequence uint64            `cbor:"sequence"`
	Keyboard *KeyboardEventData `cbor:"keyboard,omitempty"`
	Mouse    *MouseEventData    `cbor:"mouse,omitempty"`
}
