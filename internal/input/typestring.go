package input

import (
	"fmt"

	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// shiftedPunctuation maps characters whose printable form requires Shift to
// their base key (spec.md §4.9).
var shiftedPunctuation = map[rune]protocol.KeyCode{
	'!': protocol.Key1, '@': protocol.Key2, '#': protocol.Key3, '$': protocol.Key4,
	'%': protocol.Key5, '^': protocol.Key6, '&': protocol.Key7, '*': protocol.Key8,
	'(': protocol.Key9, ')': protocol.Key0, '_': protocol.KeyMinus, '+': protocol.KeyEquals,
	'{': protocol.KeyLeftBracket, '}': protocol.KeyRightBracket, '|': protocol.KeyBackslash,
	':': protocol.KeySemicolon, '"': protocol.KeyQuote, '<': protocol.KeyComma,
	'>': protocol.KeyPeriod, '?': protocol.KeySlash,
}

var unshiftedLetters = map[rune]protocol.KeyCode{
	'a': protocol.KeyA, 'b': protocol.KeyB, 'c': protocol.KeyC, 'd': protocol.KeyD,
	'e': protocol.KeyE, 'f': protocol.KeyF, 'g': protocol.KeyG, 'h': protocol.KeyH,
	'i': protocol.KeyI, 'j': protocol.KeyJ, 'k': protocol.KeyK, 'l': protocol.KeyL,
	'm': protocol.KeyM, 'n': protocol.KeyN, 'o': protocol.KeyO, 'p': protocol.KeyP,
	'q': protocol.KeyQ, 'r': protocol.KeyR, 's': protocol.KeyS, 't': protocol.KeyT,
	'u': protocol.KeyU, 'v': protocol.KeyV, 'w': protocol.KeyW, 'x': protocol.KeyX,
	'y': protocol.KeyY, 'z': protocol.KeyZ,
}

var unshiftedDigits = map[rune]protocol.KeyCode{
	'0': protocol.Key0, '1': protocol.Key1, '2': protocol.Key2, '3': protocol.Key3,
	'4': protocol.Key4, '5': protocol.Key5, '6': protocol.Key6, '7': protocol.Key7,
	'8': protocol.Key8, '9': protocol.Key9,
}

// TypeString composes press/release pairs for s, toggling Shift for
// characters whose printable form requires it (uppercase letters,
// !@#$%^&*()_+{}|:"<>?) (spec.md §4.9). Fails the whole sequence on the
// first unsupported character.
func TypeString(sim Simulator, s string) error {
	for _, r := range s {
		key, needsShift, ok := lookup(r)
		if !ok {
			return &InputError{Err: fmt.Errorf("unsupported character %q", r)}
		}

		if needsShift {
			if err := sim.KeyDown(protocol.KeyShift); err != nil {
				return &InputError{Err: err}
			}
		}
		if err := sim.KeyDown(key); err != nil {
			return &InputError{Err: err}
		}
		if err := sim.KeyUp(key); err != nil {
			return &InputError{Err: err}
		}
		if needsShift {
			if err := sim.KeyUp(protocol.KeyShift); err != nil {
				return &InputError{Err: err}
			}
		}
	}
	return nil
}

func lookup(r rune) (key protocol.KeyCode, needsShift bool, ok bool) {
	if r == ' ' {
		return protocol.KeySpace, false, true
	}
	if r >= 'A' && r <= 'Z' {
		lower := r - 'A' + 'a'
		if key, ok := unshiftedLetters[lower]; ok {
			return key, true, true
		}
	}
	if key, ok := unshiftedLetters[r]; ok {
		return key, false, true
	}
	if key, ok := unshiftedDigits[r]; ok {
		return key, false, true
	}
	if key, ok := shiftedPunctuation[r]; ok {
		return key, true, true
	}
	return protocol.KeyUnknown, false, false
}
