package protocol

import "github.com/fxamacker/cbor/v2"

// CBORCodec adapts any cbor-serializable type T to internal/framedstream's
// Codec[T] interface.
type CBORCodec[T any] struct{}

// Marshal cbor-encodes v.
func (CBORCodec[T]) Marshal(v T) ([]byte, error) { return cbor.Marshal(v) }

// Unmarshal cbor-decodes into a fresh T.
func (CBORCodec[T]) Unmarshal(b []byte) (T, error) {
	var v T
	err := cbor.Unmarshal(b, &v)
	return v, err
}

// MessageCodec frames *Message values directly (used on the control
// substream during handshake, before a typed payload codec applies).
var MessageCodec = CBORCodec[*Message]{}
