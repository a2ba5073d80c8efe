// Package protocol implements the wire Message types and handshake payloads
// of spec.md §3 and §6.
package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// CurrentProtocolVersion is the protocol version this implementation speaks.
const CurrentProtocolVersion uint8 = 1

// MaxMessageSize is the maximum serialized Message size (spec.md §3).
const MaxMessageSize = 10 * 1024 * 1024

// MessageType tags a Message's payload variant.
type MessageType uint8

const (
	TypeConnectionRequest MessageType = iota
	TypeConnectionAccept
	TypeConnectionReject
	TypeDisconnect
	TypeHeartbeat
	TypeError
	TypeScreenFrame
	TypeKeyboardEvent
	TypeMouseEvent
	TypeClipboard
	TypeControl
)

// Message is the top-level protocol unit (spec.md §3).
type Message struct {
	MessageID uint32      `cbor:"id"`
	Type      MessageType `cbor:"type"`
	Payload   cbor.RawMessage `cbor:"payload"`
}

// NewMessage serializes payload into a Message of the given type with a
// random message id.
func NewMessage(t MessageType, payload any) (*Message, error) {
	raw, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal payload: %w", err)
	}
	id, err := randomUint32()
	if err != nil {
		return nil, err
	}
	return &Message{MessageID: id, Type: t, Payload: raw}, nil
}

// Decode unmarshals m.Payload into out.
func (m *Message) Decode(out any) error {
	return cbor.Unmarshal(m.Payload, out)
}

// ToBytes serializes m to its wire representation (cbor body, no length
// prefix — the length prefix is applied by internal/framedstream).
func (m *Message) ToBytes() ([]byte, error) {
	b, err := cbor.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal message: %w", err)
	}
	if len(b) > MaxMessageSize {
		return nil, &MessageTooLargeError{Size: len(b), Max: MaxMessageSize}
	}
	return b, nil
}

// FromBytes deserializes a Message from its wire representation.
func FromBytes(b []byte) (*Message, error) {
	if len(b) > MaxMessageSize {
		return nil, &MessageTooLargeError{Size: len(b), Max: MaxMessageSize}
	}
	var m Message
	if err := cbor.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("protocol: unmarshal message: %w", err)
	}
	return &m, nil
}

// MessageTooLargeError is returned when a message exceeds MaxMessageSize.
type MessageTooLargeError struct {
	Size int
	Max  int
}

func (e *MessageTooLargeError) Error() string {
	return fmt.Sprintf("protocol: message too large: %d bytes (max %d)", e.Size, e.Max)
}

func randomUint32() (uint32, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<32))
	if err != nil {
		return 0, fmt.Errorf("protocol: random message id: %w", err)
	}
	return uint32(n.Uint64()), nil
}

// PutLengthPrefix writes v as a 4-byte big-endian length prefix (the
// substream-framing layer, spec.md §6).
func PutLengthPrefix(buf []byte, v uint32) {
	binary.BigEndian.PutUint32(buf, v)
}
