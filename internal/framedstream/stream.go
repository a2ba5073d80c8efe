// Package framedstream implements the length-prefixed typed substream
// framing described in spec.md §4.2: each substream carries a sequence of
// serialized messages of one static type, framed as
// [4-byte big-endian length][body].
package framedstream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessageSize is the cap enforced before any bytes are written or read
// (spec.md §4.2).
const MaxMessageSize = 10 * 1024 * 1024

// MessageTooLargeError is returned when a message exceeds MaxMessageSize.
type MessageTooLargeError struct {
	Size int
	Max  int
}

func (e *MessageTooLargeError) Error() string {
	return fmt.Sprintf("framedstream: message too large: %d bytes (max %d)", e.Size, e.Max)
}

// StreamClosedError is returned on a clean EOF from the peer.
type StreamClosedError struct{}

func (StreamClosedError) Error() string { return "framedstream: stream closed" }

// DeserializationError wraps a codec failure while decoding a frame body.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("framedstream: deserialization: %v", e.Err)
}
func (e *DeserializationError) Unwrap() error { return e.Err }

// Codec converts a typed value to and from its wire bytes. Implementations
// (e.g. internal/protocol's cbor-backed Message) are supplied by callers.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(b []byte) (T, error)
}

// Sender writes a sequence of typed messages onto a single substream.
// A Sender must have exactly one owner (spec.md §4.2: streams are singly-owned).
type Sender[T any] struct {
	w     io.Writer
	codec Codec[T]
}

// NewSender wraps w (typically a QUIC send stream or in-memory pipe) as a
// framed Sender.
func NewSender[T any](w io.Writer, codec Codec[T]) *Sender[T] {
	return &Sender[T]{w: w, codec: codec}
}

// Send serializes msg, writes the 4-byte length prefix, then the body. The
// call returns only once the substream has accepted all bytes.
func (s *Sender[T]) Send(msg T) error {
	body, err := s.codec.Marshal(msg)
	if err != nil {
		return fmt.Errorf("framedstream: marshal: %w", err)
	}
	if len(body) > MaxMessageSize {
		return &MessageTooLargeError{Size: len(body), Max: MaxMessageSize}
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := s.w.Write(header[:]); err != nil {
		return fmt.Errorf("framedstream: write length prefix: %w", err)
	}
	if _, err := s.w.Write(body); err != nil {
		return fmt.Errorf("framedstream: write body: %w", err)
	}
	return nil
}

// Finish signals EOF to the peer, if the underlying writer supports it.
func (s *Sender[T]) Finish() error {
	if closer, ok := s.w.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Receiver reads a sequence of typed messages from a single substream.
// A Receiver must have exactly one owner; Recv is not re-entrant.
type Receiver[T any] struct {
	r     io.Reader
	codec Codec[T]
}

// NewReceiver wraps r as a framed Receiver.
func NewReceiver[T any](r io.Reader, codec Codec[T]) *Receiver[T] {
	return &Receiver[T]{r: r, codec: codec}
}

// Recv reads exactly one framed message, or returns StreamClosedError on a
// clean EOF before any bytes of the next frame have been read.
func (r *Receiver[T]) Recv() (T, error) {
	var zero T

	var header [4]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if err == io.EOF {
			return zero, StreamClosedError{}
		}
		return zero, fmt.Errorf("framedstream: read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if int(length) > MaxMessageSize {
		return zero, &MessageTooLargeError{Size: int(length), Max: MaxMessageSize}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return zero, fmt.Errorf("framedstream: read body: %w", err)
	}

	msg, err := r.codec.Unmarshal(body)
	if err != nil {
		return zero, &DeserializationError{Err: err}
	}
	return msg, nil
}
