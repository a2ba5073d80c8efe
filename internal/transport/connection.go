package transport

import (
	"context"

	"github.com/quic-go/quic-go"
)

// StreamKind tags the four substream roles a connection exchanges
// (spec.md §4.5).
type StreamKind uint8

const (
	StreamControl StreamKind = iota
	StreamVideo
	StreamInput
	StreamClipboard
)

// FromUint8 parses a StreamKind tag, defaulting to StreamControl on an
// unrecognized value.
func FromUint8(b byte) StreamKind {
	if b > byte(StreamClipboard) {
		return StreamControl
	}
	return StreamKind(b)
}

// Connection wraps a quic.Connection, exposing the bidi/uni substream
// operations spec.md §4.1/§4.5 require. A Connection is shared by the
// sender and receiver tasks that use it (spec.md §3 Ownership).
type Connection struct {
	conn quic.Connection
}

// OpenBidi opens a new bidirectional substream.
func (c *Connection) OpenBidi(ctx context.Context) (quic.Stream, error) {
	return c.conn.OpenStreamSync(ctx)
}

// AcceptBidi accepts the next peer-opened bidirectional substream.
func (c *Connection) AcceptBidi(ctx context.Context) (quic.Stream, error) {
	return c.conn.AcceptStream(ctx)
}

// OpenUni opens a new unidirectional (send-only) substream.
func (c *Connection) OpenUni(ctx context.Context) (quic.SendStream, error) {
	return c.conn.OpenUniStreamSync(ctx)
}

// AcceptUni accepts the next peer-opened unidirectional (receive-only) substream.
func (c *Connection) AcceptUni(ctx context.Context) (quic.ReceiveStream, error) {
	return c.conn.AcceptUniStream(ctx)
}

// RemoteAddr returns the peer's network address.
func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// StableID identifies this connection by the peer's remote address; two
// connections from the same address get the same StableID.
func (c *Connection) StableID() string {
	return c.conn.RemoteAddr().String()
}

// IsClosed reports whether the connection's context has been cancelled.
func (c *Connection) IsClosed() bool {
	select {
	case <-c.conn.Context().Done():
		return true
	default:
		return false
	}
}

// Close closes the connection with the given application error code and reason.
func (c *Connection) Close(code uint64, reason string) error {
	return c.conn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}
