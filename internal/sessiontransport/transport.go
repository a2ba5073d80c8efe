// Package sessiontransport bundles the four channel-pairs a session uses
// described in spec.md §4.5: frames, input, clipboard, control.
package sessiontransport

import (
	"github.com/tanujdesk/remotedesk/internal/clipboard"
	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// ControlMessage is the session-level control sum type (spec.md §4.5). Only
// Ping/Pong are wired over the network in v1 (see DESIGN.md Open Question 3);
// the rest exist here so callers on the loopback transport (tests, single
// process demos) can exercise them in full.
type ControlMessage struct {
	Kind        protocol.ControlKind
	Ping        *protocol.ControlPingData
	Quality     *int
	Fps         *int
	DisplayInfo *protocol.DesktopInfo
}

// Ping builds a ControlMessage carrying a Ping payload.
func Ping(timestampMs int64) ControlMessage {
	return ControlMessage{Kind: protocol.ControlPing, Ping: protocol.NewControlPing(timestampMs)}
}

// Pong builds a ControlMessage carrying a Pong payload.
func Pong(timestampMs int64) ControlMessage {
	return ControlMessage{Kind: protocol.ControlPong, Ping: protocol.NewControlPing(timestampMs)}
}

// Channel depths mirror spec.md §4.2/§4.8.
const (
	FramesDepth    = 4
	InputDepth     = 32
	ClipboardDepth = 32
	ControlDepth   = 32
)

// SessionTransport bundles the four channel-pairs a host/client session
// drives (spec.md §4.5). FramesOut/InputIn are driven by the host side;
// FramesIn/InputOut by the client side; clipboard and control flow both
// ways on every SessionTransport.
type SessionTransport struct {
	FramesOut chan<- *protocol.ScreenFrameData
	FramesIn  <-chan *protocol.ScreenFrameData

	InputOut chan<- *protocol.TransportInput
	InputIn  <-chan *protocol.TransportInput

	ClipboardOut chan<- clipboard.Content
	ClipboardIn  <-chan clipboard.Content

	ControlOut chan<- ControlMessage
	ControlIn  <-chan ControlMessage

	// Close releases any resources (networked bridges, loopback channels)
	// backing this transport.
	Close func()
}
