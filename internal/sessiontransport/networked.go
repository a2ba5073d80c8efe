package sessiontransport

import (
	"context"
	"io"

	"github.com/quic-go/quic-go"

	"github.com/tanujdesk/remotedesk/internal/clipboard"
	"github.com/tanujdesk/remotedesk/internal/framedstream"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/transport"
)

// Role distinguishes which side of the connection opens vs. accepts each
// substream (spec.md §4.5).
type Role uint8

const (
	RoleHost Role = iota
	RoleClient
)

var (
	frameCodec     = protocol.CBORCodec[*protocol.ScreenFrameData]{}
	inputCodec     = protocol.CBORCodec[*protocol.TransportInput]{}
	clipboardCodec = protocol.CBORCodec[*protocol.ClipboardData]{}
	controlCodec   = protocol.CBORCodec[*protocol.ControlPingData]{}
)

// Networked bridges conn's handshake-established bidi/uni substreams to a
// SessionTransport (spec.md §4.5):
//   - host opens one uni substream for video, accepts one uni substream for
//     input, and opens one bidi substream for clipboard;
//   - client mirrors: accepts video, opens input, accepts clipboard;
//   - control reuses the handshake bidi substream (controlStream) in both
//     directions, already established during the connect/accept flow.
func Networked(ctx context.Context, conn *transport.Connection, role Role, controlStream quic.Stream) (*SessionTransport, error) {
	var (
		videoSend  quic.SendStream
		videoRecv  quic.ReceiveStream
		inputSend  quic.SendStream
		inputRecv  quic.ReceiveStream
		clipStream quic.Stream
		err        error
	)

	switch role {
	case RoleHost:
		if videoSend, err = conn.OpenUni(ctx); err != nil {
			return nil, err
		}
		if inputRecv, err = conn.AcceptUni(ctx); err != nil {
			return nil, err
		}
		if clipStream, err = conn.OpenBidi(ctx); err != nil {
			return nil, err
		}
	case RoleClient:
		if inputSend, err = conn.OpenUni(ctx); err != nil {
			return nil, err
		}
		if videoRecv, err = conn.AcceptUni(ctx); err != nil {
			return nil, err
		}
		if clipStream, err = conn.AcceptBidi(ctx); err != nil {
			return nil, err
		}
	}

	frames := make(chan *protocol.ScreenFrameData, FramesDepth)
	input := make(chan *protocol.TransportInput, InputDepth)
	clipboardOut := make(chan clipboard.Content, ClipboardDepth)
	clipboardIn := make(chan clipboard.Content, ClipboardDepth)
	controlOut := make(chan ControlMessage, ControlDepth)
	controlIn := make(chan ControlMessage, ControlDepth)

	t := &SessionTransport{
		ClipboardOut: clipboardOut,
		ClipboardIn:  clipboardIn,
		ControlOut:   controlOut,
		ControlIn:    controlIn,
		Close: func() {
			if videoSend != nil {
				videoSend.Close()
			}
			if inputSend != nil {
				inputSend.Close()
			}
			if clipStream != nil {
				clipStream.Close()
			}
		},
	}

	switch role {
	case RoleHost:
		t.FramesOut = frames
		t.InputIn = input
		go func() {
			_ = framedstream.BridgeLossy(ctx, framedstream.NewSender[*protocol.ScreenFrameData](videoSend, frameCodec), frames, nil)
		}()
		go func() {
			_ = framedstream.PumpToChannel(ctx, framedstream.NewReceiver[*protocol.TransportInput](inputRecv, inputCodec), input)
		}()
	case RoleClient:
		t.FramesIn = frames
		t.InputOut = input
		go func() {
			_ = framedstream.PumpToChannel(ctx, framedstream.NewReceiver[*protocol.ScreenFrameData](videoRecv, frameCodec), frames)
		}()
		go func() {
			_ = framedstream.BridgeLossless(ctx, framedstream.NewSender[*protocol.TransportInput](inputSend, inputCodec), input)
		}()
	}

	go bridgeClipboard(ctx, clipStream, clipboardOut, clipboardIn)
	go bridgeControl(ctx, controlStream, controlOut, controlIn)

	return t, nil
}

// bridgeClipboard drives clipStream with an independent reader and writer
// goroutine: outbound carries locally-produced updates to the peer, inbound
// carries peer updates up to the session (spec.md §4.5).
func bridgeClipboard(ctx context.Context, stream io.ReadWriter, outbound <-chan clipboard.Content, inbound chan<- clipboard.Content) {
	sender := framedstream.NewSender[*protocol.ClipboardData](stream, clipboardCodec)
	receiver := framedstream.NewReceiver[*protocol.ClipboardData](stream, clipboardCodec)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-outbound:
				if !ok {
					return
				}
				wire := protocol.NewClipboardData(c.Type, c.Data, c.Hash, 0)
				if err := sender.Send(wire); err != nil {
					return
				}
			}
		}
	}()

	defer close(inbound)
	for {
		wire, err := receiver.Recv()
		if err != nil {
			return
		}
		content := clipboard.Content{Type: wire.ContentType, Data: wire.Data, Hash: wire.ContentHash}
		select {
		case inbound <- content:
		case <-ctx.Done():
			return
		}
	}
}

// bridgeControl drives controlStream with Ping/Pong traffic; only those two
// ControlKind variants cross the wire in v1 (DESIGN.md Open Question 3).
// Any other variant read from outbound is dropped rather than attempted.
func bridgeControl(ctx context.Context, stream io.ReadWriter, outbound <-chan ControlMessage, inbound chan<- ControlMessage) {
	sender := framedstream.NewSender[*protocol.ControlPingData](stream, controlCodec)
	receiver := framedstream.NewReceiver[*protocol.ControlPingData](stream, controlCodec)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				if msg.Kind != protocol.ControlPing && msg.Kind != protocol.ControlPong {
					continue
				}
				if err := sender.Send(msg.Ping); err != nil {
					return
				}
			}
		}
	}()

	defer close(inbound)
	for {
		ping, err := receiver.Recv()
		if err != nil {
			return
		}
		select {
		case inbound <- ControlMessage{Kind: protocol.ControlPong, Ping: ping}:
		case <-ctx.Done():
			return
		}
	}
}
