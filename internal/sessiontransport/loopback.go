package sessiontransport

import (
	"sync"

	"github.com/tanujdesk/remotedesk/internal/clipboard"
	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// Loopback wires a pure in-process host/client SessionTransport pair
// (spec.md §4.5): host-out channels feed client-in channels and vice
// versa. Used for tests and single-process demos; bypasses the secure
// transport entirely.
func Loopback() (host, client *SessionTransport) {
	frames := make(chan *protocol.ScreenFrameData, FramesDepth)
	input := make(chan *protocol.TransportInput, InputDepth)
	clipboardHostToClient := make(chan clipboard.Content, ClipboardDepth)
	clipboardClientToHost := make(chan clipboard.Content, ClipboardDepth)
	controlHostToClient := make(chan ControlMessage, ControlDepth)
	controlClientToHost := make(chan ControlMessage, ControlDepth)

	// Each side closes only the channels it writes to (frames/clipboard/
	// control are one-writer-many-reader in each direction); closing a
	// channel the peer still writes to would panic the peer's next send.
	closeGuard := func(ch ...func()) func() {
		var once sync.Once
		return func() {
			once.Do(func() {
				for _, c := range ch {
					c()
				}
			})
		}
	}
	hostClose := closeGuard(
		func() { close(frames) },
		func() { close(clipboardHostToClient) },
		func() { close(controlHostToClient) },
	)
	clientClose := closeGuard(
		func() { close(input) },
		func() { close(clipboardClientToHost) },
		func() { close(controlClientToHost) },
	)

	host = &SessionTransport{
		FramesOut:    frames,
		InputIn:      input,
		ClipboardOut: clipboardHostToClient,
		ClipboardIn:  clipboardClientToHost,
		ControlOut:   controlHostToClient,
		ControlIn:    controlClientToHost,
		Close:        hostClose,
	}
	client = &SessionTransport{
		FramesIn:     frames,
		InputOut:     input,
		ClipboardOut: clipboardClientToHost,
		ClipboardIn:  clipboardHostToClient,
		ControlOut:   controlClientToHost,
		ControlIn:    controlHostToClient,
		Close:        clientClose,
	}
	return host, client
}
