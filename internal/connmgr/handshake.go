package connmgr

import (
	"io"

	"github.com/tanujdesk/remotedesk/internal/framedstream"
	"github.com/tanujdesk/remotedesk/internal/protocol"
)

func framedMessageSender(rw io.Writer) *framedstream.Sender[*protocol.Message] {
	return framedstream.NewSender[*protocol.Message](rw, protocol.MessageCodec)
}

func framedMessageReceiver(rw io.Reader) *framedstream.Receiver[*protocol.Message] {
	return framedstream.NewReceiver[*protocol.Message](rw, protocol.MessageCodec)
}
