package protocol

// ClipboardContentType enumerates the clipboard payload kinds
// (spec.md §3 TransportClipboard).
type ClipboardContentType uint8

const (
	ClipboardText ClipboardContentType = iota
	ClipboardHTML
	ClipboardImage
)

// ClipboardData is the wire payload for a clipboard update.
type ClipboardData struct {
	ContentType  ClipboardContentType `cbor:"content_type"`
	Data         []byte               `cbor:"data"`
	ContentHash  uint64               `cbor:"content_hash"`
	Sequence     uint64               `cbor:"sequence"`
}

// NewClipboardData builds a ClipboardData payload.
func NewClipboardData(contentType ClipboardContentType, data []byte, contentHash, sequence uint64) *ClipboardData {
	return &ClipboardData{ContentType: contentType, Data: data, ContentHash: contentHash, Sequence: sequence}
}
