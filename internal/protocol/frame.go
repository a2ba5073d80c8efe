package protocol

// FrameFormat enumerates the encoded pixel format of a ScreenFrame.
type FrameFormat uint8

const (
	FormatRaw FrameFormat = iota
	FormatJpeg
	FormatPng
	FormatWebP
)

// ScreenFrameData is the wire payload for one encoded video frame
// (spec.md §3 TransportFrame).
type ScreenFrameData struct {
	Sequence     uint64      `cbor:"sequence"`
	Width        uint32      `cbor:"width"`
	Height       uint32      `cbor:"height"`
	Format       FrameFormat `cbor:"format"`
	Data         []byte      `cbor:"data"`
	OriginalSize uint32      `cbor:"original_size"`
	TimestampMs  int64       `cbor:"timestamp_ms"`
}

// NewScreenFrameData builds a ScreenFrameData payload.
func NewScreenFrameData(sequence uint64, width, height uint32, format FrameFormat, data []byte, originalSize uint32, timestampMs int64) *ScreenFrameData {
	return &ScreenFrameData{
		Sequence:     sequence,
		Width:        width,
		Height:       height,
		Format:       format,
		Data:         data,
		OriginalSize: originalSize,
		TimestampMs:  timestampMs,
	}
}
