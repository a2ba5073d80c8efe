// Package decoder implements the frame decode pipeline and stats described
// in spec.md §4.6.
package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"
	"time"

	"github.com/tanujdesk/remotedesk/internal/encoder"
	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// emaAlpha is the decode-time exponential moving average smoothing factor
// (spec.md §4.6).
const emaAlpha = 0.1

// Stats is a snapshot of the decoder's running counters (spec.md §4.6).
type Stats struct {
	FramesDecoded     uint64
	FramesDropped     uint64
	BytesReceived     uint64
	BytesDecoded      uint64
	AvgDecodeTimeMs   float64
	LastSequence      uint64
	OutOfOrderFrames  uint64
}

// Decoder tracks decode statistics across a sequence of frames
// (spec.md §4.6, invariant 5).
type Decoder struct {
	mu       sync.Mutex
	stats    Stats
	expected uint64 // 0 means "no frame observed yet"
}

// New constructs a Decoder with zeroed stats.
func New() *Decoder { return &Decoder{} }

// Decode dispatches on frame.Format, producing an RGBA buffer sized
// width*height*4, and updates the running stats (including out-of-order
// accounting per spec.md invariant 5).
func (d *Decoder) Decode(frame *encoder.EncodedFrame) (*image.RGBA, error) {
	start := time.Now()

	img, err := decodePixels(frame)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.BytesReceived += uint64(len(frame.Data))
	d.accountSequence(frame.Sequence)

	if err != nil {
		d.stats.FramesDropped++
		return nil, err
	}

	d.stats.FramesDecoded++
	d.stats.BytesDecoded += uint64(len(img.Pix))

	elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
	if d.stats.FramesDecoded == 1 {
		d.stats.AvgDecodeTimeMs = elapsedMs
	} else {
		d.stats.AvgDecodeTimeMs = emaAlpha*elapsedMs + (1-emaAlpha)*d.stats.AvgDecodeTimeMs
	}

	return img, nil
}

// accountSequence implements spec.md invariant 5: expected_{i+1} = s_i + 1;
// any arrival s_i != expected_i counts as out of order, and expected always
// advances past it. expected starts at 0 (nothing seen yet), so the first
// frame is never counted, whatever its sequence number.
func (d *Decoder) accountSequence(sequence uint64) {
	if d.expected != 0 && sequence != d.expected {
		d.stats.OutOfOrderFrames++
	}
	d.stats.LastSequence = sequence
	d.expected = sequence + 1
}

// Stats returns a snapshot of the current counters.
func (d *Decoder) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func decodePixels(frame *encoder.EncodedFrame) (*image.RGBA, error) {
	switch frame.Format {
	case protocol.FormatRaw:
		if len(frame.Data) != frame.Width*frame.Height*4 {
			return nil, fmt.Errorf("decoder: raw frame size %d != %d*%d*4", len(frame.Data), frame.Width, frame.Height)
		}
		img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
		copy(img.Pix, frame.Data)
		return img, nil

	case protocol.FormatJpeg:
		decoded, err := jpeg.Decode(bytes.NewReader(frame.Data))
		if err != nil {
			return nil, fmt.Errorf("decoder: jpeg decode: %w", err)
		}
		return toRGBA(decoded), nil

	case protocol.FormatPng:
		decoded, err := png.Decode(bytes.NewReader(frame.Data))
		if err != nil {
			return nil, fmt.Errorf("decoder: png decode: %w", err)
		}
		return toRGBA(decoded), nil

	default:
		return nil, fmt.Errorf("decoder: unsupported format %v", frame.Format)
	}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
