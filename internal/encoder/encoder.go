// Package encoder implements the Raw/JPEG/PNG still-image encoders
// described in spec.md §4.6.
package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/tanujdesk/remotedesk/internal/protocol"
)

// Sentinel validation errors.
var (
	ErrInvalidQuality = errors.New("encoder: quality must be in [1, 100]")
)

// EncodedFrame is the encoder's output (spec.md §4.6).
type EncodedFrame struct {
	Width, Height int
	Data          []byte
	Sequence      uint64
	Format        protocol.FrameFormat
	OriginalSize  int
}

// Encode dispatches on format and produces an EncodedFrame from img.
func Encode(format protocol.FrameFormat, img *image.RGBA, sequence uint64, quality int) (*EncodedFrame, error) {
	originalSize := len(img.Pix)

	switch format {
	case protocol.FormatRaw:
		data := make([]byte, len(img.Pix))
		copy(data, img.Pix)
		return &EncodedFrame{
			Width: img.Rect.Dx(), Height: img.Rect.Dy(),
			Data: data, Sequence: sequence, Format: format, OriginalSize: originalSize,
		}, nil

	case protocol.FormatJpeg:
		if quality < 1 || quality > 100 {
			return nil, ErrInvalidQuality
		}
		rgb := dropAlpha(img)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encoder: jpeg encode: %w", err)
		}
		return &EncodedFrame{
			Width: img.Rect.Dx(), Height: img.Rect.Dy(),
			Data: buf.Bytes(), Sequence: sequence, Format: format, OriginalSize: originalSize,
		}, nil

	case protocol.FormatPng:
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoder: png encode: %w", err)
		}
		return &EncodedFrame{
			Width: img.Rect.Dx(), Height: img.Rect.Dy(),
			Data: buf.Bytes(), Sequence: sequence, Format: format, OriginalSize: originalSize,
		}, nil

	default:
		return nil, fmt.Errorf("encoder: unsupported format %v", format)
	}
}

// dropAlpha copies RGBA into an NRGBA image with every alpha set to 255, so
// JPEG, which has no alpha channel, encodes the colour values unchanged
// (spec.md §4.6: "RGBA -> RGB, alpha dropped").
func dropAlpha(img *image.RGBA) image.Image {
	out := image.NewNRGBA(img.Rect)
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out.Set(x, y, color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255})
		}
	}
	return out
}
