package encoder

import (
	"image"
	"testing"

	"github.com/tanujdesk/remotedesk/internal/protocol"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.PixOffset(x, y)
			img.Pix[o+0] = uint8(x * 255 / w)
			img.Pix[o+1] = uint8(y * 255 / h)
			img.Pix[o+2] = 128
			img.Pix[o+3] = 255
		}
	}
	return img
}

func TestEncodeRawRoundTripsSize(t *testing.T) {
	img := gradient(100, 100)
	frame, err := Encode(protocol.FormatRaw, img, 1, 0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(frame.Data) != 100*100*4 {
		t.Fatalf("raw data len = %d, want %d", len(frame.Data), 100*100*4)
	}
	if string(frame.Data) != string(img.Pix) {
		t.Fatal("raw encode should be a bit-exact passthrough")
	}
}

func TestEncodeJpegRejectsBadQuality(t *testing.T) {
	img := gradient(10, 10)
	if _, err := Encode(protocol.FormatJpeg, img, 1, 0); err != ErrInvalidQuality {
		t.Fatalf("Encode(quality=0) error = %v, want ErrInvalidQuality", err)
	}
	if _, err := Encode(protocol.FormatJpeg, img, 1, 101); err != ErrInvalidQuality {
		t.Fatalf("Encode(quality=101) error = %v, want ErrInvalidQuality", err)
	}
}

func TestEncodeJpegProducesData(t *testing.T) {
	img := gradient(100, 100)
	frame, err := Encode(protocol.FormatJpeg, img, 1, 80)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if frame.Width != 100 || frame.Height != 100 {
		t.Fatalf("frame dims = %dx%d, want 100x100", frame.Width, frame.Height)
	}
	if len(frame.Data) == 0 {
		t.Fatal("expected non-empty jpeg data")
	}
	if frame.Format != protocol.FormatJpeg {
		t.Fatalf("Format = %v, want Jpeg", frame.Format)
	}
}

func TestEncodePngLossless(t *testing.T) {
	img := gradient(50, 50)
	frame, err := Encode(protocol.FormatPng, img, 1, 0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(frame.Data) == 0 {
		t.Fatal("expected non-empty png data")
	}
}
