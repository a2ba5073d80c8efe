package decoder

import (
	"image"
	"testing"

	"github.com/tanujdesk/remotedesk/internal/encoder"
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

// TestLoopbackRoundtripScenario mirrors scenario S1.
func TestLoopbackRoundtripScenario(t *testing.T) {
	img := gradient(100, 100)
	frame, err := encoder.Encode(protocol.FormatJpeg, img, 1, 80)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if frame.Sequence != 1 {
		t.Fatalf("Sequence = %d, want 1", frame.Sequence)
	}

	d := New()
	decoded, err := d.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Rect.Dx() != 100 || decoded.Rect.Dy() != 100 {
		t.Fatalf("decoded dims = %dx%d, want 100x100", decoded.Rect.Dx(), decoded.Rect.Dy())
	}
	if frame.Format != protocol.FormatJpeg {
		t.Fatalf("Format = %v, want Jpeg", frame.Format)
	}
}

func TestDecodeRawBitExact(t *testing.T) {
	img := gradient(20, 20)
	frame, _ := encoder.Encode(protocol.FormatRaw, img, 1, 0)

	d := New()
	decoded, err := d.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded.Pix) != string(img.Pix) {
		t.Fatal("raw decode should be bit-exact with the original frame")
	}
}

func TestDecodeSizeInvariantForCompressedFormats(t *testing.T) {
	img := gradient(64, 48)
	for _, format := range []protocol.FrameFormat{protocol.FormatJpeg, protocol.FormatPng} {
		frame, err := encoder.Encode(format, img, 1, 80)
		if err != nil {
			t.Fatalf("Encode(%v): %v", format, err)
		}
		d := New()
		decoded, err := d.Decode(frame)
		if err != nil {
			t.Fatalf("Decode(%v): %v", format, err)
		}
		want := frame.Width * frame.Height * 4
		if len(decoded.Pix) != want {
			t.Errorf("format %v: decoded len = %d, want %d", format, len(decoded.Pix), want)
		}
	}
}

// TestOutOfOrderAccounting mirrors invariant 5.
func TestOutOfOrderAccounting(t *testing.T) {
	d := New()
	img := gradient(4, 4)

	sequences := []uint64{1, 2, 4, 3, 5}
	for _, seq := range sequences {
		frame, _ := encoder.Encode(protocol.FormatRaw, img, seq, 0)
		if _, err := d.Decode(frame); err != nil {
			t.Fatalf("Decode(seq=%d): %v", seq, err)
		}
	}

	// observed: 1,2,4,3,5 ; expected (previous + 1): -,2,3,5,4 -> mismatches
	// at 4 (vs 3), 3 (vs 5) and 5 (vs 4)
	stats := d.Stats()
	if stats.OutOfOrderFrames != 3 {
		t.Fatalf("OutOfOrderFrames = %d, want 3", stats.OutOfOrderFrames)
	}
	if stats.FramesDecoded != uint64(len(sequences)) {
		t.Fatalf("FramesDecoded = %d, want %d", stats.FramesDecoded, len(sequences))
	}
}

func TestDecodeFailureCountsAsDropped(t *testing.T) {
	d := New()
	bad := &encoder.EncodedFrame{Width: 10, Height: 10, Format: protocol.FormatJpeg, Data: []byte("not a jpeg"), Sequence: 1}
	if _, err := d.Decode(bad); err == nil {
		t.Fatal("expected decode error for corrupt jpeg data")
	}
	if d.Stats().FramesDropped != 1 {
		t.Fatalf("FramesDropped = %d, want 1", d.Stats().FramesDropped)
	}
}
