package capture

import "image"

// GradientCapturer is an in-memory Capturer test double producing the
// deterministic gradient used by scenario S1: pixel (x,y) = (x*255/w,
// y*255/h, 128, 255).
type GradientCapturer struct {
	Width, Height int
	closed        bool
}

// NewGradientCapturer constructs a GradientCapturer of the given size.
func NewGradientCapturer(width, height int) *GradientCapturer {
	return &GradientCapturer{Width: width, Height: height}
}

func (g *GradientCapturer) Capture() (*image.RGBA, error) {
	if g.closed {
		return nil, ErrNotSupported
	}
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			offset := img.PixOffset(x, y)
			img.Pix[offset+0] = uint8(x * 255 / g.Width)
			img.Pix[offset+1] = uint8(y * 255 / g.Height)
			img.Pix[offset+2] = 128
			img.Pix[offset+3] = 255
		}
	}
	return img, nil
}

func (g *GradientCapturer) Bounds() (int, int) { return g.Width, g.Height }
func (g *GradientCapturer) Close() error       { g.closed = true; return nil }
