// Package capture defines the screen-capture interface and FPS pacing
// described in spec.md §4.6. The platform primitive itself is an external
// collaborator (spec.md §1); this package supplies the interface, the
// pacer/retry loop, and an in-memory test double.
package capture

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/tanujdesk/remotedesk/internal/logging"
)

// Sentinel errors surfaced by Capturer implementations.
var (
	ErrNotSupported     = errors.New("capture: not supported on this platform")
	ErrPermissionDenied = errors.New("capture: permission denied")
	ErrDisplayNotFound  = errors.New("capture: display not found")
	ErrTimeout          = errors.New("capture: frame read timed out")
)

// Capturer yields the primary display's pixels as an RGBA image
// (spec.md §4.6). Source pixel order may be BGRA at the platform layer;
// implementations MUST convert to RGBA before returning. Capture is
// blocking and not cancellable mid-read — run it on a dedicated goroutine.
type Capturer interface {
	// Capture blocks until the next frame is available or the 1s hard cap
	// elapses (ErrTimeout), or the capturer is closed.
	Capture() (*image.RGBA, error)
	// Bounds returns the primary display's width and height.
	Bounds() (width, height int)
	Close() error
}

// FrameCap is the hard per-frame read deadline (spec.md §4.6).
const FrameCap = 1 * time.Second

// MaxConsecutiveFailures terminates the capture loop and reports
// Disconnected to the session (spec.md §4.6, §7).
const MaxConsecutiveFailures = 10

var log = logging.L("capture")

// Loop paces Capturer.Capture at fps, invoking onFrame for each
// successfully captured frame and onFatal after MaxConsecutiveFailures in
// a row. Loop returns when ctx is cancelled or onFatal has been called.
func Loop(ctx context.Context, c Capturer, fps int, onFrame func(*image.RGBA), onFatal func(error)) {
	if fps <= 0 {
		fps = 1
	}
	interval := time.Second / time.Duration(fps)

	consecutiveFailures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		frame, err := captureWithDeadline(c)
		if err != nil {
			consecutiveFailures++
			log.Warn("capture failed", logging.KeyError, err, "consecutive", consecutiveFailures)
			if consecutiveFailures >= MaxConsecutiveFailures {
				onFatal(err)
				return
			}
			continue
		}
		consecutiveFailures = 0
		onFrame(frame)

		elapsed := time.Since(start)
		if residual := interval - elapsed; residual > 0 {
			select {
			case <-time.After(residual):
			case <-ctx.Done():
				return
			}
		}
	}
}

func captureWithDeadline(c Capturer) (*image.RGBA, error) {
	type result struct {
		frame *image.RGBA
		err   error
	}
	done := make(chan result, 1)
	go func() {
		frame, err := c.Capture()
		done <- result{frame, err}
	}()

	select {
	case r := <-done:
		return r.frame, r.err
	case <-time.After(FrameCap):
		return nil, ErrTimeout
	}
}
