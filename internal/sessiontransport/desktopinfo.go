package sessiontransport

import "github.com/tanujdesk/remotedesk/internal/protocol"

// CurrentDesktopInfo reads the local capturer's bounds into the
// DesktopInfo sent back in ConnectionAccept (SPEC_FULL.md §5, generalizing
// original_source's DesktopInfo.current()). screenCount is fixed at 1:
// Capturer exposes only a single primary display (spec.md §4.6).
func CurrentDesktopInfo(bounds func() (width, height int)) protocol.DesktopInfo {
	w, h := bounds()
	return protocol.DesktopInfo{Width: w, Height: h, ScreenCount: 1}
}
