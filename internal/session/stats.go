// Package session orchestrates the host/client worker lifecycle over a
// SessionTransport, gated on the session state machine (spec.md §4.7).
package session

import "sync"

// emaAlpha is the encode-time exponential moving average smoothing factor
// (spec.md §4.7).
const emaAlpha = 0.1

// HostStats is a snapshot of a HostSession's running counters.
type HostStats struct {
	FramesSent     uint64
	FramesDropped  uint64
	BytesSent      uint64
	AvgEncodeTimeMs float64
}

// hostStats is the mutable counterpart guarded by a mutex, since the
// capture worker writes it while Stats() may be read from another goroutine.
type hostStats struct {
	mu    sync.Mutex
	stats HostStats
}

func (s *hostStats) recordSent(bytesSent int, encodeMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FramesSent++
	s.stats.BytesSent += uint64(bytesSent)
	if s.stats.FramesSent == 1 {
		s.stats.AvgEncodeTimeMs = encodeMs
	} else {
		s.stats.AvgEncodeTimeMs = emaAlpha*encodeMs + (1-emaAlpha)*s.stats.AvgEncodeTimeMs
	}
}

func (s *hostStats) recordDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FramesDropped++
}

func (s *hostStats) snapshot() HostStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
