package protocol

// ControlKind tags a ControlMessage variant (spec.md §4.5). Only Ping/Pong
// are given wire encodings in v1 — see internal/sessiontransport and
// DESIGN.md's Open Question 3 note.
type ControlKind uint8

const (
	ControlStart ControlKind = iota
	ControlPause
	ControlResume
	ControlStop
	ControlPing
	ControlPong
	ControlSetQuality
	ControlSetFps
	ControlRequestDisplayInfo
	ControlDisplayInfo
)

// ControlPingData is the wire payload for a Ping/Pong round trip.
type ControlPingData struct {
	TimestampMs int64 `cbor:"timestamp_ms"`
}

// NewControlPing builds a ControlPingData for the current clock.
func NewControlPing(timestampMs int64) *ControlPingData {
	return &ControlPingData{TimestampMs: timestampMs}
}
