package protocol

import (
	"crypto/rand"
	"fmt"
)

// RejectReason enumerates why a ConnectionRequest was rejected.
type RejectReason string

const (
	ReasonUserDenied          RejectReason = "UserDenied"
	ReasonInvalidPassword     RejectReason = "InvalidPassword"
	ReasonInvalidID           RejectReason = "InvalidId"
	ReasonAlreadyConnected    RejectReason = "AlreadyConnected"
	ReasonAccountLocked       RejectReason = "AccountLocked"
	ReasonUnsupportedVersion  RejectReason = "UnsupportedVersion"
)

// DisconnectReason enumerates why a session ended.
type DisconnectReason string

const (
	DisconnectUserInitiated DisconnectReason = "UserInitiated"
	DisconnectTimeout       DisconnectReason = "Timeout"
	DisconnectError         DisconnectReason = "Error"
)

// ErrorCode enumerates application-level error payloads.
type ErrorCode string

const (
	ErrorCodeInternal  ErrorCode = "Internal"
	ErrorCodeProtocol  ErrorCode = "Protocol"
	ErrorCodeTransport ErrorCode = "Transport"
)

// Capability is an advertised feature of a peer.
type Capability string

const (
	CapabilityClipboard Capability = "Clipboard"
	CapabilityInput      Capability = "Input"
)

// DesktopInfo describes the host's primary display.
type DesktopInfo struct {
	Width       int `cbor:"width"`
	Height      int `cbor:"height"`
	ScreenCount int `cbor:"screen_count"`
}

// ConnectionRequest is sent by the client over the control substream.
type ConnectionRequest struct {
	ProtocolVersion       uint8        `cbor:"protocol_version"`
	ClientID              uint32       `cbor:"client_id"`
	ClientName            string       `cbor:"client_name"`
	HostID                uint32       `cbor:"host_id"`
	PasswordHash          *[32]byte    `cbor:"password_hash"`
	RequestedCapabilities []Capability `cbor:"requested_capabilities"`
}

// NewConnectionRequest builds a ConnectionRequest at the current protocol version.
func NewConnectionRequest(clientID uint32, clientName string, hostID uint32, passwordHash *[32]byte, caps []Capability) *ConnectionRequest {
	return &ConnectionRequest{
		ProtocolVersion:       CurrentProtocolVersion,
		ClientID:              clientID,
		ClientName:            clientName,
		HostID:                hostID,
		PasswordHash:          passwordHash,
		RequestedCapabilities: caps,
	}
}

// ConnectionAccept is the host's affirmative handshake reply.
type ConnectionAccept struct {
	SessionID        [16]byte     `cbor:"session_id"`
	HostName         string       `cbor:"host_name"`
	HostCapabilities []Capability `cbor:"host_capabilities"`
	DesktopInfo      DesktopInfo  `cbor:"desktop_info"`
}

// NewConnectionAccept builds a ConnectionAccept with a fresh random session id.
func NewConnectionAccept(hostName string, caps []Capability, info DesktopInfo) (*ConnectionAccept, error) {
	var sessionID [16]byte
	if _, err := rand.Read(sessionID[:]); err != nil {
		return nil, fmt.Errorf("protocol: generate session id: %w", err)
	}
	return &ConnectionAccept{
		SessionID:        sessionID,
		HostName:         hostName,
		HostCapabilities: caps,
		DesktopInfo:      info,
	}, nil
}

// ConnectionReject is the host's negative handshake reply.
type ConnectionReject struct {
	Reason  RejectReason `cbor:"reason"`
	Message *string      `cbor:"message"`
}

// NewConnectionReject builds a ConnectionReject with an optional detail message.
func NewConnectionReject(reason RejectReason, message string) *ConnectionReject {
	r := &ConnectionReject{Reason: reason}
	if message != "" {
		r.Message = &message
	}
	return r
}

// Disconnect signals a graceful session teardown.
type Disconnect struct {
	Reason  DisconnectReason `cbor:"reason"`
	Message *string          `cbor:"message"`
}

// NewDisconnect builds a Disconnect payload.
func NewDisconnect(reason DisconnectReason, message string) *Disconnect {
	d := &Disconnect{Reason: reason}
	if message != "" {
		d.Message = &message
	}
	return d
}

// Heartbeat carries a millisecond timestamp for liveness checks.
type Heartbeat struct {
	TimestampMs int64 `cbor:"timestamp_ms"`
}

// NewHeartbeat builds a Heartbeat at the given millisecond timestamp.
func NewHeartbeat(timestampMs int64) *Heartbeat {
	return &Heartbeat{TimestampMs: timestampMs}
}

// ErrorMessage carries an application-level error.
type ErrorMessage struct {
	Code    ErrorCode `cbor:"code"`
	Message string    `cbor:"message"`
}

// NewErrorMessage builds an ErrorMessage payload.
func NewErrorMessage(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}
