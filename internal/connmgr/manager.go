// Package connmgr owns the secure transport endpoint and discovery for the
// process, mediating connect/accept through an explicit consent queue
// (spec.md §4.4).
package connmgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/tanujdesk/remotedesk/internal/deviceid"
	"github.com/tanujdesk/remotedesk/internal/discovery"
	"github.com/tanujdesk/remotedesk/internal/logging"
	"github.com/tanujdesk/remotedesk/internal/password"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/transport"
)

var log = logging.L("connmgr")

// Role distinguishes which side of a handshake a connection resulted from.
type Role int

const (
	RoleClient Role = iota
	RoleHost
)

// Config configures a Manager.
type Config struct {
	DeviceID         deviceid.DeviceId
	DeviceName       string
	ServicePort      int
	PasswordHashPath string
	MaxConnections   int

	// DesktopInfo supplies the local DesktopInfo sent in ConnectionAccept
	// (spec.md §5 DesktopInfo.current()). Optional; a zero-value DesktopInfo
	// is sent when unset — callers that offer display info should inject it
	// to avoid depending on capture internals here.
	DesktopInfo func() protocol.DesktopInfo
}

// activeConnection tracks one established connection (spec.md §5 Shared state).
type activeConnection struct {
	remoteID      deviceid.DeviceId
	remoteName    string
	role          Role
	conn          *transport.Connection
	controlStream quic.Stream
	sessionID     [16]byte
	connectedAt   time.Time
}

// ConnectionInfo is a read-only snapshot of an active connection.
type ConnectionInfo struct {
	RemoteID    deviceid.DeviceId
	RemoteName  string
	Role        Role
	SessionID   [16]byte
	ConnectedAt time.Time
}

// EstablishedConnection is returned by Connect/AcceptConnection, handed off
// to the session layer to build a SessionTransport.
type EstablishedConnection struct {
	Role          Role
	RemoteID      deviceid.DeviceId
	RemoteName    string
	Conn          *transport.Connection
	ControlStream quic.Stream
	SessionID     [16]byte
	DesktopInfo   protocol.DesktopInfo
}

// Manager owns the endpoint and discovery for the process.
type Manager struct {
	config    Config
	endpoint  *transport.Endpoint
	discovery *discovery.Discovery

	mu          sync.RWMutex
	connections map[deviceid.DeviceId]*activeConnection

	pending *pendingQueue
	bus     *eventBus
}

// New wires a Manager around an already-constructed endpoint and discovery.
func New(cfg Config, ep *transport.Endpoint, disc *discovery.Discovery) *Manager {
	return &Manager{
		config:      cfg,
		endpoint:    ep,
		discovery:   disc,
		connections: make(map[deviceid.DeviceId]*activeConnection),
		pending:     newPendingQueue(),
		bus:         newEventBus(),
	}
}

// Events returns the manager's event stream; per-device order is preserved,
// cross-device order is not (spec.md §4.4).
func (m *Manager) Events() <-chan Event {
	m.bus.start()
	return m.bus.events()
}

// DeviceID returns the local device identifier.
func (m *Manager) DeviceID() deviceid.DeviceId { return m.config.DeviceID }

// Start begins advertising and discovery and spawns the accept loop. It
// returns once both are running; cancel ctx to stop everything.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.discovery.StartAdvertising(m.config.ServicePort); err != nil {
		return fmt.Errorf("connmgr: start advertising: %w", err)
	}

	discoveryEvents := make(chan discovery.PeerEvent, 16)
	go func() {
		if err := m.discovery.StartDiscovery(ctx, discoveryEvents); err != nil {
			log.Warn("discovery stopped", "error", err)
		}
	}()
	go m.relayDiscoveryEvents(ctx, discoveryEvents)
	go m.acceptLoop(ctx)

	log.Info("connection manager started", "device_id", m.config.DeviceID.String())
	return nil
}

// Stop disconnects every active connection and withdraws advertising.
func (m *Manager) Stop() {
	m.mu.Lock()
	ids := make([]deviceid.DeviceId, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_ = m.Disconnect(id)
	}

	m.discovery.StopAdvertising()
	m.bus.close()
	log.Info("connection manager stopped")
}

func (m *Manager) relayDiscoveryEvents(ctx context.Context, in <-chan discovery.PeerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			switch ev.Kind {
			case discovery.PeerDiscovered, discovery.PeerUpdated:
				m.bus.send(Event{Kind: EventPeerDiscovered, PeerInfo: ev.Info})
			case discovery.PeerLost:
				m.bus.send(Event{Kind: EventPeerLost, RemoteID: ev.Lost})
			}
		}
	}
}

// IsConnected reports whether remoteID has an active connection.
func (m *Manager) IsConnected(remoteID deviceid.DeviceId) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connections[remoteID]
	return ok
}

// ConnectionInfo returns a snapshot of the connection to remoteID, if any.
func (m *Manager) ConnectionInfo(remoteID deviceid.DeviceId) (ConnectionInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.connections[remoteID]
	if !ok {
		return ConnectionInfo{}, false
	}
	return ConnectionInfo{RemoteID: c.remoteID, RemoteName: c.remoteName, Role: c.role, SessionID: c.sessionID, ConnectedAt: c.connectedAt}, true
}

// ActiveConnections returns a snapshot of every active connection.
func (m *Manager) ActiveConnections() []ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]ConnectionInfo, 0, len(m.connections))
	for _, c := range m.connections {
		infos = append(infos, ConnectionInfo{RemoteID: c.remoteID, RemoteName: c.remoteName, Role: c.role, SessionID: c.sessionID, ConnectedAt: c.connectedAt})
	}
	return infos
}

// DiscoveredPeers returns every peer currently in the discovery cache.
func (m *Manager) DiscoveredPeers() []discovery.PeerInfo {
	return m.discovery.Cache().All()
}

// Connect initiates a connection to remoteID (spec.md §4.4 Outbound).
// addr overrides discovery resolution when non-empty (direct-IP connect).
func (m *Manager) Connect(ctx context.Context, remoteID deviceid.DeviceId, plaintext string, addr string) (*EstablishedConnection, error) {
	if m.IsConnected(remoteID) {
		return nil, fmt.Errorf("connmgr: already connected to %s", remoteID.FormatWithSpaces())
	}

	m.mu.RLock()
	active := len(m.connections)
	m.mu.RUnlock()
	if m.config.MaxConnections > 0 && active >= m.config.MaxConnections {
		return nil, fmt.Errorf("connmgr: maximum connections reached")
	}

	if addr == "" {
		addrs, ok := m.discovery.Resolve(remoteID)
		if !ok || len(addrs) == 0 {
			return nil, fmt.Errorf("connmgr: peer %s not found via discovery", remoteID.FormatWithSpaces())
		}
		addr = addrs[0].String()
	}

	conn, err := m.endpoint.Connect(ctx, addr, "localhost")
	if err != nil {
		return nil, fmt.Errorf("connmgr: connect to %s: %w", addr, err)
	}

	stream, err := conn.OpenBidi(ctx)
	if err != nil {
		conn.Close(0, "control substream failed")
		return nil, fmt.Errorf("connmgr: open control substream: %w", err)
	}

	var hash *[32]byte
	if plaintext != "" {
		digest := password.WireDigest(plaintext, remoteID.Uint32())
		hash = &digest
	}
	req := protocol.NewConnectionRequest(m.config.DeviceID.Uint32(), m.config.DeviceName, remoteID.Uint32(), hash, nil)
	if err := sendPayload(stream, protocol.TypeConnectionRequest, req); err != nil {
		conn.Close(0, "send request failed")
		return nil, fmt.Errorf("connmgr: send connection request: %w", err)
	}

	msg, err := recvMessage(stream)
	if err != nil {
		conn.Close(0, "handshake read failed")
		return nil, fmt.Errorf("connmgr: await handshake response: %w", err)
	}

	switch msg.Type {
	case protocol.TypeConnectionAccept:
		var accept protocol.ConnectionAccept
		if err := msg.Decode(&accept); err != nil {
			conn.Close(0, "malformed accept")
			return nil, fmt.Errorf("connmgr: decode ConnectionAccept: %w", err)
		}
		ac := &activeConnection{
			remoteID: remoteID, remoteName: accept.HostName, role: RoleClient,
			conn: conn, controlStream: stream, sessionID: accept.SessionID, connectedAt: time.Now(),
		}
		m.mu.Lock()
		m.connections[remoteID] = ac
		m.mu.Unlock()

		m.bus.send(Event{Kind: EventConnected, RemoteID: remoteID})
		log.Info("connected", "remote_id", remoteID.String())
		return &EstablishedConnection{
			Role: RoleClient, RemoteID: remoteID, RemoteName: accept.HostName,
			Conn: conn, ControlStream: stream, SessionID: accept.SessionID, DesktopInfo: accept.DesktopInfo,
		}, nil

	case protocol.TypeConnectionReject:
		var reject protocol.ConnectionReject
		if err := msg.Decode(&reject); err != nil {
			conn.Close(0, "malformed reject")
			return nil, fmt.Errorf("connmgr: decode ConnectionReject: %w", err)
		}
		conn.Close(0, string(reject.Reason))
		return nil, fmt.Errorf("connmgr: connection rejected: %s", reject.Reason)

	default:
		conn.Close(0, "unexpected handshake message")
		return nil, fmt.Errorf("connmgr: unexpected handshake message type %v", msg.Type)
	}
}

// Disconnect tears down the active connection to remoteID, if any.
func (m *Manager) Disconnect(remoteID deviceid.DeviceId) error {
	m.mu.Lock()
	ac, ok := m.connections[remoteID]
	if ok {
		delete(m.connections, remoteID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}

	_ = ac.conn.Close(0, "user initiated")
	m.bus.send(Event{Kind: EventDisconnected, RemoteID: remoteID, DisconnectReason: "UserInitiated"})
	log.Info("disconnected", "remote_id", remoteID.String())
	return nil
}

func (m *Manager) acceptLoop(ctx context.Context) {
	for {
		conn, err := m.endpoint.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("accept failed", "error", err)
			continue
		}
		go m.handleInbound(ctx, conn)
	}
}

func (m *Manager) handleInbound(ctx context.Context, conn *transport.Connection) {
	stream, err := conn.AcceptBidi(ctx)
	if err != nil {
		conn.Close(0, "control substream missing")
		return
	}

	msg, err := recvMessage(stream)
	if err != nil {
		conn.Close(0, "handshake read failed")
		return
	}
	if msg.Type != protocol.TypeConnectionRequest {
		conn.Close(0, "expected ConnectionRequest")
		return
	}

	var req protocol.ConnectionRequest
	if err := msg.Decode(&req); err != nil {
		conn.Close(0, "malformed ConnectionRequest")
		return
	}

	remoteID, err := deviceid.FromUint32(req.ClientID)
	if err != nil {
		m.reject(conn, stream, protocol.ReasonInvalidID, "invalid client id")
		return
	}

	if req.ProtocolVersion != protocol.CurrentProtocolVersion {
		m.reject(conn, stream, protocol.ReasonUnsupportedVersion,
			fmt.Sprintf("Expected %d, got %d", protocol.CurrentProtocolVersion, req.ProtocolVersion))
		return
	}
	if req.HostID != m.config.DeviceID.Uint32() {
		m.reject(conn, stream, protocol.ReasonInvalidID, "wrong host id")
		return
	}

	// Password gating is presence-only for v1 (DESIGN.md Open Question 1):
	// the host cannot cryptographically verify the client's SHA-256 digest
	// against its stored Argon2id hash without the plaintext, so a hash file
	// merely gates whether a digest is required at all.
	if password.IsSet(m.config.PasswordHashPath) && req.PasswordHash == nil {
		m.reject(conn, stream, protocol.ReasonInvalidPassword, "password required")
		return
	}

	p := &pendingRequest{
		remoteID: remoteID, remoteName: req.ClientName, hasPassword: req.PasswordHash != nil,
		request: &req, conn: conn, controlStream: stream,
	}
	id := m.pending.enqueue(p)
	m.bus.send(Event{Kind: EventConnectionRequest, RemoteID: remoteID, RemoteName: req.ClientName, HasPassword: p.hasPassword, PendingID: id})
	log.Info("connection request pending", "remote_id", remoteID.String(), "pending_id", id)
}

func (m *Manager) reject(conn *transport.Connection, stream quic.Stream, reason protocol.RejectReason, message string) {
	reject := protocol.NewConnectionReject(reason, message)
	_ = sendPayload(stream, protocol.TypeConnectionReject, reject)
	conn.Close(0, string(reason))
	log.Warn("connection rejected", "reason", reason, "message", message)
}

// AcceptConnection accepts a pending inbound request, sending
// ConnectionAccept with a fresh session id and the local DesktopInfo.
func (m *Manager) AcceptConnection(pendingID uint64) (*EstablishedConnection, error) {
	p, ok := m.pending.take(pendingID)
	if !ok {
		return nil, fmt.Errorf("connmgr: no pending connection %d", pendingID)
	}

	var info protocol.DesktopInfo
	if m.config.DesktopInfo != nil {
		info = m.config.DesktopInfo()
	}

	accept, err := protocol.NewConnectionAccept(m.config.DeviceName, nil, info)
	if err != nil {
		p.conn.Close(0, "accept failed")
		return nil, fmt.Errorf("connmgr: build ConnectionAccept: %w", err)
	}
	if err := sendPayload(p.controlStream, protocol.TypeConnectionAccept, accept); err != nil {
		p.conn.Close(0, "accept send failed")
		return nil, fmt.Errorf("connmgr: send ConnectionAccept: %w", err)
	}

	ac := &activeConnection{
		remoteID: p.remoteID, remoteName: p.remoteName, role: RoleHost,
		conn: p.conn, controlStream: p.controlStream, sessionID: accept.SessionID, connectedAt: time.Now(),
	}
	m.mu.Lock()
	m.connections[p.remoteID] = ac
	m.mu.Unlock()

	m.bus.send(Event{Kind: EventConnected, RemoteID: p.remoteID})
	log.Info("connection accepted", "remote_id", p.remoteID.String())
	return &EstablishedConnection{
		Role: RoleHost, RemoteID: p.remoteID, RemoteName: p.remoteName,
		Conn: p.conn, ControlStream: p.controlStream, SessionID: accept.SessionID, DesktopInfo: info,
	}, nil
}

// RejectConnection rejects a pending inbound request with reason.
func (m *Manager) RejectConnection(pendingID uint64, reason protocol.RejectReason) error {
	p, ok := m.pending.take(pendingID)
	if !ok {
		return fmt.Errorf("connmgr: no pending connection %d", pendingID)
	}
	m.reject(p.conn, p.controlStream, reason, "")
	return nil
}

func sendPayload(stream quic.Stream, t protocol.MessageType, payload any) error {
	msg, err := protocol.NewMessage(t, payload)
	if err != nil {
		return err
	}
	sender := framedMessageSender(stream)
	return sender.Send(msg)
}

func recvMessage(stream quic.Stream) (*protocol.Message, error) {
	receiver := framedMessageReceiver(stream)
	return receiver.Recv()
}
