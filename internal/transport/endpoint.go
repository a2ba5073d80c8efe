// Package transport wraps quic-go into the secure transport endpoint
// described in spec.md §4.1: one listening endpoint per process that can
// both accept and initiate secure, multi-stream connections, with a
// trust-on-handshake client verifier and application-layer (password)
// authentication.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/tanujdesk/remotedesk/internal/certstore"
	"github.com/tanujdesk/remotedesk/internal/logging"
)

// Transport parameters (spec.md §4.1).
const (
	IdleTimeout          = 30 * time.Second
	KeepAliveInterval    = 5 * time.Second
	MaxConcurrentStreams = 10
)

var log = logging.L("transport")

// ALPN is the application protocol negotiated on the QUIC TLS handshake.
const ALPN = "remotedesk/1"

// Endpoint owns a single UDP socket and can both accept and initiate
// connections. The endpoint exclusively owns the socket (spec.md §3 Ownership).
type Endpoint struct {
	listener *quic.Listener
	tr       *quic.Transport
	clientTLS *tls.Config
}

// Config configures a new Endpoint.
type Config struct {
	BindAddr string
	Cert     *certstore.Pair
	// ClientOnly endpoints have no certificate and never Accept.
	ClientOnly bool
}

func quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:        IdleTimeout,
		KeepAlivePeriod:       KeepAliveInterval,
		MaxIncomingStreams:    MaxConcurrentStreams,
		MaxIncomingUniStreams: MaxConcurrentStreams,
	}
}

// New creates an endpoint bound to bindAddr, able to both Accept and
// Connect. Fails if the certificate is invalid or the address is in use.
func New(cfg Config) (*Endpoint, error) {
	clientTLS := certstore.ClientTLSConfig([]string{ALPN})

	if cfg.ClientOnly {
		return &Endpoint{clientTLS: clientTLS}, nil
	}

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", cfg.BindAddr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", cfg.BindAddr, err)
	}

	serverTLS := certstore.ServerTLSConfig(cfg.Cert, []string{ALPN})

	tr := &quic.Transport{Conn: conn}
	listener, err := tr.Listen(serverTLS, quicConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: quic listen: %w", err)
	}

	log.Info("endpoint listening", "addr", conn.LocalAddr().String())
	return &Endpoint{listener: listener, tr: tr, clientTLS: clientTLS}, nil
}

// ClientOnly creates an endpoint that can only Connect, not Accept.
func ClientOnly() (*Endpoint, error) {
	return New(Config{ClientOnly: true})
}

// LocalAddr returns the endpoint's bound address, or nil for a client-only endpoint.
func (e *Endpoint) LocalAddr() net.Addr {
	if e.listener == nil {
		return nil
	}
	return e.listener.Addr()
}

// Connect performs a QUIC/TLS handshake to addr and returns once the
// cryptographic handshake completes.
func (e *Endpoint) Connect(ctx context.Context, addr, serverName string) (*Connection, error) {
	tlsCfg := e.clientTLS.Clone()
	tlsCfg.ServerName = serverName

	conn, err := quic.DialAddr(ctx, addr, tlsCfg, quicConfig())
	if err != nil {
		return nil, fmt.Errorf("transport: connect to %s: %w", addr, err)
	}
	return &Connection{conn: conn}, nil
}

// Accept waits for and returns the next inbound connection, or an error
// (including context cancellation) when the endpoint is closed.
func (e *Endpoint) Accept(ctx context.Context) (*Connection, error) {
	if e.listener == nil {
		return nil, fmt.Errorf("transport: client-only endpoint cannot accept")
	}
	conn, err := e.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return &Connection{conn: conn}, nil
}

// Close closes the listener and releases the socket. reason is not sent to
// peers; a client-only endpoint has nothing to close.
func (e *Endpoint) Close(reason string) error {
	if e.listener == nil {
		return nil
	}
	if err := e.listener.Close(); err != nil {
		return err
	}
	return e.tr.Close()
}
