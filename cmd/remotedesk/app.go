package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tanujdesk/remotedesk/internal/capture"
	"github.com/tanujdesk/remotedesk/internal/certstore"
	"github.com/tanujdesk/remotedesk/internal/config"
	"github.com/tanujdesk/remotedesk/internal/connmgr"
	"github.com/tanujdesk/remotedesk/internal/deviceid"
	"github.com/tanujdesk/remotedesk/internal/discovery"
	"github.com/tanujdesk/remotedesk/internal/password"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/session"
	"github.com/tanujdesk/remotedesk/internal/sessiontransport"
	"github.com/tanujdesk/remotedesk/internal/transport"
)

// App wires together the device identity, secure transport, discovery, and
// connection manager for one CLI process, and tracks the session spun up
// for each established connection. cmd/remotedesk is the only caller that
// ties these packages together; everything here is orchestration, not
// policy (spec.md §4.7's workers live in internal/session).
type App struct {
	cfg          *config.Config
	deviceID     deviceid.DeviceId
	deviceName   string
	passwordPath string

	endpoint  *transport.Endpoint
	discovery *discovery.Discovery
	mgr       *connmgr.Manager

	capturer *capture.GradientCapturer

	mu       sync.Mutex
	hosts    map[deviceid.DeviceId]*session.HostSession
	clients  map[deviceid.DeviceId]*session.ClientSession

	cancel context.CancelFunc
}

func newApp(cfg *config.Config, bindAddr string) (*App, error) {
	dir := config.Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("remotedesk: create config dir: %w", err)
	}

	id, err := deviceid.LoadOrCreate(filepath.Join(dir, "device_id"))
	if err != nil {
		return nil, fmt.Errorf("remotedesk: device id: %w", err)
	}

	deviceName := cfg.DeviceName
	if deviceName == "" {
		if h, err := os.Hostname(); err == nil {
			deviceName = h
		} else {
			deviceName = id.String()
		}
	}

	certs, err := certstore.EnsureCertificate(dir, id.Uint32())
	if err != nil {
		return nil, fmt.Errorf("remotedesk: certificate: %w", err)
	}

	endpoint, err := transport.New(transport.Config{BindAddr: bindAddr, Cert: certs})
	if err != nil {
		return nil, fmt.Errorf("remotedesk: endpoint: %w", err)
	}

	disc := discovery.New(id, deviceName, protocol.CurrentProtocolVersion)
	capturer := capture.NewGradientCapturer(1920, 1080)

	passwordPath := filepath.Join(dir, "password.hash")
	mgr := connmgr.New(connmgr.Config{
		DeviceID:         id,
		DeviceName:       deviceName,
		ServicePort:      cfg.ListenPort,
		PasswordHashPath: passwordPath,
		MaxConnections:   1, // multi-client-per-host is a Non-goal (spec.md §1)
		DesktopInfo: func() protocol.DesktopInfo {
			return sessiontransport.CurrentDesktopInfo(capturer.Bounds)
		},
	}, endpoint, disc)

	return &App{
		cfg:          cfg,
		deviceID:     id,
		deviceName:   deviceName,
		passwordPath: passwordPath,
		endpoint:     endpoint,
		discovery:    disc,
		mgr:          mgr,
		capturer:     capturer,
		hosts:        make(map[deviceid.DeviceId]*session.HostSession),
		clients:      make(map[deviceid.DeviceId]*session.ClientSession),
	}, nil
}

// Start brings up the manager (advertising + discovery + accept loop) and
// the background event consumer. hostMode only changes the startup banner;
// the accept loop always runs, since any device may be dialed by a peer
// that already knows its device id (spec.md §4.3).
func (a *App) Start(hostMode bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.mgr.Start(ctx); err != nil {
		cancel()
		return err
	}
	go a.consumeEvents(ctx)

	if hostMode {
		fmt.Println("Running as host: waiting for incoming connections.")
	}
	return nil
}

// Close tears down the manager and releases the endpoint and capturer.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.mgr.Stop()

	a.mu.Lock()
	for id, h := range a.hosts {
		h.Stop()
		delete(a.hosts, id)
	}
	for id, c := range a.clients {
		c.Stop()
		delete(a.clients, id)
	}
	a.mu.Unlock()

	_ = a.capturer.Close()
	_ = a.endpoint.Close("shutting down")
}

// consumeEvents drains the manager's event stream. There is no GUI consent
// prompt in this module (the GUI viewer is an external collaborator, spec.md
// §1), so every inbound connection request is auto-accepted; the password
// gate in internal/connmgr still applies ahead of this point.
func (a *App) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.mgr.Events():
			if !ok {
				return
			}
			a.handleEvent(ctx, ev)
		}
	}
}

func (a *App) handleEvent(ctx context.Context, ev connmgr.Event) {
	switch ev.Kind {
	case connmgr.EventConnectionRequest:
		fmt.Printf("\nIncoming connection from %s (%s), accepting...\n", ev.RemoteName, ev.RemoteID.FormatWithSpaces())
		established, err := a.mgr.AcceptConnection(ev.PendingID)
		if err != nil {
			log.Warn("accept failed", "error", err)
			return
		}
		if err := a.startHostSession(ctx, established); err != nil {
			log.Warn("host session failed", "error", err)
		}
	case connmgr.EventConnected:
		fmt.Printf("Connected: %s\n", ev.RemoteID.FormatWithSpaces())
	case connmgr.EventDisconnected:
		fmt.Printf("Disconnected: %s (%s)\n", ev.RemoteID.FormatWithSpaces(), ev.DisconnectReason)
		a.stopSession(ev.RemoteID)
	case connmgr.EventPeerDiscovered:
		log.Debug("peer discovered", "device_id", ev.PeerInfo.DeviceID.String())
	case connmgr.EventPeerLost:
		log.Debug("peer lost", "device_id", ev.RemoteID.String())
	}
}

func (a *App) startHostSession(ctx context.Context, est *connmgr.EstablishedConnection) error {
	t, err := sessiontransport.Networked(ctx, est.Conn, sessiontransport.RoleHost, est.ControlStream)
	if err != nil {
		return fmt.Errorf("remotedesk: build session transport: %w", err)
	}

	host := session.NewHostSession(session.HostConfig{
		Transport: t,
		Capturer:  a.capturer,
		Simulator: logSimulator{},
		Format:    protocol.FormatJpeg,
		FPS:       a.cfg.DefaultFPS,
		Quality:   a.cfg.DefaultQuality,
	})
	if err := host.Start(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.hosts[est.RemoteID] = host
	a.mu.Unlock()
	return nil
}

func (a *App) startClientSession(ctx context.Context, est *connmgr.EstablishedConnection) error {
	t, err := sessiontransport.Networked(ctx, est.Conn, sessiontransport.RoleClient, est.ControlStream)
	if err != nil {
		return fmt.Errorf("remotedesk: build session transport: %w", err)
	}

	client := session.NewClientSession(session.ClientConfig{
		Transport: t,
		OnFrame: func(img *image.RGBA) {
			// No GUI viewer ships with this module (spec.md §1 external
			// collaborator); frames are decoded and counted but not
			// rendered. See ClientSession.Stats() for delivery counters.
		},
	})
	if err := client.Start(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.clients[est.RemoteID] = client
	a.mu.Unlock()
	return nil
}

func (a *App) stopSession(id deviceid.DeviceId) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.hosts[id]; ok {
		h.Stop()
		delete(a.hosts, id)
	}
	if c, ok := a.clients[id]; ok {
		c.Stop()
		delete(a.clients, id)
	}
}

// connect dials remoteIDStr directly (discovery when addr is empty) and
// spins up a client session on success.
func (a *App) connect(remoteIDStr, addr string) error {
	return a.connectWithPassword(remoteIDStr, addr, "")
}

func (a *App) connectWithPassword(remoteIDStr, addr, plaintext string) error {
	id, err := deviceid.Parse(remoteIDStr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	established, err := a.mgr.Connect(ctx, id, plaintext, addr)
	if err != nil {
		return err
	}

	bg := context.Background()
	return a.startClientSession(bg, established)
}

// disconnect tears down the active connection (and any session) to id.
func (a *App) disconnect(remoteIDStr string) error {
	id, err := deviceid.Parse(remoteIDStr)
	if err != nil {
		return err
	}
	a.stopSession(id)
	return a.mgr.Disconnect(id)
}

func (a *App) setPassword(plaintext string) error {
	return password.Set(a.passwordPath, plaintext)
}

func (a *App) removePassword() error {
	return password.Remove(a.passwordPath)
}

func (a *App) status() string {
	conns := a.mgr.ActiveConnections()
	if len(conns) == 0 {
		return "No active connections."
	}
	out := ""
	for _, c := range conns {
		role := "client"
		if c.Role == connmgr.RoleHost {
			role = "host"
		}
		out += fmt.Sprintf("  %s  %-8s role=%-6s connected=%s\n",
			c.RemoteID.FormatWithSpaces(), c.RemoteName, role, c.ConnectedAt.Format(time.RFC3339))
	}
	return out
}
