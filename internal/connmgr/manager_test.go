package connmgr

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tanujdesk/remotedesk/internal/certstore"
	"github.com/tanujdesk/remotedesk/internal/deviceid"
	"github.com/tanujdesk/remotedesk/internal/discovery"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/transport"
)

func newHostManager(t *testing.T, hostID deviceid.DeviceId) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	pair, err := certstore.EnsureCertificate(dir, hostID.Uint32())
	if err != nil {
		t.Fatalf("certstore.EnsureCertificate: %v", err)
	}
	ep, err := transport.New(transport.Config{BindAddr: "127.0.0.1:0", Cert: pair})
	if err != nil {
		t.Fatalf("transport.New: %v", err)
	}
	disc := discovery.New(hostID, "Test Host", 1)
	mgr := New(Config{DeviceID: hostID, DeviceName: "Test Host", MaxConnections: 5}, ep, disc)
	return mgr, ep.LocalAddr().String()
}

func newClientManager(t *testing.T, clientID deviceid.DeviceId) *Manager {
	t.Helper()
	ep, err := transport.ClientOnly()
	if err != nil {
		t.Fatalf("transport.ClientOnly: %v", err)
	}
	disc := discovery.New(clientID, "Test Client", 1)
	return New(Config{DeviceID: clientID, DeviceName: "Test Client"}, ep, disc)
}

// TestHandshakeSuccess covers scenario S3: client connects to host with no
// password, observes the host-generated session id via ConnectionAccept.
func TestHandshakeSuccess(t *testing.T) {
	hostID, _ := deviceid.FromUint32(123456789)
	clientID, _ := deviceid.FromUint32(987654321)

	host, hostAddr := newHostManager(t, hostID)
	client := newClientManager(t, clientID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := host.Start(ctx); err != nil {
		t.Fatalf("host.Start: %v", err)
	}
	events := host.Events()

	go func() {
		ev := <-events
		if ev.Kind == EventConnectionRequest {
			if _, err := host.AcceptConnection(ev.PendingID); err != nil {
				t.Errorf("AcceptConnection: %v", err)
			}
		}
	}()

	established, err := client.Connect(ctx, hostID, "", hostAddr)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if established.RemoteName != "Test Host" {
		t.Errorf("RemoteName = %q, want %q", established.RemoteName, "Test Host")
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for host-side Connected event")
		default:
		}
		if host.IsConnected(clientID) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestVersionMismatchRejected covers scenario S4: a client announcing an
// unsupported protocol version is rejected and the rejection reason surfaces
// to the caller.
func TestVersionMismatchRejected(t *testing.T) {
	hostID, _ := deviceid.FromUint32(123456789)
	host, hostAddr := newHostManager(t, hostID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := host.Start(ctx); err != nil {
		t.Fatalf("host.Start: %v", err)
	}

	ep, err := transport.ClientOnly()
	if err != nil {
		t.Fatalf("transport.ClientOnly: %v", err)
	}
	conn, err := ep.Connect(ctx, hostAddr, "localhost")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	stream, err := conn.OpenBidi(ctx)
	if err != nil {
		t.Fatalf("OpenBidi: %v", err)
	}

	req := &protocol.ConnectionRequest{
		ProtocolVersion: 0,
		ClientID:        987654321,
		ClientName:      "Old Client",
		HostID:          hostID.Uint32(),
	}
	if err := sendPayload(stream, protocol.TypeConnectionRequest, req); err != nil {
		t.Fatalf("send request: %v", err)
	}

	msg, err := recvMessage(stream)
	if err != nil {
		t.Fatalf("recvMessage: %v", err)
	}

	var reject struct {
		Reason  string  `cbor:"reason"`
		Message *string `cbor:"message"`
	}
	if err := msg.Decode(&reject); err != nil {
		t.Fatalf("decode reject: %v", err)
	}
	if reject.Reason != "UnsupportedVersion" {
		t.Fatalf("reason = %q, want UnsupportedVersion", reject.Reason)
	}
	if reject.Message == nil || !strings.Contains(*reject.Message, "Expected 1, got 0") {
		t.Fatalf("message = %v, want to contain version detail", reject.Message)
	}
}
