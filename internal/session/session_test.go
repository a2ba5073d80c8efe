package session

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/tanujdesk/remotedesk/internal/capture"
	"github.com/tanujdesk/remotedesk/internal/clipboard"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/sessiontransport"
)

type noopSimulator struct{ mu sync.Mutex; moves int }

func (s *noopSimulator) MoveMouse(x, y int32) error {
	s.mu.Lock()
	s.moves++
	s.mu.Unlock()
	return nil
}
func (s *noopSimulator) MouseButtonDown(x, y int32, b protocol.MouseButton) error { return nil }
func (s *noopSimulator) MouseButtonUp(x, y int32, b protocol.MouseButton) error   { return nil }
func (s *noopSimulator) MouseWheel(dx, dy int32) error                           { return nil }
func (s *noopSimulator) KeyDown(key protocol.KeyCode) error                      { return nil }
func (s *noopSimulator) KeyUp(key protocol.KeyCode) error                        { return nil }

func (s *noopSimulator) moveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

type memClipboard struct {
	mu      sync.Mutex
	content clipboard.Content
}

func (m *memClipboard) Read() (clipboard.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content, nil
}

func (m *memClipboard) Write(c clipboard.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = c
	return nil
}

func (m *memClipboard) set(c clipboard.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = c
}

// TestHostClientFrameRoundTrip covers a host capturing/encoding/sending and
// a client receiving/decoding over a loopback transport.
func TestHostClientFrameRoundTrip(t *testing.T) {
	hostT, clientT := sessiontransport.Loopback()

	host := NewHostSession(HostConfig{
		Transport: hostT,
		Capturer:  capture.NewGradientCapturer(16, 16),
		Simulator: &noopSimulator{},
		Format:    protocol.FormatRaw,
		FPS:       1000,
		Quality:   80,
	})

	var received int
	var mu sync.Mutex
	done := make(chan struct{})
	client := NewClientSession(ClientConfig{
		Transport: clientT,
		OnFrame: func(img *image.RGBA) {
			mu.Lock()
			received++
			got := received
			mu.Unlock()
			if got == 1 {
				close(done)
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := host.Start(ctx); err != nil {
		t.Fatalf("host.Start: %v", err)
	}
	if err := client.Start(ctx); err != nil {
		t.Fatalf("client.Start: %v", err)
	}
	defer host.Stop()
	defer client.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for at least one decoded frame")
	}

	stats := host.Stats()
	if stats.FramesSent == 0 {
		t.Error("expected FramesSent > 0")
	}
}

// TestFrameBackpressureDropsOverflow covers scenario S5 on the loopback
// transport: with nobody reading FramesIn, the host keeps producing, the
// frames still queued can be drained afterwards, and the frames that did not
// fit the queue are counted in FramesDropped.
func TestFrameBackpressureDropsOverflow(t *testing.T) {
	hostT, clientT := sessiontransport.Loopback()

	host := NewHostSession(HostConfig{
		Transport: hostT,
		Capturer:  capture.NewGradientCapturer(8, 8),
		Simulator: &noopSimulator{},
		Format:    protocol.FormatRaw,
		FPS:       200,
		Quality:   80,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := host.Start(ctx); err != nil {
		t.Fatalf("host.Start: %v", err)
	}
	defer host.Stop()

	// Let several frames queue up on the bridge without a client draining.
	time.Sleep(200 * time.Millisecond)

	var lastSeq uint64
	var frameCount int
	deadline := time.After(100 * time.Millisecond)
drain:
	for {
		select {
		case frame := <-clientT.FramesIn:
			lastSeq = frame.Sequence
			frameCount++
		case <-deadline:
			break drain
		}
	}

	if frameCount == 0 {
		t.Fatal("expected at least one frame to have been queued")
	}
	if lastSeq == 0 {
		t.Fatal("expected a non-zero sequence on the drained frame")
	}

	// With no consumer running for 200ms at 200fps, far more frames were
	// captured than the depth-4 FramesOut queue can hold; the producer's own
	// non-blocking send (spec.md §4.8: "drops frames it cannot enqueue
	// without blocking") must have dropped the overflow rather than blocked.
	stats := host.Stats()
	if stats.FramesDropped == 0 {
		t.Fatalf("expected FramesDropped > 0, got FramesSent=%d FramesDropped=%d", stats.FramesSent, stats.FramesDropped)
	}
}

// TestInputAppliedWhileActive covers the host input worker calling into the
// platform simulator.
func TestInputAppliedWhileActive(t *testing.T) {
	hostT, clientT := sessiontransport.Loopback()
	sim := &noopSimulator{}

	host := NewHostSession(HostConfig{
		Transport: hostT,
		Capturer:  capture.NewGradientCapturer(4, 4),
		Simulator: sim,
		Format:    protocol.FormatRaw,
		FPS:       30,
		Quality:   80,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := host.Start(ctx); err != nil {
		t.Fatalf("host.Start: %v", err)
	}
	defer host.Stop()

	clientT.InputOut <- &protocol.TransportInput{Sequence: 1, Mouse: protocol.MouseMoveTo(10, 20)}

	deadline := time.After(time.Second)
	for sim.moveCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for simulated mouse move")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// TestClipboardSyncHostToClient covers the host's clipboard worker
// forwarding a local change that the client's worker then applies to its
// own clipboard.
func TestClipboardSyncHostToClient(t *testing.T) {
	hostT, clientT := sessiontransport.Loopback()
	hostClip := &memClipboard{}
	clientClip := &memClipboard{}

	host := NewHostSession(HostConfig{
		Transport: hostT,
		Capturer:  capture.NewGradientCapturer(4, 4),
		Simulator: &noopSimulator{},
		Clipboard: hostClip,
		Format:    protocol.FormatRaw,
		FPS:       30,
		Quality:   80,
	})
	client := NewClientSession(ClientConfig{
		Transport: clientT,
		Clipboard: clientClip,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := host.Start(ctx); err != nil {
		t.Fatalf("host.Start: %v", err)
	}
	if err := client.Start(ctx); err != nil {
		t.Fatalf("client.Start: %v", err)
	}
	defer host.Stop()
	defer client.Stop()

	hostClip.set(clipboard.NewContent(protocol.ClipboardText, []byte("hello from host")))

	deadline := time.After(2 * time.Second)
	for {
		c, _ := clientClip.Read()
		if string(c.Data) == "hello from host" {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for clipboard to propagate to client")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
