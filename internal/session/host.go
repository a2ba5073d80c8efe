package session

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/tanujdesk/remotedesk/internal/capture"
	"github.com/tanujdesk/remotedesk/internal/clipboard"
	"github.com/tanujdesk/remotedesk/internal/encoder"
	"github.com/tanujdesk/remotedesk/internal/input"
	"github.com/tanujdesk/remotedesk/internal/logging"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/sessionstate"
	"github.com/tanujdesk/remotedesk/internal/sessiontransport"
)

var log = logging.L("session")

// HostConfig configures a HostSession. Transport, Capturer, and Simulator
// are required; Clipboard is optional (nil disables clipboard sync).
type HostConfig struct {
	Transport *sessiontransport.SessionTransport
	Capturer  capture.Capturer
	Simulator input.Simulator
	Clipboard clipboard.Binding

	Format  protocol.FrameFormat
	FPS     int
	Quality int
}

// HostSession drives the capture/encode/send, input-apply, and control
// workers for a single host-side connection (spec.md §4.7).
type HostSession struct {
	cfg   HostConfig
	state *sessionstate.Machine
	stats hostStats
	rtt   rttTracker

	mu      sync.RWMutex
	fps     int
	quality int
	format  protocol.FrameFormat

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewHostSession constructs a HostSession in sessionstate.Idle.
func NewHostSession(cfg HostConfig) *HostSession {
	if cfg.FPS <= 0 {
		cfg.FPS = 15
	}
	if cfg.Quality <= 0 {
		cfg.Quality = 80
	}
	return &HostSession{
		cfg:     cfg,
		state:   sessionstate.New(),
		fps:     cfg.FPS,
		quality: cfg.Quality,
		format:  cfg.Format,
		done:    make(chan struct{}),
	}
}

// State returns the session's state machine.
func (s *HostSession) State() *sessionstate.Machine { return s.state }

// Stats returns a snapshot of the running capture/send counters.
func (s *HostSession) Stats() HostStats { return s.stats.snapshot() }

// RTT returns the most recently measured control round trip.
func (s *HostSession) RTT() time.Duration { return s.rtt.RTT() }

// Start transitions Idle -> Connecting -> Authenticating -> Active and
// spawns the capture/encode/send, input, and control workers
// (spec.md §4.7 "Host session startup"). Start is idempotent; only the
// first call has effect.
func (s *HostSession) Start(ctx context.Context) error {
	var startErr error
	s.startOnce.Do(func() {
		for _, to := range []sessionstate.State{sessionstate.Connecting, sessionstate.Authenticating, sessionstate.Active} {
			if err := s.state.Transition(to); err != nil {
				startErr = fmt.Errorf("session: host startup: %w", err)
				return
			}
		}

		s.wg.Add(3)
		go s.captureEncodeSendWorker(ctx)
		go s.inputWorker(ctx)
		go s.controlWorker(ctx)

		if s.cfg.Clipboard != nil {
			s.wg.Add(1)
			go s.clipboardWorker(ctx)
		}

		log.Info("host session active")
	})
	return startErr
}

// Stop flips the running flag, drives the state machine to Disconnected,
// and waits for every worker to exit (spec.md §4.7 "Shutdown").
func (s *HostSession) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if err := s.state.Transition(sessionstate.Disconnecting); err != nil {
			s.state.ForceTransition(sessionstate.Disconnected, "stop requested from non-Active state")
		} else if err := s.state.Transition(sessionstate.Disconnected); err != nil {
			s.state.ForceTransition(sessionstate.Disconnected, "disconnecting->disconnected rejected")
		}
		s.wg.Wait()
		if s.cfg.Transport.Close != nil {
			s.cfg.Transport.Close()
		}
		log.Info("host session stopped")
	})
}

func (s *HostSession) isActive() bool { return s.state.Current() == sessionstate.Active }

func (s *HostSession) currentFPS() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fps
}

func (s *HostSession) currentQuality() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quality
}

func (s *HostSession) currentFormat() protocol.FrameFormat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

// captureEncodeSendWorker paces Capture/Encode at the live fps, pushing onto
// FramesOut and dropping (non-blocking send) when the bridge's queue is full
// (spec.md §4.8). Ten consecutive capture failures force Disconnected.
func (s *HostSession) captureEncodeSendWorker(ctx context.Context) {
	defer s.wg.Done()

	var sequence uint64
	consecutiveFailures := 0

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		if !waitUntil(s.isActive, s.done, ctx.Done()) {
			return
		}

		start := time.Now()
		frame, err := captureWithDeadline(s.cfg.Capturer)
		if err != nil {
			consecutiveFailures++
			log.Warn("capture failed", logging.KeyError, err, "consecutive", consecutiveFailures)
			if consecutiveFailures >= capture.MaxConsecutiveFailures {
				s.state.ForceTransition(sessionstate.Disconnected, "capture: "+err.Error())
				return
			}
			continue
		}
		consecutiveFailures = 0
		sequence++

		encodeStart := time.Now()
		encoded, err := encoder.Encode(s.currentFormat(), frame, sequence, s.currentQuality())
		if err != nil {
			log.Warn("encode failed", logging.KeyError, err)
			continue
		}
		encodeMs := float64(time.Since(encodeStart).Microseconds()) / 1000.0

		wire := protocol.NewScreenFrameData(sequence, uint32(encoded.Width), uint32(encoded.Height),
			encoded.Format, encoded.Data, uint32(encoded.OriginalSize), time.Now().UnixMilli())

		select {
		case s.cfg.Transport.FramesOut <- wire:
			s.stats.recordSent(len(encoded.Data), encodeMs)
		default:
			s.stats.recordDropped()
		}

		fps := s.currentFPS()
		if fps <= 0 {
			fps = 1
		}
		interval := time.Second / time.Duration(fps)
		if residual := interval - time.Since(start); residual > 0 {
			select {
			case <-time.After(residual):
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// inputWorker applies received input events to the local platform simulator.
// A per-event InputError never stops the session (spec.md §4.9).
func (s *HostSession) inputWorker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case evt, ok := <-s.cfg.Transport.InputIn:
			if !ok {
				return
			}
			if !s.isActive() {
				continue
			}
			if err := input.Apply(s.cfg.Simulator, evt); err != nil {
				log.Warn("input apply failed", logging.KeyError, err)
			}
		}
	}
}

// pingInterval paces this session's own outbound RTT probes.
const pingInterval = 5 * time.Second

// controlWorker handles quality/fps adjustments and Ping/Pong RTT probes
// (spec.md §4.7).
func (s *HostSession) controlWorker(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case s.cfg.Transport.ControlOut <- s.rtt.sendPing():
			case <-s.done:
				return
			}
		case msg, ok := <-s.cfg.Transport.ControlIn:
			if !ok {
				return
			}
			s.applyControl(msg)
		}
	}
}

func (s *HostSession) applyControl(msg sessiontransport.ControlMessage) {
	switch msg.Kind {
	case protocol.ControlSetQuality:
		if msg.Quality != nil {
			s.mu.Lock()
			s.quality = *msg.Quality
			s.mu.Unlock()
		}
	case protocol.ControlSetFps:
		if msg.Fps != nil {
			s.mu.Lock()
			s.fps = *msg.Fps
			s.mu.Unlock()
		}
	case protocol.ControlPing, protocol.ControlPong:
		if reply, ok := s.rtt.handle(msg); ok {
			select {
			case s.cfg.Transport.ControlOut <- reply:
			case <-s.done:
			}
		}
	}
}

// clipboardPollInterval bounds how often the local clipboard is polled for
// outbound changes.
const clipboardPollInterval = 500 * time.Millisecond

// clipboardWorker mirrors local clipboard writes to the peer and applies
// peer updates locally, deduplicating both directions by content hash so a
// received update never echoes straight back out (spec.md §3
// TransportClipboard).
func (s *HostSession) clipboardWorker(ctx context.Context) {
	defer s.wg.Done()
	var inbound, outbound clipboard.Sync
	ticker := time.NewTicker(clipboardPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case content, ok := <-s.cfg.Transport.ClipboardIn:
			if !ok {
				return
			}
			if !inbound.ShouldForward(content) {
				continue
			}
			outbound.ShouldForward(content) // suppress the echo once applied locally
			if err := s.cfg.Clipboard.Write(content); err != nil {
				log.Warn("clipboard write failed", logging.KeyError, err)
			}
		case <-ticker.C:
			content, err := s.cfg.Clipboard.Read()
			if err != nil {
				log.Warn("clipboard read failed", logging.KeyError, err)
				continue
			}
			if !outbound.ShouldForward(content) {
				continue
			}
			select {
			case s.cfg.Transport.ClipboardOut <- content:
			case <-s.done:
				return
			}
		}
	}
}

// captureWithDeadline runs c.Capture() with the spec's 1s hard cap
// (spec.md §4.6). Capture is blocking and not cancellable mid-read, so the
// call runs on its own goroutine; a timed-out call is abandoned, not killed.
func captureWithDeadline(c capture.Capturer) (*image.RGBA, error) {
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
	case <-time.After(capture.FrameCap):
		return nil, capture.ErrTimeout
	}
}
