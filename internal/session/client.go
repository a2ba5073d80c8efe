package session

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tanujdesk/remotedesk/internal/clipboard"
	"github.com/tanujdesk/remotedesk/internal/decoder"
	"github.com/tanujdesk/remotedesk/internal/encoder"
	"github.com/tanujdesk/remotedesk/internal/logging"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/sessionstate"
	"github.com/tanujdesk/remotedesk/internal/sessiontransport"
)

// ClientConfig configures a ClientSession. Transport is required; OnFrame
// receives each decoded frame in "latest-wins" fashion — the frame receiver
// decodes only the newest of the frames queued when it wakes (spec.md §4.8).
// Clipboard is optional (nil disables clipboard sync).
type ClientConfig struct {
	Transport *sessiontransport.SessionTransport
	OnFrame   func(img *image.RGBA)
	Clipboard clipboard.Binding
}

// ClientSession drives the frame-receiver and input-sender workers for a
// single client-side connection (spec.md §4.7 "Client session startup").
type ClientSession struct {
	cfg     ClientConfig
	state   *sessionstate.Machine
	decoder *decoder.Decoder
	rtt     rttTracker
	skipped atomic.Uint64 // frames discarded by latest-wins draining

	inputSeq uint64

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewClientSession constructs a ClientSession in sessionstate.Idle.
func NewClientSession(cfg ClientConfig) *ClientSession {
	return &ClientSession{
		cfg:     cfg,
		state:   sessionstate.New(),
		decoder: decoder.New(),
		done:    make(chan struct{}),
	}
}

// State returns the session's state machine.
func (s *ClientSession) State() *sessionstate.Machine { return s.state }

// Stats returns a snapshot of the decoder's running counters; FramesDropped
// also includes the frames skipped by latest-wins draining.
func (s *ClientSession) Stats() decoder.Stats {
	st := s.decoder.Stats()
	st.FramesDropped += s.skipped.Load()
	return st
}

// RTT returns the most recently measured control round trip.
func (s *ClientSession) RTT() time.Duration { return s.rtt.RTT() }

// Start transitions Idle -> Connecting -> Authenticating -> Active and
// spawns the frame-receiver, control, and (if configured) clipboard
// workers. SendInput is used directly by the caller's input
// source rather than a dedicated worker, since the client has no local
// event stream of its own to pull from.
func (s *ClientSession) Start(ctx context.Context) error {
	var startErr error
	s.startOnce.Do(func() {
		for _, to := range []sessionstate.State{sessionstate.Connecting, sessionstate.Authenticating, sessionstate.Active} {
			if err := s.state.Transition(to); err != nil {
				startErr = fmt.Errorf("session: client startup: %w", err)
				return
			}
		}

		s.wg.Add(2)
		go s.frameReceiverWorker(ctx)
		go s.controlWorker(ctx)

		if s.cfg.Clipboard != nil {
			s.wg.Add(1)
			go s.clipboardWorker(ctx)
		}

		log.Info("client session active")
	})
	return startErr
}

// Stop flips the running flag, drives the state machine to Disconnected,
// and waits for every worker to exit.
func (s *ClientSession) Stop() {
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
		log.Info("client session stopped")
	})
}

func (s *ClientSession) isActive() bool { return s.state.Current() == sessionstate.Active }

// SendInput forwards one input event to the host, suspending on
// backpressure per the input channel's lossless policy (spec.md §4.8). The
// caller is responsible for coordinate translation and move-coalescing
// (spec.md §4.9); SendInput only assigns the monotonic sequence number.
func (s *ClientSession) SendInput(ctx context.Context, evt *protocol.TransportInput) error {
	s.inputSeq++
	evt.Sequence = s.inputSeq
	select {
	case s.cfg.Transport.InputOut <- evt:
		return nil
	case <-s.done:
		return fmt.Errorf("session: client stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// frameReceiverWorker decodes frames in "latest-wins" fashion: if more than
// one frame is already queued when this tick wakes, every frame but the
// newest is dropped and counted, matching the host-side drop accounting
// (spec.md §4.8).
func (s *ClientSession) frameReceiverWorker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case frame, ok := <-s.cfg.Transport.FramesIn:
			if !ok {
				return
			}
			latest := frame
		drain:
			for {
				select {
				case next, ok := <-s.cfg.Transport.FramesIn:
					if !ok {
						break drain
					}
					latest = next
					s.skipped.Add(1)
				default:
					break drain
				}
			}
			s.decodeAndDeliver(latest)
		}
	}
}

func (s *ClientSession) decodeAndDeliver(wire *protocol.ScreenFrameData) {
	encoded := &encoder.EncodedFrame{
		Width: int(wire.Width), Height: int(wire.Height),
		Data: wire.Data, Sequence: wire.Sequence, Format: wire.Format, OriginalSize: int(wire.OriginalSize),
	}
	img, err := s.decoder.Decode(encoded)
	if err != nil {
		log.Warn("frame decode failed", logging.KeyError, err, "sequence", wire.Sequence)
		return
	}
	if s.cfg.OnFrame != nil {
		s.cfg.OnFrame(img)
	}
}

// controlWorker answers peer-initiated pings, records RTT on replies to our
// own, and periodically probes the peer (spec.md §4.5).
func (s *ClientSession) controlWorker(ctx context.Context) {
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
			if reply, ok := s.rtt.handle(msg); ok {
				select {
				case s.cfg.Transport.ControlOut <- reply:
				case <-s.done:
					return
				}
			}
		}
	}
}

// clipboardWorker mirrors the host side's bidirectional poll/apply loop.
func (s *ClientSession) clipboardWorker(ctx context.Context) {
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
			outbound.ShouldForward(content)
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
