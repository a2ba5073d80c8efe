package framedstream

import (
	"context"
)

// Queue depths for the four substream kinds (spec.md §4.2).
const (
	VideoQueueDepth     = 4
	InputQueueDepth     = 32
	ClipboardQueueDepth = 32
	ControlQueueDepth   = 32
)

// BridgeLossy copies messages from in to the Sender in latest-wins fashion
// (video substream policy, spec.md §4.8): before each Send it drains the
// messages already buffered on in, sends only the newest, and passes each
// skipped one to onDrop so the caller can count it. BridgeLossy returns when
// in is closed, Send fails, or ctx is cancelled.
func BridgeLossy[T any](ctx context.Context, sender *Sender[T], in <-chan T, onDrop func(T)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return sender.Finish()
			}
			// Drain any further buffered messages, keeping only the latest,
			// counting the rest as dropped (queue depth never exceeds
			// VideoQueueDepth because the producer enforces that bound).
			latest := msg
		drain:
			for {
				select {
				case next, ok := <-in:
					if !ok {
						break drain
					}
					if onDrop != nil {
						onDrop(latest)
					}
					latest = next
				default:
					break drain
				}
			}
			if err := sender.Send(latest); err != nil {
				return err
			}
		}
	}
}

// BridgeLossless copies every message from in to the Sender in order,
// suspending on backpressure (input/clipboard/control substream policy,
// spec.md §4.8). Returns when in is closed or Send fails.
func BridgeLossless[T any](ctx context.Context, sender *Sender[T], in <-chan T) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return sender.Finish()
			}
			if err := sender.Send(msg); err != nil {
				return err
			}
		}
	}
}

// PumpToChannel reads messages from the Receiver and forwards them onto out
// until the stream closes or ctx is cancelled. The bridge terminates and
// closes out on StreamClosedError, signalling shutdown upstream
// (spec.md §4.2).
func PumpToChannel[T any](ctx context.Context, receiver *Receiver[T], out chan<- T) error {
	defer close(out)
	for {
		msg, err := receiver.Recv()
		if err != nil {
			if _, ok := err.(StreamClosedError); ok {
				return nil
			}
			return err
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
