package framedstream

import (
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"
)

// uint64Codec is a minimal Codec[uint64] used only to exercise the framing
// layer independent of internal/protocol's cbor codec.
type uint64Codec struct{}

func (uint64Codec) Marshal(v uint64) ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b, nil
}

func (uint64Codec) Unmarshal(b []byte) (uint64, error) {
	return binary.BigEndian.Uint64(b), nil
}

func TestSendRecvRoundTrip(t *testing.T) {
	r, w := io.Pipe()
	sender := NewSender[uint64](w, uint64Codec{})
	receiver := NewReceiver[uint64](r, uint64Codec{})

	go func() {
		_ = sender.Send(42)
		_ = sender.Send(7)
		w.Close()
	}()

	got, err := receiver.Recv()
	if err != nil || got != 42 {
		t.Fatalf("Recv() = %d, %v, want 42, nil", got, err)
	}
	got, err = receiver.Recv()
	if err != nil || got != 7 {
		t.Fatalf("Recv() = %d, %v, want 7, nil", got, err)
	}

	if _, err := receiver.Recv(); err == nil {
		t.Fatal("expected StreamClosedError after peer closes")
	} else if _, ok := err.(StreamClosedError); !ok {
		t.Fatalf("expected StreamClosedError, got %T: %v", err, err)
	}
}

func TestBridgeLosslessPreservesOrder(t *testing.T) {
	r, w := io.Pipe()
	sender := NewSender[uint64](w, uint64Codec{})
	receiver := NewReceiver[uint64](r, uint64Codec{})

	in := make(chan uint64, ControlQueueDepth)
	for i := uint64(1); i <= 6; i++ {
		in <- i
	}
	close(in)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- BridgeLossless(ctx, sender, in); w.Close() }()

	for i := uint64(1); i <= 6; i++ {
		got, err := receiver.Recv()
		if err != nil {
			t.Fatalf("Recv(%d): %v", i, err)
		}
		if got != i {
			t.Fatalf("Recv() = %d, want %d", got, i)
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("BridgeLossless: %v", err)
	}
}

func TestMessageTooLargeBeforeWrite(t *testing.T) {
	r, w := io.Pipe()
	defer r.Close()
	sender := NewSender[[]byte](w, rawBytesCodec{})

	go io.Copy(io.Discard, r)

	err := sender.Send(make([]byte, MaxMessageSize+1))
	if err == nil {
		t.Fatal("expected MessageTooLargeError")
	}
	if _, ok := err.(*MessageTooLargeError); !ok {
		t.Fatalf("expected *MessageTooLargeError, got %T", err)
	}
}

type rawBytesCodec struct{}

func (rawBytesCodec) Marshal(v []byte) ([]byte, error)   { return v, nil }
func (rawBytesCodec) Unmarshal(b []byte) ([]byte, error) { return b, nil }
