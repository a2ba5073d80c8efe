package connmgr

import (
	"sync"

	"github.com/tanujdesk/remotedesk/internal/deviceid"
	"github.com/tanujdesk/remotedesk/internal/discovery"
)

// EventKind tags an Event variant (spec.md §4.4).
type EventKind int

const (
	EventConnectionRequest EventKind = iota
	EventConnected
	EventDisconnected
	EventPeerDiscovered
	EventPeerLost
)

// Event is a single connection-manager notification. Only the fields
// relevant to Kind are populated.
type Event struct {
	Kind EventKind

	RemoteID    deviceid.DeviceId
	RemoteName  string
	HasPassword bool
	PendingID   uint64

	DisconnectReason string

	PeerInfo discovery.PeerInfo
}

// eventBus is an unbounded event queue: Send never blocks the producer,
// matching spec.md §4.4's "single unbounded event stream". Per-device
// ordering is preserved because every producer appends under the same
// mutex in call order.
type eventBus struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	closed  bool
	out     chan Event
	started bool
}

func newEventBus() *eventBus {
	b := &eventBus{out: make(chan Event)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *eventBus) start() {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go b.drain()
}

func (b *eventBus) send(e Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, e)
	b.mu.Unlock()
	b.cond.Signal()
}

func (b *eventBus) drain() {
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			close(b.out)
			return
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()
		b.out <- next
	}
}

func (b *eventBus) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Signal()
}

func (b *eventBus) events() <-chan Event {
	return b.out
}
