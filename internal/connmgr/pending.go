package connmgr

import (
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/tanujdesk/remotedesk/internal/deviceid"
	"github.com/tanujdesk/remotedesk/internal/protocol"
	"github.com/tanujdesk/remotedesk/internal/transport"
)

// pendingRequest is an inbound ConnectionRequest awaiting the embedding
// program's accept/reject decision (spec.md §4.4 step 5).
type pendingRequest struct {
	id            uint64
	remoteID      deviceid.DeviceId
	remoteName    string
	hasPassword   bool
	request       *protocol.ConnectionRequest
	conn          *transport.Connection
	controlStream quic.Stream
}

// pendingQueue is keyed by an ascending connection_id; single-writer
// (the accept loop), single-consumer (AcceptConnection/RejectConnection)
// per spec.md §5 Shared state.
type pendingQueue struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]*pendingRequest
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{entries: make(map[uint64]*pendingRequest)}
}

func (q *pendingQueue) enqueue(p *pendingRequest) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	p.id = q.nextID
	q.entries[p.id] = p
	return p.id
}

func (q *pendingQueue) take(id uint64) (*pendingRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.entries[id]
	if ok {
		delete(q.entries, id)
	}
	return p, ok
}
