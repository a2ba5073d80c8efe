package discovery

import (
	"net"
	"sync"
	"time"

	"github.com/tanujdesk/remotedesk/internal/deviceid"
)

// TTL is the peer cache staleness window (spec.md §3).
const TTL = 120 * time.Second

// PeerInfo is the cached view of another device's identity and network
// addresses (spec.md §3).
type PeerInfo struct {
	DeviceID        deviceid.DeviceId
	DisplayName     string
	Addresses       []net.Addr
	ProtocolVersion uint8
	LastSeen        time.Time
}

// PrimaryAddress returns the first IPv4 address if present, else the first
// address of any kind (spec.md §3).
func (p PeerInfo) PrimaryAddress() (net.Addr, bool) {
	if len(p.Addresses) == 0 {
		return nil, false
	}
	for _, addr := range p.Addresses {
		if host, _, err := net.SplitHostPort(addr.String()); err == nil {
			if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
				return addr, true
			}
		}
	}
	return p.Addresses[0], true
}

func (p PeerInfo) age(now time.Time) time.Duration {
	return now.Sub(p.LastSeen)
}

// PeerEventKind tags a PeerEvent variant.
type PeerEventKind uint8

const (
	PeerDiscovered PeerEventKind = iota
	PeerUpdated
	PeerLost
)

// PeerEvent is emitted by the discovery browse loop.
type PeerEvent struct {
	Kind PeerEventKind
	Info PeerInfo
	Lost deviceid.DeviceId // populated only when Kind == PeerLost
}

// Cache holds the discovered peer set, one writer (the browse loop) and
// many readers under a read-write lock (spec.md §3 Ownership).
type Cache struct {
	mu    sync.RWMutex
	peers map[deviceid.DeviceId]PeerInfo
}

// NewCache constructs an empty peer cache.
func NewCache() *Cache {
	return &Cache{peers: make(map[deviceid.DeviceId]PeerInfo)}
}

// Put inserts or refreshes a peer entry.
func (c *Cache) Put(info PeerInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers[info.DeviceID] = info
}

// Get returns the cached entry for id, if any.
func (c *Cache) Get(id deviceid.DeviceId) (PeerInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.peers[id]
	return info, ok
}

// Remove deletes the cached entry for id.
func (c *Cache) Remove(id deviceid.DeviceId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.peers, id)
}

// All returns a snapshot of every cached peer.
func (c *Cache) All() []PeerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PeerInfo, 0, len(c.peers))
	for _, p := range c.peers {
		out = append(out, p)
	}
	return out
}

// CleanupStale removes any entry whose LastSeen is older than TTL,
// returning the removed device ids (spec.md §4.3, invariant 6).
func (c *Cache) CleanupStale(now time.Time) []deviceid.DeviceId {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []deviceid.DeviceId
	for id, p := range c.peers {
		if p.age(now) > TTL {
			delete(c.peers, id)
			removed = append(removed, id)
		}
	}
	return removed
}
