package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/tanujdesk/remotedesk/internal/deviceid"
	"github.com/tanujdesk/remotedesk/internal/logging"
)

// ServiceType is the mDNS service type advertised and browsed (spec.md §6).
const ServiceType = "_remotedesk._udp"

const serviceDomain = "local."

var log = logging.L("discovery")

// Discovery advertises the local device via mDNS and browses for peers,
// maintaining a TTL'd PeerInfo cache (spec.md §4.3).
type Discovery struct {
	localID      deviceid.DeviceId
	localName    string
	protoVersion uint8

	server *zeroconf.Server
	cache  *Cache
}

// New constructs a Discovery for the local device. Call StartAdvertising
// and StartDiscovery to begin network activity.
func New(localID deviceid.DeviceId, localName string, protoVersion uint8) *Discovery {
	return &Discovery{
		localID:      localID,
		localName:    localName,
		protoVersion: protoVersion,
		cache:        NewCache(),
	}
}

// Cache returns the underlying peer cache.
func (d *Discovery) Cache() *Cache { return d.cache }

// StartAdvertising registers the local device's mDNS service record.
// Idempotent: calling it twice replaces the previous registration.
func (d *Discovery) StartAdvertising(port int) error {
	if d.server != nil {
		d.server.Shutdown()
	}

	instance := fmt.Sprintf("remotedesk-%s", d.localID.String())
	txt := []string{
		"device_id=" + d.localID.String(),
		"device_name=" + d.localName,
		"proto_ver=" + strconv.Itoa(int(d.protoVersion)),
	}

	server, err := zeroconf.Register(instance, ServiceType, serviceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("discovery: register: %w", err)
	}
	d.server = server
	log.Info("advertising", "instance", instance, "port", port)
	return nil
}

// StopAdvertising withdraws the local mDNS service record.
func (d *Discovery) StopAdvertising() {
	if d.server != nil {
		d.server.Shutdown()
		d.server = nil
	}
}

// StartDiscovery browses the service type, pushing PeerEvents to events
// until ctx is cancelled. Self (localID) is filtered out.
func (d *Discovery) StartDiscovery(ctx context.Context, events chan<- PeerEvent) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("discovery: new resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	go d.consumeEntries(ctx, entries, events)

	if err := resolver.Browse(ctx, ServiceType, serviceDomain, entries); err != nil {
		return fmt.Errorf("discovery: browse: %w", err)
	}
	<-ctx.Done()
	return nil
}

func (d *Discovery) consumeEntries(ctx context.Context, entries <-chan *zeroconf.ServiceEntry, events chan<- PeerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			info, ok := parseEntry(entry)
			if !ok || info.DeviceID == d.localID {
				continue
			}
			info.LastSeen = time.Now()

			_, existed := d.cache.Get(info.DeviceID)
			d.cache.Put(info)

			kind := PeerDiscovered
			if existed {
				kind = PeerUpdated
			}
			select {
			case events <- PeerEvent{Kind: kind, Info: info}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func parseEntry(entry *zeroconf.ServiceEntry) (PeerInfo, bool) {
	fields := map[string]string{}
	for _, kv := range entry.Text {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			fields[parts[0]] = parts[1]
		}
	}

	id, err := deviceid.Parse(fields["device_id"])
	if err != nil {
		return PeerInfo{}, false
	}

	var protoVer uint8
	if v, err := strconv.Atoi(fields["proto_ver"]); err == nil {
		protoVer = uint8(v)
	}

	var addrs []net.Addr
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, &net.UDPAddr{IP: ip, Port: entry.Port})
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, &net.UDPAddr{IP: ip, Port: entry.Port})
	}

	return PeerInfo{
		DeviceID:        id,
		DisplayName:     fields["device_name"],
		Addresses:       addrs,
		ProtocolVersion: protoVer,
	}, true
}

// Resolve checks the cache only (no active query) for id's address list.
func (d *Discovery) Resolve(id deviceid.DeviceId) ([]net.Addr, bool) {
	info, ok := d.cache.Get(id)
	if !ok {
		return nil, false
	}
	return info.Addresses, true
}

// AddPeer manually registers a peer entry (for direct-IP connect paths).
func (d *Discovery) AddPeer(info PeerInfo) {
	if info.LastSeen.IsZero() {
		info.LastSeen = time.Now()
	}
	d.cache.Put(info)
}

// CleanupStalePeers removes cache entries older than TTL.
func (d *Discovery) CleanupStalePeers() []deviceid.DeviceId {
	return d.cache.CleanupStale(time.Now())
}
