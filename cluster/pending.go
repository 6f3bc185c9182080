package cluster

import (
	"time"

	dhcp "github.com/krolaw/dhcp4"
)

// pendingKey identifies a parked client request: (xid, chaddr), per
// spec.md §3.
type pendingKey struct {
	xid    uint32
	chaddr [16]byte
}

// pendingEntry is a parked original client request awaiting a peer
// RENEWACK/RENEWNAK, replacing the source's list-headed
// dhcp_packet_cache (spec.md §9).
type pendingEntry struct {
	packet   dhcp.Packet
	deadline time.Time
}

// pendingCache is the (xid, chaddr) -> parked request map scanned by the
// periodic tick.
type pendingCache struct {
	entries map[pendingKey]pendingEntry
}

func newPendingCache() *pendingCache {
	return &pendingCache{entries: make(map[pendingKey]pendingEntry)}
}

func (c *pendingCache) put(xid uint32, chaddr [16]byte, pkt dhcp.Packet, ttl time.Duration, now time.Time) {
	c.entries[pendingKey{xid, chaddr}] = pendingEntry{packet: pkt, deadline: now.Add(ttl)}
}

// pop removes and returns the parked request for (xid, chaddr), if any.
// Duplicate peer replies after the entry is already popped are
// idempotent no-ops (spec.md §5).
func (c *pendingCache) pop(xid uint32, chaddr [16]byte) (dhcp.Packet, bool) {
	key := pendingKey{xid, chaddr}
	e, ok := c.entries[key]
	if !ok {
		return dhcp.Packet{}, false
	}
	delete(c.entries, key)
	return e.packet, true
}

// sweep drops every entry whose deadline has passed; the client will
// retransmit and no reply is sent for the dropped entry (spec.md §4.7
// step 6).
func (c *pendingCache) sweep(now time.Time) {
	for key, e := range c.entries {
		if e.deadline.Before(now) {
			delete(c.entries, key)
		}
	}
}
