package cluster

import (
	"net"
	"time"

	dhcp "github.com/krolaw/dhcp4"

	"github.com/rubo77/ddhcpd/block"
	"github.com/rubo77/ddhcpd/lease"
)

// Transport is the out-of-scope raw-socket/multicast collaborator: it
// delivers a renewal message to a specific peer. The core never opens a
// socket itself (spec.md §1).
type Transport interface {
	SendRenewLease(to net.IP, msg RenewLease) error
	SendRenewAck(to net.IP, msg RenewAck) error
	SendRenewNak(to net.IP, msg RenewNak) error
}

// PendingTTL is how long a forwarded request waits for a peer reply
// before being dropped (spec.md §5: "a short TTL (≈ T_offer)").
const PendingTTL = 12 * time.Second

// Bridge implements both sides of the peer renewal protocol: the
// originator (forwarding a client REQUEST to the owner) and the owner
// (answering an inbound RENEWLEASE).
type Bridge struct {
	transport Transport
	pending   *pendingCache
}

// NewBridge wires a Bridge to its Transport.
func NewBridge(transport Transport) *Bridge {
	return &Bridge{transport: transport, pending: newPendingCache()}
}

// Forward is the originator side of spec.md §4.7 steps 1-4: materialize
// the peer block's lease array, stamp a transient local OFFERED lease for
// de-duplication, send RENEWLEASE to the owner, and park the original
// client packet.
func (b *Bridge) Forward(blk *block.Block, leaseIndex uint32, chaddr [16]byte, xid uint32, addr net.IP, pkt dhcp.Packet, now time.Time, leaseTime, delta time.Duration) error {
	tbl := blk.Materialize()
	tbl.Offer(leaseIndex, chaddr, xid, now, leaseTime+delta)

	msg := RenewLease{CHAddr: chaddr, XID: xid, LeaseSeconds: 0}
	copy(msg.Address[:], addr.To4())

	if err := b.transport.SendRenewLease(blk.OwnerAddress, msg); err != nil {
		return err
	}
	b.pending.put(xid, chaddr, pkt, PendingTTL, now)
	return nil
}

// Locator resolves an address to its (block, lease) coordinates; pool.Pool
// satisfies this.
type Locator interface {
	Locate(addr net.IP) (blockIndex, leaseIndex uint32, ok bool)
}

// HandleRenewLease is the owner side of spec.md §4.7 step 5: validate the
// chaddr against the owner's own lease record for that address and, if
// consistent, drive the state machine to LEASED, replying RENEWACK with
// the confirmed lease_end; on rejection, RENEWNAK.
func (b *Bridge) HandleRenewLease(view *block.View, pool Locator, msg RenewLease, now time.Time, leaseTime, delta time.Duration) (to net.IP, ack *RenewAck, nak *RenewNak) {
	addr := net.IP(msg.Address[:])
	nakMsg := RenewNak{CHAddr: msg.CHAddr, Address: msg.Address, XID: msg.XID}

	blockIndex, leaseIndex, ok := pool.Locate(addr)
	if !ok {
		return nil, nil, &nakMsg
	}
	blk, ok := view.Lookup(blockIndex)
	if !ok || blk.State != block.Ours {
		return nil, nil, &nakMsg
	}

	tbl := blk.Materialize()
	l := tbl.Get(leaseIndex)
	switch {
	case l.State == lease.Free:
		tbl.Confirm(leaseIndex, msg.CHAddr, msg.XID, now, leaseTime, delta)
	case tbl.IsOfferedTo(leaseIndex, msg.CHAddr, msg.XID):
		tbl.Confirm(leaseIndex, msg.CHAddr, msg.XID, now, leaseTime, delta)
	case tbl.IsLeasedTo(leaseIndex, msg.CHAddr):
		tbl.Renew(leaseIndex, now, leaseTime, delta)
	default:
		return blk.OwnerAddress, nil, &nakMsg
	}

	secs := uint32((leaseTime + delta) / time.Second)
	ackMsg := RenewAck{CHAddr: msg.CHAddr, Address: msg.Address, XID: msg.XID, LeaseSeconds: secs}
	return blk.OwnerAddress, &ackMsg, nil
}

// HandleRenewAck is the originator side of spec.md §4.7 step 6: pop the
// matching pending request and return it so the router can produce a
// client ACK. ok is false if there is no matching pending entry (already
// resolved, or expired — idempotent, per spec.md §5).
func (b *Bridge) HandleRenewAck(msg RenewAck) (dhcp.Packet, bool) {
	return b.pending.pop(msg.XID, msg.CHAddr)
}

// HandleRenewNak is the originator side of a rejected renewal: pop the
// matching pending request so the router can produce a client NAK.
func (b *Bridge) HandleRenewNak(msg RenewNak) (dhcp.Packet, bool) {
	return b.pending.pop(msg.XID, msg.CHAddr)
}

// Sweep expires pending entries whose TTL has passed; called from the
// periodic tick alongside lease.Table.CheckTimeouts (spec.md §5).
func (b *Bridge) Sweep(now time.Time) {
	b.pending.sweep(now)
}

// PendingCount reports how many client requests are currently parked
// awaiting a peer reply; exposed for the read-only introspection surface.
func (b *Bridge) PendingCount() int {
	return len(b.pending.entries)
}
