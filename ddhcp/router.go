// Package ddhcp implements the DHCP request router (C6) and reply
// builder (C8): the decision procedure that turns an inbound client
// packet into a local answer, a peer forward, or silence.
package ddhcp

import (
	"log"
	"net"
	"time"

	dhcp "github.com/krolaw/dhcp4"

	"github.com/rubo77/ddhcpd/block"
	"github.com/rubo77/ddhcpd/cluster"
	"github.com/rubo77/ddhcpd/dhcpopt"
	"github.com/rubo77/ddhcpd/lease"
	"github.com/rubo77/ddhcpd/pool"
)

// locateOutcome codifies the three-way result the source conflated into
// 0/1/2 return codes (spec.md §9's open question): an address is either
// ours, claimed by a foreign peer, or outside the pool entirely.
type locateOutcome int

const (
	outOfPool locateOutcome = iota
	foreign
	ours
)

// Router holds everything C6/C8 need: the pool's address arithmetic, the
// block view, the option store, and the peer renewal bridge.
type Router struct {
	Pool   *pool.Pool
	View   *block.View
	Store  *dhcpopt.Store
	Bridge *cluster.Bridge
	Reply  *ReplyBuilder

	OfferTimeout time.Duration
	LeaseTime    time.Duration
	Delta        time.Duration
}

// New builds a Router with spec.md §3's documented defaults
// (T_offer=12s, T_lease=3600s, T_delta=100s).
func New(p *pool.Pool, view *block.View, store *dhcpopt.Store, bridge *cluster.Bridge, serverID net.IP) *Router {
	return &Router{
		Pool:         p,
		View:         view,
		Store:        store,
		Bridge:       bridge,
		Reply:        &ReplyBuilder{Store: store, ServerID: serverID},
		OfferTimeout: 12 * time.Second,
		LeaseTime:    3600 * time.Second,
		Delta:        100 * time.Second,
	}
}

// locate resolves addr to its block and the outcome bucket it falls in.
func (r *Router) locate(addr net.IP) (outcome locateOutcome, blk *block.Block, blockIndex, leaseIndex uint32) {
	blockIndex, leaseIndex, ok := r.Pool.Locate(addr)
	if !ok {
		return outOfPool, nil, 0, 0
	}
	blk, ok = r.View.Lookup(blockIndex)
	if !ok {
		return outOfPool, nil, blockIndex, leaseIndex
	}
	switch blk.State {
	case block.Ours:
		return ours, blk, blockIndex, leaseIndex
	case block.ClaimedByPeer:
		return foreign, blk, blockIndex, leaseIndex
	default:
		return outOfPool, blk, blockIndex, leaseIndex
	}
}

// HandleDiscover implements spec.md §4.6's DISCOVER procedure: best-fit
// block selection (smallest strictly positive num_free — intentionally
// suboptimal per §9, preserved for bug-compatibility), FirstFree,
// FREE->OFFERED, and an OFFER reply. Returns ok=false when no OURS block
// has capacity (the caller drops the request).
func (r *Router) HandleDiscover(req dhcp.Packet, now time.Time) (dhcp.Packet, bool) {
	blk := r.bestFitBlock()
	if blk == nil {
		return dhcp.Packet{}, false
	}

	tbl := blk.Materialize()
	idx := tbl.FirstFree()
	chaddr := chaddrOf(req)
	xid := xidOf(req)

	tbl.Offer(idx, chaddr, xid, now, r.OfferTimeout)

	yiaddr := r.Pool.Address(blk.Index, idx)
	return r.Reply.Offer(req, yiaddr, r.LeaseTime), true
}

// bestFitBlock picks the OURS block with the smallest strictly positive
// NumFree, matching the source's lease_ratio loop exactly.
func (r *Router) bestFitBlock() *block.Block {
	var best *block.Block
	bestFree := ^uint32(0)
	for _, blk := range r.View.OursBlocks() {
		tbl := blk.Materialize()
		free := tbl.NumFree()
		if free > 0 && free < bestFree {
			best, bestFree = blk, free
		}
	}
	return best
}

// HandleRequest implements spec.md §4.6's REQUEST procedure. A non-empty
// reply with ok=true is a client ACK/NAK to send now. An empty reply with
// ok=true means the request was forwarded to a peer (the answer arrives
// later, asynchronously, via HandleRenewAck/HandleRenewNak); ok=false
// means silent drop.
func (r *Router) HandleRequest(req dhcp.Packet, now time.Time) (dhcp.Packet, bool) {
	opts := req.ParseOptions()
	chaddr := chaddrOf(req)
	xid := xidOf(req)

	target := requestedAddress(req, opts)
	if target == nil {
		return r.handleRequestUnresolved(req, chaddr, xid, now)
	}

	outcome, blk, _, leaseIndex := r.locate(target)
	switch outcome {
	case ours:
		return r.handleRequestOurs(req, blk, leaseIndex, chaddr, xid, now)
	case foreign:
		_ = r.Bridge.Forward(blk, leaseIndex, chaddr, xid, target, req, now, r.LeaseTime, r.Delta)
		return dhcp.Packet{}, true
	default:
		return dhcp.Packet{}, false
	}
}

func (r *Router) handleRequestOurs(req dhcp.Packet, blk *block.Block, leaseIndex uint32, chaddr [16]byte, xid uint32, now time.Time) (dhcp.Packet, bool) {
	tbl := blk.Materialize()
	l := tbl.Get(leaseIndex)

	switch {
	case tbl.IsOfferedTo(leaseIndex, chaddr, xid), tbl.IsLeasedTo(leaseIndex, chaddr):
		tbl.Confirm(leaseIndex, chaddr, xid, now, r.LeaseTime, r.Delta)
	case l.State == lease.Free:
		// REQUEST without a prior OFFER: INIT-REBOOT / renewal of an
		// unknown lease, accepted per spec.md §4.6.
		tbl.Confirm(leaseIndex, chaddr, xid, now, r.LeaseTime, r.Delta)
	default:
		return r.Reply.Nak(req), true
	}

	yiaddr := r.Pool.Address(blk.Index, leaseIndex)
	return r.Reply.Ack(req, yiaddr, r.LeaseTime), true
}

// handleRequestUnresolved covers the no-option-50/no-ciaddr branch: scan
// every OURS block for an OFFERED lease matching (xid, chaddr).
func (r *Router) handleRequestUnresolved(req dhcp.Packet, chaddr [16]byte, xid uint32, now time.Time) (dhcp.Packet, bool) {
	for _, blk := range r.View.OursBlocks() {
		tbl := blk.Materialize()
		for i := uint32(0); i < tbl.Len(); i++ {
			if tbl.IsOfferedTo(i, chaddr, xid) {
				tbl.Confirm(i, chaddr, xid, now, r.LeaseTime, r.Delta)
				yiaddr := r.Pool.Address(blk.Index, i)
				return r.Reply.Ack(req, yiaddr, r.LeaseTime), true
			}
		}
	}
	return r.Reply.Nak(req), true
}

// HandleRelease implements spec.md §4.6's RELEASE procedure. Peer-owned
// addresses are a documented no-op (§9: the source's missing break
// between its "ours" and "peer" RELEASE branches leaves forwarding
// unspecified).
func (r *Router) HandleRelease(req dhcp.Packet) {
	target := net.IP(req.CIAddr())
	outcome, blk, _, leaseIndex := r.locate(target)
	if outcome != ours {
		return
	}
	tbl := blk.Materialize()
	chaddr := chaddrOf(req)
	if tbl.CanRelease(leaseIndex, chaddr) {
		tbl.Free(leaseIndex)
		return
	}
	// mismatched chaddr: per spec.md §4.4, logged and ignored.
	log.Printf("ddhcp: RELEASE of %s from non-matching chaddr %s ignored", target, req.CHAddr())
}

// HandleRenewLease is the owner side of spec.md §4.7 step 5, delegating
// to the bridge with this router's pool/view/timing so the cluster
// layer's inbound dispatcher has one call to make.
func (r *Router) HandleRenewLease(msg cluster.RenewLease, now time.Time) (net.IP, *cluster.RenewAck, *cluster.RenewNak) {
	return r.Bridge.HandleRenewLease(r.View, r.Pool, msg, now, r.LeaseTime, r.Delta)
}

// ResolveRenewAck is the originator side of spec.md §4.7 step 6: pop the
// pending client request and produce its ACK.
func (r *Router) ResolveRenewAck(msg cluster.RenewAck) (dhcp.Packet, bool) {
	req, ok := r.Bridge.HandleRenewAck(msg)
	if !ok {
		return dhcp.Packet{}, false
	}
	yiaddr := net.IP(msg.Address[:])
	leaseTime := time.Duration(msg.LeaseSeconds) * time.Second
	return r.Reply.Ack(req, yiaddr, leaseTime), true
}

// ResolveRenewNak is the originator side of a rejected renewal: pop the
// pending client request and produce its NAK.
func (r *Router) ResolveRenewNak(msg cluster.RenewNak) (dhcp.Packet, bool) {
	req, ok := r.Bridge.HandleRenewNak(msg)
	if !ok {
		return dhcp.Packet{}, false
	}
	return r.Reply.Nak(req), true
}

// requestedAddress resolves the client's target address: option 50
// (Requested Address), else ciaddr if non-zero, else unresolved (nil).
func requestedAddress(req dhcp.Packet, opts dhcp.Options) net.IP {
	if v, ok := dhcpopt.Find(opts, dhcp.OptionRequestedIPAddress); ok && len(v) == 4 {
		return net.IP(v)
	}
	ci := net.IP(req.CIAddr())
	if ci != nil && !ci.Equal(net.IPv4zero) {
		return ci
	}
	return nil
}

func chaddrOf(req dhcp.Packet) [16]byte {
	var out [16]byte
	copy(out[:], req.CHAddr())
	return out
}

func xidOf(req dhcp.Packet) uint32 {
	xid := req.XId()
	if len(xid) != 4 {
		return 0
	}
	return uint32(xid[0])<<24 | uint32(xid[1])<<16 | uint32(xid[2])<<8 | uint32(xid[3])
}
