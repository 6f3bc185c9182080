// Package block implements the read-mostly block view the router
// consults to locate a lease: ownership, subnet, and (once materialized)
// the block's lease table.
package block

import (
	"net"

	"github.com/rubo77/ddhcpd/lease"
)

// State is a block's ownership state. Only Ours and ClaimedByPeer are
// material to the core (spec.md §3); Free and Claiming are pass-through
// values from the external claim/heartbeat plane.
type State int

const (
	Free State = iota
	Claiming
	Ours
	ClaimedByPeer
)

func (s State) String() string {
	switch s {
	case Free:
		return "FREE"
	case Claiming:
		return "CLAIMING"
	case Ours:
		return "OURS"
	case ClaimedByPeer:
		return "CLAIMED_BY_PEER"
	default:
		return "UNKNOWN"
	}
}

// Block is one record of the pool's N blocks.
type Block struct {
	Index        uint32
	State        State
	OwnerAddress net.IP
	Subnet       net.IP
	SubnetLen    uint32

	// Leases is nil until materialized (invariant 1 of spec.md §3): a
	// FREE or CLAIMING block must never have it consulted.
	Leases *lease.Table
}

// Materialize allocates the block's lease table if absent.
func (b *Block) Materialize() *lease.Table {
	if b.Leases == nil {
		b.Leases = lease.NewTable(b.SubnetLen)
	}
	return b.Leases
}
