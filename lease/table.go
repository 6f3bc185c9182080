package lease

import (
	"time"

	"github.com/willf/bitset"
)

// Table is a block's fixed-size array of lease records, mirroring the
// bitset-backed free/used accounting subnet.go keeps per subnet.
type Table struct {
	records []Lease
	used    *bitset.BitSet
}

// NewTable allocates a table of size leases, all initially FREE.
func NewTable(size uint32) *Table {
	return &Table{
		records: make([]Lease, size),
		used:    bitset.New(uint(size)),
	}
}

// Len is the number of lease slots in the table.
func (t *Table) Len() uint32 {
	return uint32(len(t.records))
}

// Get returns a pointer to the lease record at i; callers must not retain
// it past the event currently being processed.
func (t *Table) Get(i uint32) *Lease {
	return &t.records[i]
}

// HasFree reports whether any lease in the table is FREE.
func (t *Table) HasFree() bool {
	return t.used.Count() < uint(len(t.records))
}

// NumFree is the count of FREE leases.
func (t *Table) NumFree() uint32 {
	return uint32(len(t.records)) - uint32(t.used.Count())
}

// FirstFree is the lowest-indexed FREE lease, or Len() as a sentinel when
// none exists.
func (t *Table) FirstFree() uint32 {
	for i := uint32(0); i < uint32(len(t.records)); i++ {
		if !t.used.Test(uint(i)) {
			return i
		}
	}
	return uint32(len(t.records))
}

// Release zeros chaddr/xid and returns the lease to FREE. Deliberately
// retains nothing of the prior binding (spec.md §4.3 notes this may
// deviate from RFC 2131 §4.3.4's SHOULD-retain guidance).
func (t *Table) Release(i uint32) {
	t.records[i].clear()
	t.used.Clear(uint(i))
}

// CheckTimeouts releases every non-FREE lease whose LeaseEnd has passed,
// returning the resulting free count.
func (t *Table) CheckTimeouts(now time.Time) uint32 {
	for i := range t.records {
		l := &t.records[i]
		if l.State != Free && l.LeaseEnd.Before(now) {
			t.Release(uint32(i))
		}
	}
	return t.NumFree()
}

// Offer drives a FREE lease to OFFERED: FREE --DISCOVER--> OFFERED.
func (t *Table) Offer(i uint32, chaddr [16]byte, xid uint32, now time.Time, offerTimeout time.Duration) {
	l := &t.records[i]
	l.State = Offered
	l.CHAddr = chaddr
	l.XID = xid
	l.LeaseEnd = now.Add(offerTimeout)
	t.used.Set(uint(i))
}

// Confirm drives an OFFERED or FREE lease to LEASED (REQUEST accepted):
// OFFERED --matching REQUEST--> LEASED, or FREE --REQUEST w/o OFFER-->
// LEASED (INIT-REBOOT / renewal of an unknown lease, spec.md §4.6).
func (t *Table) Confirm(i uint32, chaddr [16]byte, xid uint32, now time.Time, leaseTime, delta time.Duration) {
	l := &t.records[i]
	l.State = Leased
	l.CHAddr = chaddr
	l.XID = xid
	l.LeaseEnd = now.Add(leaseTime + delta)
	t.used.Set(uint(i))
}

// Renew extends a LEASED lease held by chaddr: LEASED --REQUEST(renewal)--> LEASED.
func (t *Table) Renew(i uint32, now time.Time, leaseTime, delta time.Duration) {
	l := &t.records[i]
	l.LeaseEnd = now.Add(leaseTime + delta)
}

// Free drives a LEASED lease back to FREE on an explicit RELEASE from the
// matching chaddr. Callers must have already checked CanRelease.
func (t *Table) Free(i uint32) {
	t.Release(i)
}

// IsOfferedTo reports whether lease i is OFFERED to exactly this
// chaddr/xid pair — the "matching REQUEST" condition of spec.md §4.4.
func (t *Table) IsOfferedTo(i uint32, chaddr [16]byte, xid uint32) bool {
	l := &t.records[i]
	return l.State == Offered && l.matches(chaddr, xid)
}

// IsLeasedTo reports whether lease i is LEASED to this chaddr (xid is not
// part of the LEASED-renewal match per spec.md §4.4).
func (t *Table) IsLeasedTo(i uint32, chaddr [16]byte) bool {
	l := &t.records[i]
	return l.State == Leased && l.sameClient(chaddr)
}

// CanRelease reports whether lease i is LEASED to chaddr and so eligible
// for an explicit RELEASE.
func (t *Table) CanRelease(i uint32, chaddr [16]byte) bool {
	l := &t.records[i]
	return l.State == Leased && l.sameClient(chaddr)
}
