package lease

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mac(b byte) [16]byte {
	var m [16]byte
	m[15] = b
	return m
}

func TestFreeLeaseInvariant(t *testing.T) {
	// Invariant 1: State == Free iff chaddr == 0 and xid == 0.
	tbl := NewTable(4)
	assert.Equal(t, Free, tbl.Get(0).State)
	assert.Equal(t, [16]byte{}, tbl.Get(0).CHAddr)
	assert.Zero(t, tbl.Get(0).XID)
}

func TestOfferThenConfirm(t *testing.T) {
	tbl := NewTable(4)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	chaddr := mac(1)

	tbl.Offer(0, chaddr, 0xCAFE, now, 12*time.Second)
	assert.Equal(t, Offered, tbl.Get(0).State)
	assert.True(t, tbl.IsOfferedTo(0, chaddr, 0xCAFE))
	assert.False(t, tbl.IsOfferedTo(0, chaddr, 0xFFFF))

	tbl.Confirm(0, chaddr, 0xCAFE, now, time.Hour, 100*time.Second)
	assert.Equal(t, Leased, tbl.Get(0).State)
	assert.True(t, tbl.Get(0).LeaseEnd.After(now))
}

func TestNumFreeAndFirstFree(t *testing.T) {
	// Invariant 2: num_free + |offered|+|leased| == subnet_len.
	tbl := NewTable(4)
	now := time.Now()
	assert.EqualValues(t, 4, tbl.NumFree())
	assert.EqualValues(t, 0, tbl.FirstFree())

	tbl.Offer(0, mac(1), 1, now, time.Second)
	tbl.Offer(2, mac(2), 2, now, time.Second)
	assert.EqualValues(t, 2, tbl.NumFree())
	assert.EqualValues(t, 1, tbl.FirstFree())
}

func TestCheckTimeoutsReleasesExpired(t *testing.T) {
	// Invariant 4: after CheckTimeouts, every non-FREE lease has
	// LeaseEnd >= now.
	tbl := NewTable(2)
	past := time.Now().Add(-time.Hour)
	tbl.Offer(0, mac(1), 1, past, time.Second) // expires immediately

	free := tbl.CheckTimeouts(time.Now())
	assert.EqualValues(t, 2, free)
	assert.Equal(t, Free, tbl.Get(0).State)
}

func TestReleaseRequiresMatchingCHAddr(t *testing.T) {
	tbl := NewTable(2)
	now := time.Now()
	tbl.Confirm(0, mac(1), 1, now, time.Hour, 0)

	assert.True(t, tbl.CanRelease(0, mac(1)))
	assert.False(t, tbl.CanRelease(0, mac(9)))

	tbl.Free(0)
	assert.Equal(t, Free, tbl.Get(0).State)
}
