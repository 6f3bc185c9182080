package cluster

import (
	"net"
	"testing"
	"time"

	dhcp "github.com/krolaw/dhcp4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubo77/ddhcpd/block"
	"github.com/rubo77/ddhcpd/pool"
)

type fakeTransport struct {
	renewLeases []RenewLease
}

func (f *fakeTransport) SendRenewLease(to net.IP, msg RenewLease) error {
	f.renewLeases = append(f.renewLeases, msg)
	return nil
}
func (f *fakeTransport) SendRenewAck(to net.IP, msg RenewAck) error { return nil }
func (f *fakeTransport) SendRenewNak(to net.IP, msg RenewNak) error { return nil }

func mac(b byte) [16]byte {
	var m [16]byte
	m[15] = b
	return m
}

func TestForwardParksRequestAndSendsRenewLease(t *testing.T) {
	// Scenario 5 (originator side): a REQUEST targeting a peer-owned
	// block emits RENEWLEASE and parks the client packet.
	transport := &fakeTransport{}
	bridge := NewBridge(transport)
	blk := &block.Block{Index: 1, State: block.ClaimedByPeer, OwnerAddress: net.ParseIP("fe80::2"), Subnet: net.ParseIP("10.0.0.16"), SubnetLen: 16}
	now := time.Now()

	var pkt dhcp.Packet
	err := bridge.Forward(blk, 0, mac(1), 0xCAFE, net.ParseIP("10.0.0.16"), pkt, now, time.Hour, 100*time.Second)
	require.NoError(t, err)
	require.Len(t, transport.renewLeases, 1)
	assert.EqualValues(t, 0xCAFE, transport.renewLeases[0].XID)
	assert.NotNil(t, blk.Leases, "peer block lease array must be materialized on forward")

	_, ok := bridge.HandleRenewAck(RenewAck{CHAddr: mac(1), XID: 0xCAFE})
	assert.True(t, ok)

	// second resolution for the same (xid, chaddr) is an idempotent no-op
	_, ok = bridge.HandleRenewAck(RenewAck{CHAddr: mac(1), XID: 0xCAFE})
	assert.False(t, ok)
}

func TestHandleRenewLeaseOwnerSide(t *testing.T) {
	p, err := pool.New(net.ParseIP("10.0.0.0"), 24, 16)
	require.NoError(t, err)

	blk := &block.Block{Index: 0, State: block.Ours, Subnet: net.ParseIP("10.0.0.0"), SubnetLen: 16}
	view := block.NewView(block.NewStaticSource([]*block.Block{blk}))
	bridge := NewBridge(&fakeTransport{})

	msg := RenewLease{CHAddr: mac(1), XID: 1}
	copy(msg.Address[:], net.ParseIP("10.0.0.5").To4())

	to, ack, nak := bridge.HandleRenewLease(view, p, msg, time.Now(), time.Hour, 100*time.Second)
	assert.Nil(t, nak)
	require.NotNil(t, ack)
	assert.Nil(t, to)
	assert.EqualValues(t, 3700, ack.LeaseSeconds)
}

func TestHandleRenewLeaseRejectsOutOfPool(t *testing.T) {
	blk := &block.Block{Index: 0, State: block.Ours, Subnet: net.ParseIP("10.0.0.0"), SubnetLen: 16}
	view := block.NewView(block.NewStaticSource([]*block.Block{blk}))
	p, _ := pool.New(net.ParseIP("10.0.0.0"), 24, 16)
	bridge := NewBridge(&fakeTransport{})

	msg := RenewLease{CHAddr: mac(1), XID: 1}
	copy(msg.Address[:], net.ParseIP("192.168.1.1").To4())

	_, ack, nak := bridge.HandleRenewLease(view, p, msg, time.Now(), time.Hour, 0)
	assert.Nil(t, ack)
	require.NotNil(t, nak)
}

func TestSweepExpiresStalePendingEntries(t *testing.T) {
	bridge := NewBridge(&fakeTransport{})
	blk := &block.Block{Index: 1, State: block.ClaimedByPeer, OwnerAddress: net.ParseIP("fe80::2"), SubnetLen: 16}
	now := time.Now()
	_ = bridge.Forward(blk, 0, mac(1), 1, net.ParseIP("10.0.0.16"), dhcp.Packet{}, now, time.Hour, 0)

	bridge.Sweep(now.Add(PendingTTL + time.Second))
	_, ok := bridge.HandleRenewAck(RenewAck{CHAddr: mac(1), XID: 1})
	assert.False(t, ok, "expired pending entry must not resolve")
}
