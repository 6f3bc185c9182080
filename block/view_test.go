package block

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOursBlocksFiltersByState(t *testing.T) {
	blocks := []*Block{
		{Index: 0, State: Ours, Subnet: net.ParseIP("10.0.0.0"), SubnetLen: 16},
		{Index: 1, State: ClaimedByPeer, Subnet: net.ParseIP("10.0.0.16"), SubnetLen: 16},
		{Index: 2, State: Free},
	}
	v := NewView(NewStaticSource(blocks))

	ours := v.OursBlocks()
	require.Len(t, ours, 1)
	assert.EqualValues(t, 0, ours[0].Index)
}

func TestMaterializeIfClaimedOnlyTouchesClaimedBlocks(t *testing.T) {
	claimed := &Block{Index: 1, State: ClaimedByPeer, SubnetLen: 16}
	ours := &Block{Index: 0, State: Ours, SubnetLen: 16}
	v := NewView(NewStaticSource([]*Block{ours, claimed}))

	b, ok := v.MaterializeIfClaimed(1)
	require.True(t, ok)
	assert.NotNil(t, b.Leases)

	b, ok = v.MaterializeIfClaimed(0)
	require.True(t, ok)
	assert.Nil(t, b.Leases, "OURS block must not be materialized by this path")
}

func TestLookupMissing(t *testing.T) {
	v := NewView(NewStaticSource(nil))
	_, ok := v.Lookup(0)
	assert.False(t, ok)
}
