package pool

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) *Pool {
	t.Helper()
	p, err := New(net.ParseIP("10.0.0.0"), 24, 16)
	require.NoError(t, err)
	return p
}

func TestNewDerivesBlockCount(t *testing.T) {
	p := testPool(t)
	assert.EqualValues(t, 16, p.NumBlocks)
}

func TestLocateRoundTrips(t *testing.T) {
	// Invariant 3: for any in-pool address, (block, lease) round-trips
	// through the inverse arithmetic back to the same address.
	p := testPool(t)
	cases := []string{"10.0.0.0", "10.0.0.5", "10.0.0.15", "10.0.0.16", "10.0.0.255"}
	for _, addr := range cases {
		ip := net.ParseIP(addr)
		block, lease, ok := p.Locate(ip)
		require.True(t, ok, addr)
		assert.True(t, ip.Equal(p.Address(block, lease)), addr)
	}
}

func TestLocateBlockAndLeaseIndex(t *testing.T) {
	p := testPool(t)

	block, lease, ok := p.Locate(net.ParseIP("10.0.0.0"))
	require.True(t, ok)
	assert.EqualValues(t, 0, block)
	assert.EqualValues(t, 0, lease)

	block, lease, ok = p.Locate(net.ParseIP("10.0.0.16"))
	require.True(t, ok)
	assert.EqualValues(t, 1, block)
	assert.EqualValues(t, 0, lease)

	block, lease, ok = p.Locate(net.ParseIP("10.0.0.21"))
	require.True(t, ok)
	assert.EqualValues(t, 1, block)
	assert.EqualValues(t, 5, lease)
}

func TestLocateOutOfPool(t *testing.T) {
	p := testPool(t)

	_, _, ok := p.Locate(net.ParseIP("10.0.1.0"))
	assert.False(t, ok)

	_, _, ok = p.Locate(net.ParseIP("9.255.255.255"))
	assert.False(t, ok)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(net.ParseIP("::1"), 24, 16)
	assert.Error(t, err)

	_, err = New(net.ParseIP("10.0.0.0"), 24, 0)
	assert.Error(t, err)
}
