package dhcpopt

import (
	"bytes"
	"net"
	"testing"

	dhcp "github.com/krolaw/dhcp4"
	"github.com/stretchr/testify/assert"
)

func TestInitSynthesizesDefaults(t *testing.T) {
	s := NewStore()
	s.Init(net.ParseIP("10.0.0.0"), 24, nil)

	mask, ok := s.Get(dhcp.OptionSubnetMask)
	assert.True(t, ok)
	assert.Equal(t, net.IPv4(255, 255, 255, 0).To4(), net.IP(mask))

	bcast, ok := s.Get(dhcp.OptionBroadcastAddress)
	assert.True(t, ok)
	assert.Equal(t, net.IPv4(10, 0, 0, 255).To4(), net.IP(bcast))

	// documented quirk: default server identifier is prefix with byte 3 = 1
	serverID, ok := s.Get(dhcp.OptionServerIdentifier)
	assert.True(t, ok)
	assert.Equal(t, net.IPv4(10, 0, 0, 1).To4(), net.IP(serverID))
}

func TestInitHonorsOperatorServerIdentifier(t *testing.T) {
	s := NewStore()
	s.Init(net.ParseIP("10.0.0.0"), 24, net.ParseIP("192.168.1.1"))

	serverID, ok := s.Get(dhcp.OptionServerIdentifier)
	assert.True(t, ok)
	assert.Equal(t, net.IPv4(192, 168, 1, 1).To4(), net.IP(serverID))
}

func TestSetDefaultDoesNotOverwrite(t *testing.T) {
	s := NewStore()
	s.Set(dhcp.OptionSubnetMask, []byte{1, 2, 3, 4})
	s.Init(net.ParseIP("10.0.0.0"), 24, nil)

	mask, _ := s.Get(dhcp.OptionSubnetMask)
	assert.Equal(t, []byte{1, 2, 3, 4}, mask)
}

func TestFillCopiesRequestedOptionsWithHeadroom(t *testing.T) {
	s := NewStore()
	s.Init(net.ParseIP("10.0.0.0"), 24, nil)

	client := make(dhcp.Options)
	client[dhcp.OptionParameterRequestList] = []byte{byte(dhcp.OptionSubnetMask), byte(dhcp.OptionBroadcastAddress)}

	out, count := Fill(client, s, Headroom)
	assert.Equal(t, Headroom+2, count)

	mask, ok := Find(out, dhcp.OptionSubnetMask)
	assert.True(t, ok)
	assert.True(t, bytes.Equal(mask, net.IPv4(255, 255, 255, 0).To4()))
}

func TestFillSkipsUnknownPRLCodes(t *testing.T) {
	s := NewStore()
	client := make(dhcp.Options)
	client[dhcp.OptionParameterRequestList] = []byte{byte(dhcp.OptionDomainName)}

	out, count := Fill(client, s, Headroom)
	assert.Equal(t, Headroom, count)
	assert.Empty(t, out)
}
