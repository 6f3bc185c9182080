// Package dhcpopt implements the DHCP option codec and the server-wide
// option store of defaults merged into every reply.
package dhcpopt

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sort"

	dhcp "github.com/krolaw/dhcp4"
)

// Store is the server-wide set of default DHCP options, keyed uniquely
// by option code. Set-on-write replaces the payload; ownership of the
// old payload is released by virtue of Go's GC (the source's manual
// free() has no analogue here).
type Store struct {
	defaults dhcp.Options
}

// NewStore returns an empty store. Callers normally follow with Init.
func NewStore() *Store {
	return &Store{defaults: make(dhcp.Options)}
}

// Get returns the default payload for code, if present.
func (s *Store) Get(code dhcp.OptionCode) ([]byte, bool) {
	v, ok := s.defaults[code]
	return v, ok
}

// Set overwrites (or inserts) the default payload for code.
func (s *Store) Set(code dhcp.OptionCode, value []byte) {
	s.defaults[code] = value
}

// SetDefault sets code only if it is not already present — used by Init
// so an operator override supplied before Init always wins.
func (s *Store) SetDefault(code dhcp.OptionCode, value []byte) {
	if _, ok := s.defaults[code]; !ok {
		s.defaults[code] = value
	}
}

// Init synthesizes SUBNET_MASK, BROADCAST_ADDRESS, SERVER_IDENTIFIER and
// TIME_OFFSET from the pool prefix/length when not already set by the
// operator, using the exact byte formulas of spec.md §4.2.
//
// SERVER_IDENTIFIER's default is the documented quirk: prefix with byte 3
// forced to 1, not the address of the interface actually serving the
// pool. Pass serverID to override with the real interface address — see
// the open question in dhcp_options.c this carries forward.
func (s *Store) Init(prefix net.IP, prefixLen int, serverID net.IP) {
	p4 := prefix.To4()

	mask := make([]byte, 4)
	bcast := make([]byte, 4)
	for k := 0; k < 4; k++ {
		bitsInByte := clamp(prefixLen-8*k, 0, 8)
		mask[k] = 255 - (255 >> uint(bitsInByte))
		hostBits := clamp(8-(prefixLen-8*k), 0, 8)
		bcast[k] = p4[k] | byte((1<<uint(hostBits))-1)
	}
	s.SetDefault(dhcp.OptionSubnetMask, mask)
	s.SetDefault(dhcp.OptionBroadcastAddress, bcast)

	if serverID != nil {
		s.SetDefault(dhcp.OptionServerIdentifier, serverID.To4())
	} else {
		id := make([]byte, 4)
		copy(id, p4)
		id[3] = 1
		s.SetDefault(dhcp.OptionServerIdentifier, id)
	}

	offset := make([]byte, 4)
	binary.BigEndian.PutUint32(offset, 0)
	s.SetDefault(dhcp.OptionTimeOffset, offset)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WriteDebug dumps the store's current codes and lengths, supplementing
// the original's dhcp_options_show debug facility.
func (s *Store) WriteDebug(w io.Writer) {
	codes := make([]int, 0, len(s.defaults))
	for c := range s.defaults {
		codes = append(codes, int(c))
	}
	sort.Ints(codes)
	for _, c := range codes {
		fmt.Fprintf(w, "option %d: %d bytes\n", c, len(s.defaults[dhcp.OptionCode(c)]))
	}
}
