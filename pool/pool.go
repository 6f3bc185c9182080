// Package pool implements address arithmetic over the configured IPv4
// prefix: mapping an address to the (block, lease) coordinates the rest
// of the daemon works in, and back.
package pool

import (
	"encoding/binary"
	"errors"
	"net"

	dhcp "github.com/krolaw/dhcp4"
)

// Pool is the immutable pool configuration: prefix P/L split into N
// fixed-size blocks of B addresses each.
type Pool struct {
	Prefix    net.IP
	PrefixLen int
	BlockSize uint32
	NumBlocks uint32
}

// New builds a Pool, deriving NumBlocks from the prefix length and block
// size. blockSize need not divide the address space; an uneven remainder
// becomes one extra, shorter last block, as spec.md §3 allows ("except
// possibly the last block").
func New(prefix net.IP, prefixLen int, blockSize uint32) (*Pool, error) {
	p4 := prefix.To4()
	if p4 == nil {
		return nil, errors.New("pool: prefix must be IPv4")
	}
	if prefixLen < 0 || prefixLen > 32 {
		return nil, errors.New("pool: prefix length out of range")
	}
	if blockSize == 0 {
		return nil, errors.New("pool: block size must be positive")
	}
	total := uint32(1) << uint(32-prefixLen)
	numBlocks := total / blockSize
	if total%blockSize != 0 {
		numBlocks++
	}
	return &Pool{Prefix: p4, PrefixLen: prefixLen, BlockSize: blockSize, NumBlocks: numBlocks}, nil
}

// Locate maps addr to (blockIndex, leaseIndex). ok is false when addr
// falls outside the pool (out-of-pool, per spec.md §4.1).
func (p *Pool) Locate(addr net.IP) (blockIndex, leaseIndex uint32, ok bool) {
	a4 := addr.To4()
	if a4 == nil {
		return 0, 0, false
	}
	prefixInt := binary.BigEndian.Uint32(p.Prefix)
	addrInt := binary.BigEndian.Uint32(a4)
	if addrInt < prefixInt {
		return 0, 0, false
	}
	delta := addrInt - prefixInt
	blockIndex = delta / p.BlockSize
	leaseIndex = delta % p.BlockSize
	if blockIndex >= p.NumBlocks {
		return 0, 0, false
	}
	return blockIndex, leaseIndex, true
}

// Address is the inverse of Locate: the address at the given block and
// lease offset, in network byte order.
func (p *Pool) Address(blockIndex, leaseIndex uint32) net.IP {
	return dhcp.IPAdd(p.BlockStart(blockIndex), int(leaseIndex))
}

// BlockStart is the first address of the given block (= P + index*B).
func (p *Pool) BlockStart(blockIndex uint32) net.IP {
	return dhcp.IPAdd(p.Prefix, int(blockIndex*p.BlockSize))
}

// BlockLen is the number of leases in the given block: BlockSize, except
// the final block may be shorter when the address space doesn't divide
// evenly.
func (p *Pool) BlockLen(blockIndex uint32) uint32 {
	if blockIndex != p.NumBlocks-1 {
		return p.BlockSize
	}
	total := uint32(1) << uint(32-p.PrefixLen)
	rem := total - blockIndex*p.BlockSize
	if rem < p.BlockSize {
		return rem
	}
	return p.BlockSize
}
