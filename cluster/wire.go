// Package cluster implements the peer renewal bridge: delegating a
// client REQUEST to the owning peer over the cluster plane and
// correlating the reply back to the parked client packet.
package cluster

import (
	"encoding/binary"
	"errors"
)

// RenewLease is sent by a non-owning daemon to the block's owner,
// asking it to authoritatively confirm a client's REQUEST. Wire layout
// mirrors the source's ddhcp_renew_payload exactly: chaddr[16],
// address[4], xid[4], lease_seconds[4].
type RenewLease struct {
	CHAddr       [16]byte
	Address      [4]byte
	XID          uint32
	LeaseSeconds uint32
}

// RenewAck is the owner's affirmative reply: the client may be ACKed
// with the carried lease_seconds.
type RenewAck struct {
	CHAddr       [16]byte
	Address      [4]byte
	XID          uint32
	LeaseSeconds uint32
}

// RenewNak is the owner's rejection: the client must be NAKed.
type RenewNak struct {
	CHAddr  [16]byte
	Address [4]byte
	XID     uint32
}

const wireLen = 16 + 4 + 4 + 4

// MarshalBinary encodes a RenewLease to the fixed wire layout.
func (m RenewLease) MarshalBinary() ([]byte, error) {
	return marshal(m.CHAddr, m.Address, m.XID, m.LeaseSeconds), nil
}

// UnmarshalBinary decodes a RenewLease from the fixed wire layout.
func (m *RenewLease) UnmarshalBinary(data []byte) error {
	chaddr, addr, xid, secs, err := unmarshal(data)
	if err != nil {
		return err
	}
	m.CHAddr, m.Address, m.XID, m.LeaseSeconds = chaddr, addr, xid, secs
	return nil
}

// MarshalBinary encodes a RenewAck to the fixed wire layout.
func (m RenewAck) MarshalBinary() ([]byte, error) {
	return marshal(m.CHAddr, m.Address, m.XID, m.LeaseSeconds), nil
}

// UnmarshalBinary decodes a RenewAck from the fixed wire layout.
func (m *RenewAck) UnmarshalBinary(data []byte) error {
	chaddr, addr, xid, secs, err := unmarshal(data)
	if err != nil {
		return err
	}
	m.CHAddr, m.Address, m.XID, m.LeaseSeconds = chaddr, addr, xid, secs
	return nil
}

// MarshalBinary encodes a RenewNak to the fixed wire layout (lease_seconds
// is always zero on the wire for a NAK).
func (m RenewNak) MarshalBinary() ([]byte, error) {
	return marshal(m.CHAddr, m.Address, m.XID, 0), nil
}

// UnmarshalBinary decodes a RenewNak from the fixed wire layout.
func (m *RenewNak) UnmarshalBinary(data []byte) error {
	chaddr, addr, xid, _, err := unmarshal(data)
	if err != nil {
		return err
	}
	m.CHAddr, m.Address, m.XID = chaddr, addr, xid
	return nil
}

func marshal(chaddr [16]byte, addr [4]byte, xid, secs uint32) []byte {
	buf := make([]byte, wireLen)
	copy(buf[0:16], chaddr[:])
	copy(buf[16:20], addr[:])
	binary.BigEndian.PutUint32(buf[20:24], xid)
	binary.BigEndian.PutUint32(buf[24:28], secs)
	return buf
}

func unmarshal(data []byte) (chaddr [16]byte, addr [4]byte, xid, secs uint32, err error) {
	if len(data) != wireLen {
		return chaddr, addr, 0, 0, errors.New("cluster: short renewal message")
	}
	copy(chaddr[:], data[0:16])
	copy(addr[:], data[16:20])
	xid = binary.BigEndian.Uint32(data[20:24])
	secs = binary.BigEndian.Uint32(data[24:28])
	return chaddr, addr, xid, secs, nil
}
