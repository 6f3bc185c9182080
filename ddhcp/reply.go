package ddhcp

import (
	"net"
	"time"

	dhcp "github.com/krolaw/dhcp4"

	"github.com/rubo77/ddhcpd/dhcpopt"
)

// ReplyBuilder assembles OFFER/ACK/NAK packets (C8). Every reply has
// op = BOOTREPLY and copies htype, hlen, hops, xid, flags, ciaddr, giaddr
// and chaddr from the request (copyHeader). OFFER and ACK are built with
// dhcp4.ReplyPacket, which correctly encodes the message-type,
// server-identifier and lease-time options as its own headroom — which is
// exactly the fix spec.md §9 calls for: the source's two inconsistent,
// wrong-endian lease-time encodings have no analogue here, since the
// library always emits a proper big-endian 32-bit seconds value.
type ReplyBuilder struct {
	Store    *dhcpopt.Store
	ServerID net.IP
}

// Offer builds a DHCPOFFER for yiaddr with the pool's option defaults
// requested by the client's Parameter-Request-List folded in.
func (r *ReplyBuilder) Offer(req dhcp.Packet, yiaddr net.IP, leaseTime time.Duration) dhcp.Packet {
	return r.reply(req, dhcp.Offer, yiaddr, leaseTime)
}

// Ack builds a DHCPACK for yiaddr.
func (r *ReplyBuilder) Ack(req dhcp.Packet, yiaddr net.IP, leaseTime time.Duration) dhcp.Packet {
	return r.reply(req, dhcp.ACK, yiaddr, leaseTime)
}

// Nak builds a DHCPNAK. Per spec.md §4.8, NAK carries only the message
// type option — no yiaddr, no lease time, no PRL-derived options.
func (r *ReplyBuilder) Nak(req dhcp.Packet) dhcp.Packet {
	p := dhcp.NewPacket(dhcp.BootReply)
	copyHeader(p, req)
	p.AddOption(dhcp.OptionDHCPMessageType, []byte{byte(dhcp.NAK)})
	p.PadToMinSize()
	return p
}

func (r *ReplyBuilder) reply(req dhcp.Packet, mt dhcp.MessageType, yiaddr net.IP, leaseTime time.Duration) dhcp.Packet {
	opts, _ := dhcpopt.Fill(req.ParseOptions(), r.Store, dhcpopt.Headroom)
	p := dhcp.ReplyPacket(req, mt, r.ServerID, yiaddr, leaseTime, dhcpopt.ToOptionSlice(opts))
	copyHeader(p, req)
	return p
}

// copyHeader copies the request fields every reply carries over.
func copyHeader(p, req dhcp.Packet) {
	p.SetHType(req.HType())
	p.SetHops(req.Hops())
	p.SetXId(req.XId())
	p.SetFlags(req.Flags())
	p.SetCIAddr(req.CIAddr())
	p.SetGIAddr(req.GIAddr())
	p.SetCHAddr(req.CHAddr())
}
