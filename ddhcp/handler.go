package ddhcp

import (
	"time"

	dhcp "github.com/krolaw/dhcp4"
)

// Handler adapts Router to dhcp4.Handler, matching the canonical
// dhcp4.ListenAndServe dispatch-by-message-type shape (the same shape
// krolaw/dhcp4's own example server uses, which subnet.go's header
// comment — "Example of minimal DHCP server" — names directly as its
// basis).
type Handler struct {
	Router *Router
	Now    func() time.Time
}

// NewHandler wires a Router into a dhcp4.Handler.
func NewHandler(r *Router) *Handler {
	return &Handler{Router: r, Now: time.Now}
}

// ServeDHCP dispatches an inbound packet to the router by message type.
func (h *Handler) ServeDHCP(req dhcp.Packet, msgType dhcp.MessageType, options dhcp.Options) dhcp.Packet {
	now := h.Now()
	switch msgType {
	case dhcp.Discover:
		if reply, ok := h.Router.HandleDiscover(req, now); ok {
			return reply
		}
	case dhcp.Request:
		if reply, ok := h.Router.HandleRequest(req, now); ok && len(reply) > 0 {
			return reply
		}
	case dhcp.Release:
		h.Router.HandleRelease(req)
	}
	return nil
}
