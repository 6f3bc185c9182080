package dhcpopt

import (
	dhcp "github.com/krolaw/dhcp4"
)

// Find returns the payload for code in opts, if present. Replaces the
// source's linear scan over a fixed-size option array with a map lookup;
// contract unchanged — first (only) match or absent.
func Find(opts dhcp.Options, code dhcp.OptionCode) ([]byte, bool) {
	v, ok := opts[code]
	return v, ok
}

// Set overwrites the payload for code in opts (inserting it if absent).
// The source's "code 0 marks a free slot" bookkeeping has no analogue
// over a map and is dropped; the caller-visible contract — set-on-write
// replaces the payload — is unchanged.
func Set(opts dhcp.Options, code dhcp.OptionCode, payload []byte) {
	opts[code] = payload
}

// Headroom is the number of slots reserved for the caller to fill after Fill returns:
// slot 0 is DHCP Message Type, slot 1 is Address Lease Time, matching
// the headroom=2 contract of spec.md §4.8.
const Headroom = 2

// Fill reads the client's Parameter-Request-List (option 55) from
// clientOpts and, for each requested code present in store, copies it
// into the returned Options. headroom reserved codes are left for the
// caller to set afterward (message type, lease time); Fill itself never
// writes them. Returns the populated option count including the
// reserved headroom slots, mirroring the source's return value.
func Fill(clientOpts dhcp.Options, store *Store, headroom int) (dhcp.Options, int) {
	out := make(dhcp.Options)
	count := headroom

	prl, ok := Find(clientOpts, dhcp.OptionParameterRequestList)
	if !ok {
		return out, count
	}
	for _, code := range prl {
		oc := dhcp.OptionCode(code)
		if payload, ok := store.Get(oc); ok {
			Set(out, oc, payload)
			count++
		}
	}
	return out, count
}

// ToOptionSlice converts a populated Options map into the []dhcp.Option
// form dhcp4.ReplyPacket expects for the options it appends after its own
// message-type/server-identifier/lease-time triple.
func ToOptionSlice(opts dhcp.Options) []dhcp.Option {
	out := make([]dhcp.Option, 0, len(opts))
	for code, payload := range opts {
		out = append(out, dhcp.Option{Code: code, Value: payload})
	}
	return out
}
