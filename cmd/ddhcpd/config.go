package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"strconv"
	"strings"

	dhcp "github.com/krolaw/dhcp4"
)

// OptionOverride is one operator-supplied DHCP option override, parsed
// from the "code;len;b0,b1,...,b(len-1)" wire form of spec.md §6.
type OptionOverride struct {
	Code    dhcp.OptionCode
	Payload []byte
}

// Config is the configuration surface spec.md §6 lists as consumed by
// the core: pool geometry plus operator option overrides. Parsed by
// hand, the way subnet.go's UnmarshalJSON validates and defaults its
// fields, rather than through a config-file library no repo in the pack
// reaches for.
type Config struct {
	Prefix         string   `json:"prefix"`
	PrefixLen      int      `json:"prefix_len"`
	BlockSize      uint32   `json:"block_size"`
	NumberOfBlocks uint32   `json:"number_of_blocks,omitempty"`
	McastScopeID   string   `json:"mcast_scope_id,omitempty"`
	ServerID       string   `json:"server_id,omitempty"`
	Options        []string `json:"options,omitempty"`

	IntrospectPort int      `json:"introspect_port,omitempty"`
	IntrospectHost []string `json:"introspect_hosts,omitempty"`
}

// LoadConfig reads and validates a JSON config file, following data.go's
// load_data idiom (ioutil.ReadFile + json.Unmarshal) for this repo's one
// piece of non-lease persisted state.
func LoadConfig(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ddhcpd: reading config: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("ddhcpd: parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if net.ParseIP(c.Prefix) == nil {
		return errors.New("ddhcpd: config: prefix is not a valid IP address")
	}
	if c.PrefixLen <= 0 || c.PrefixLen > 32 {
		return errors.New("ddhcpd: config: prefix_len out of range")
	}
	if c.BlockSize == 0 {
		return errors.New("ddhcpd: config: block_size must be positive")
	}
	if c.IntrospectPort == 0 {
		c.IntrospectPort = 8080
	}
	return nil
}

// ParseOptionOverrides parses every "code;len;b0,b1,...,b(len-1)" entry.
// A malformed entry is a startup-fatal malformed-option error per
// spec.md §7.
func (c *Config) ParseOptionOverrides() ([]OptionOverride, error) {
	out := make([]OptionOverride, 0, len(c.Options))
	for _, raw := range c.Options {
		o, err := parseOptionOverride(raw)
		if err != nil {
			return nil, fmt.Errorf("ddhcpd: config: malformed option %q: %w", raw, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseOptionOverride(raw string) (OptionOverride, error) {
	parts := strings.Split(raw, ";")
	if len(parts) != 3 {
		return OptionOverride{}, errors.New("expected code;len;b0,b1,...")
	}
	code, err := strconv.Atoi(parts[0])
	if err != nil {
		return OptionOverride{}, fmt.Errorf("bad code: %w", err)
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return OptionOverride{}, fmt.Errorf("bad length: %w", err)
	}
	byteStrs := strings.Split(parts[2], ",")
	if len(byteStrs) != length {
		return OptionOverride{}, fmt.Errorf("declared length %d does not match %d bytes", length, len(byteStrs))
	}
	payload := make([]byte, length)
	for i, bs := range byteStrs {
		v, err := strconv.Atoi(bs)
		if err != nil || v < 0 || v > 255 {
			return OptionOverride{}, fmt.Errorf("bad byte %q", bs)
		}
		payload[i] = byte(v)
	}
	return OptionOverride{Code: dhcp.OptionCode(code), Payload: payload}, nil
}

// ServerIdentifier resolves the configured server identifier address, if
// any — the fix spec.md §9 calls for in place of the prefix-byte-3 hack.
func (c *Config) ServerIdentifier() net.IP {
	if c.ServerID == "" {
		return nil
	}
	return net.ParseIP(c.ServerID)
}
