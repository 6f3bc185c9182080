// Command ddhcpd wires the pool, option store, lease tables, block view,
// request router and peer renewal bridge together and runs the
// single-threaded event loop of spec.md §5.
package main

import (
	"flag"
	"log"
	"net"
	"time"

	dhcp "github.com/krolaw/dhcp4"

	"github.com/rubo77/ddhcpd/block"
	"github.com/rubo77/ddhcpd/cluster"
	"github.com/rubo77/ddhcpd/ddhcp"
	"github.com/rubo77/ddhcpd/dhcpopt"
	"github.com/rubo77/ddhcpd/introspect"
	"github.com/rubo77/ddhcpd/pool"
)

// singleOwnerSource is the stand-in for the out-of-scope block-claim/
// heartbeat plane (spec.md §1): every block is OURS. Real multi-daemon
// deployments plug a Source backed by that plane in here instead.
type singleOwnerSource struct {
	blocks []*block.Block
}

func newSingleOwnerSource(p *pool.Pool) *singleOwnerSource {
	blocks := make([]*block.Block, p.NumBlocks)
	for i := uint32(0); i < p.NumBlocks; i++ {
		blocks[i] = &block.Block{
			Index:     i,
			State:     block.Ours,
			Subnet:    p.BlockStart(i),
			SubnetLen: p.BlockLen(i),
		}
	}
	return &singleOwnerSource{blocks: blocks}
}

func (s *singleOwnerSource) Blocks() []*block.Block { return s.blocks }

// logOnlyTransport stands in for the out-of-scope raw-socket/multicast
// cluster transport (spec.md §1). A real deployment replaces this with
// one that sends over the multicast group identified by mcast_scope_id.
type logOnlyTransport struct{}

func (logOnlyTransport) SendRenewLease(to net.IP, msg cluster.RenewLease) error {
	log.Printf("cluster: would send RENEWLEASE to %s for xid=%x", to, msg.XID)
	return nil
}
func (logOnlyTransport) SendRenewAck(to net.IP, msg cluster.RenewAck) error {
	log.Printf("cluster: would send RENEWACK to %s for xid=%x", to, msg.XID)
	return nil
}
func (logOnlyTransport) SendRenewNak(to net.IP, msg cluster.RenewNak) error {
	log.Printf("cluster: would send RENEWNAK to %s for xid=%x", to, msg.XID)
	return nil
}

func main() {
	configPath := flag.String("config", "/etc/ddhcpd/config.json", "path to the JSON config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("ddhcpd: %v", err)
	}

	p, err := pool.New(net.ParseIP(cfg.Prefix), cfg.PrefixLen, cfg.BlockSize)
	if err != nil {
		log.Fatalf("ddhcpd: %v", err)
	}
	if cfg.NumberOfBlocks != 0 {
		// operator override of the derived block count (spec.md §6)
		p.NumBlocks = cfg.NumberOfBlocks
	}

	store := dhcpopt.NewStore()
	overrides, err := cfg.ParseOptionOverrides()
	if err != nil {
		log.Fatalf("ddhcpd: %v", err)
	}
	for _, o := range overrides {
		store.Set(o.Code, o.Payload)
	}
	store.Init(p.Prefix, p.PrefixLen, cfg.ServerIdentifier())

	src := newSingleOwnerSource(p)
	view := block.NewView(src)
	bridge := cluster.NewBridge(logOnlyTransport{})

	serverID := cfg.ServerIdentifier()
	if serverID == nil {
		id, _ := store.Get(dhcp.OptionServerIdentifier)
		serverID = net.IP(id)
	}
	router := ddhcp.New(p, view, store, bridge, serverID)
	handler := ddhcp.NewHandler(router)

	go runIntrospect(cfg, view, store, bridge)
	go runTicker(p, view, bridge)

	log.Printf("ddhcpd: serving %s/%d in %d blocks of %d", cfg.Prefix, cfg.PrefixLen, p.NumBlocks, cfg.BlockSize)
	if err := dhcp.ListenAndServe(handler); err != nil {
		log.Fatalf("ddhcpd: %v", err)
	}
}

func runIntrospect(cfg *Config, view *block.View, store *dhcpopt.Store, bridge *cluster.Bridge) {
	fe := &introspect.Frontend{View: view, Store: store, Bridge: bridge, Port: cfg.IntrospectPort, Hosts: cfg.IntrospectHost}
	fe.RunServer(true)
}

// runTicker drives the periodic tick of spec.md §5 (≤ 1 Hz): lease
// timeout sweeps across every OURS block and pending-cache expiry.
func runTicker(p *pool.Pool, view *block.View, bridge *cluster.Bridge) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for now := range ticker.C {
		p.Sweep(view, bridge, now)
	}
}

