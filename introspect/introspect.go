// Package introspect exposes the read-only control-socket introspection
// surface spec.md §1 lists as an external, out-of-core concern: a dump of
// block ownership, lease occupancy, and pending peer-forwarded requests.
// Structured directly after the teacher's REST frontend, trimmed to
// GET-only endpoints — there is no subnet CRUD and no tenancy in this
// domain, so neither the route table nor the capability-map middleware
// the teacher used for them carries over (see DESIGN.md).
package introspect

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/digitalrebar/go-common/cert"

	"github.com/rubo77/ddhcpd/block"
	"github.com/rubo77/ddhcpd/cluster"
	"github.com/rubo77/ddhcpd/dhcpopt"
)

// blockSummary is the wire shape returned by GET /blocks.
type blockSummary struct {
	Index     uint32 `json:"index"`
	State     string `json:"state"`
	Owner     string `json:"owner,omitempty"`
	Subnet    string `json:"subnet,omitempty"`
	SubnetLen uint32 `json:"subnet_len,omitempty"`
	NumFree   uint32 `json:"num_free,omitempty"`
}

// Frontend is the introspection REST server, mirroring the shape of the
// teacher's Frontend but holding a live view of daemon state rather than
// an owned, mutable DataTracker.
type Frontend struct {
	View   *block.View
	Store  *dhcpopt.Store
	Bridge *cluster.Bridge
	Port   int
	Hosts  []string
}

// GetBlocks lists every block the view currently reports.
func (fe *Frontend) GetBlocks(w rest.ResponseWriter, r *rest.Request) {
	var out []blockSummary
	for _, b := range fe.allBlocks() {
		s := blockSummary{Index: b.Index, State: b.State.String()}
		if b.OwnerAddress != nil {
			s.Owner = b.OwnerAddress.String()
		}
		if b.Subnet != nil {
			s.Subnet = b.Subnet.String()
			s.SubnetLen = b.SubnetLen
		}
		if b.Leases != nil {
			s.NumFree = b.Leases.NumFree()
		}
		out = append(out, s)
	}
	w.WriteJson(out)
}

// GetBlock returns one block's detail, 404 if unknown.
func (fe *Frontend) GetBlock(w rest.ResponseWriter, r *rest.Request) {
	idx, err := strconv.ParseUint(r.PathParam("index"), 10, 32)
	if err != nil {
		rest.Error(w, "bad index", http.StatusBadRequest)
		return
	}
	b, ok := fe.View.Lookup(uint32(idx))
	if !ok {
		rest.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s := blockSummary{Index: b.Index, State: b.State.String()}
	if b.Subnet != nil {
		s.Subnet = b.Subnet.String()
		s.SubnetLen = b.SubnetLen
	}
	if b.Leases != nil {
		s.NumFree = b.Leases.NumFree()
	}
	w.WriteJson(s)
}

// GetPending reports how many client requests await a peer RENEWACK.
func (fe *Frontend) GetPending(w rest.ResponseWriter, r *rest.Request) {
	w.WriteJson(map[string]int{"pending": fe.Bridge.PendingCount()})
}

// GetOptions dumps the option store's current defaults as text, reusing
// dhcpopt.Store.WriteDebug (the Go analogue of dhcp_options_show).
func (fe *Frontend) GetOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fe.Store.WriteDebug(w)
}

func (fe *Frontend) allBlocks() []*block.Block {
	var out []*block.Block
	for i := uint32(0); ; i++ {
		b, ok := fe.View.Lookup(i)
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out
}

// RunServer wires the introspection REST API and, when blocking, serves
// it over TLS the same way the teacher's RunServer does.
func (fe *Frontend) RunServer(blocking bool) http.Handler {
	api := rest.NewApi()
	api.Use(rest.DefaultDevStack...)
	router, err := rest.MakeRouter(
		rest.Get("/blocks", fe.GetBlocks),
		rest.Get("/blocks/#index", fe.GetBlock),
		rest.Get("/pending", fe.GetPending),
	)
	if err != nil {
		log.Fatal(err)
	}
	api.SetApp(router)

	mux := http.NewServeMux()
	mux.Handle("/", api.MakeHandler())
	mux.HandleFunc("/options", fe.GetOptions)

	if !blocking {
		return mux
	}

	connStr := fmt.Sprintf(":%d", fe.Port)
	log.Println("Introspection API listening on", connStr)
	hosts := fe.Hosts
	if len(hosts) == 0 {
		hosts = []string{"localhost"}
	}
	log.Fatal(cert.StartTLSServer(connStr, "ddhcpd-introspect", hosts, "internal", "internal", mux))
	return mux
}
