package block

// Source is the external block-claim/heartbeat plane's handle into this
// package: it owns the authoritative ownership decisions (FREE/CLAIMING/
// OURS/CLAIMED_BY_PEER) and hands the core a live snapshot. The core
// never transitions block ownership itself (spec.md §1, §4.5).
type Source interface {
	Blocks() []*Block
}

// View is the read projection of C5: the router's only way to look up a
// block by index or enumerate the blocks it owns.
type View struct {
	src Source
}

// NewView wraps a Source.
func NewView(src Source) *View {
	return &View{src: src}
}

// Lookup returns the block at index, if the source reports one.
func (v *View) Lookup(index uint32) (*Block, bool) {
	for _, b := range v.src.Blocks() {
		if b.Index == index {
			return b, true
		}
	}
	return nil, false
}

// OursBlocks returns every block this daemon currently owns.
func (v *View) OursBlocks() []*Block {
	var out []*Block
	for _, b := range v.src.Blocks() {
		if b.State == Ours {
			out = append(out, b)
		}
	}
	return out
}

// MaterializeIfClaimed materializes a CLAIMED_BY_PEER block's lease array
// on first touch, so a peer-forwarded REQUEST can be stamped with a
// transient OFFERED lease (spec.md §4.5, §4.7 step 1). It is a no-op for
// any other block state.
func (v *View) MaterializeIfClaimed(index uint32) (*Block, bool) {
	b, ok := v.Lookup(index)
	if !ok || b.State != ClaimedByPeer {
		return b, ok
	}
	b.Materialize()
	return b, true
}

// staticSource is a fixed-in-time Source, used by tests and by daemons
// that receive their block snapshot out of band (e.g. over the cluster
// membership channel) rather than computing it live.
type staticSource struct {
	blocks []*Block
}

// NewStaticSource wraps a fixed slice of blocks as a Source.
func NewStaticSource(blocks []*Block) Source {
	return &staticSource{blocks: blocks}
}

func (s *staticSource) Blocks() []*Block {
	return s.blocks
}
