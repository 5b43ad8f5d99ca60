package graph

import "github.com/npillmayer/parsegraph/pdb"

// ReseedRoot stages and commits a fresh Start root for nt at the given
// version, the re-seeding half of invalidation (spec §4.8: "Consumers
// must re-seed invalidated roots with a new version if they intend to
// regenerate"). The old root, if any, is left in place — still reachable
// by hash_id, but its subgraph is excluded from future IR precursor
// iteration once its invalid flag is observed set.
func (b *Builder) ReseedRoot(nt pdb.DBNonTermKey, version int16) {
	positions := b.db.StartItems(nt)
	items := make([]Item, 0, len(positions))
	for _, pos := range positions {
		items = append(items, Item{Rule: pos.Rule, Index: pos.Index, Origin: NonTermGoal(nt), OriginState: InvalidStateId()})
	}
	NewStagedNode().
		GraphTy(GraphParser).
		Ty(Start()).
		KernelItems(items...).
		MakeRoot(b.db.NontermName(nt), nt, version).
		Commit(b)
	b.Commit(false, nil, b.defaultConfig, false)
}

// RootStates returns a snapshot of every currently known root state,
// keyed by hash_id (spec §4.8 root registry).
func (b *Builder) RootStates() map[uint64]RootState {
	b.shared.mu.RLock()
	defer b.shared.mu.RUnlock()
	out := make(map[uint64]RootState, len(b.shared.rootStates))
	for k, v := range b.shared.rootStates {
		out[k] = RootState{GraphType: v.GraphType, Node: v.Node, Config: v.Config}
	}
	return out
}

// RootsFor returns every root state registered for non-terminal nt,
// across all versions ever seeded.
func (b *Builder) RootsFor(nt pdb.DBNonTermKey) []RootState {
	var out []RootState
	for _, rs := range b.RootStates() {
		if rs.Node.RootData.DBKey == nt {
			out = append(out, rs)
		}
	}
	return out
}

// RootByNonterm looks up the frozen, non-invalidated root for nt in a
// Graphs snapshot, if exactly the latest version is wanted by callers
// that only ever keep one live version per non-terminal.
func (g *Graphs) RootByNonterm(nt pdb.DBNonTermKey) (*GraphNode, bool) {
	var best *GraphNode
	for _, rs := range g.RootStates {
		if rs.Node.RootData.DBKey != nt || rs.Node.Invalid() {
			continue
		}
		if best == nil || rs.Node.RootData.Version > best.RootData.Version {
			best = rs.Node
		}
	}
	return best, best != nil
}
