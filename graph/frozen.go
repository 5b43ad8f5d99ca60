package graph

import (
	"fmt"
	"io"
	"sort"

	"golang.org/x/exp/maps"
)

// RootState is the frozen counterpart of a builder root-state entry.
type RootState struct {
	GraphType GraphType
	Node      *GraphNode
	Config    ParserConfig
}

// Graphs is the read-only snapshot taken once the builder's work queue
// has drained (spec §4.7): root states, the successor relation, and the
// per-state non-terminal sets recorded via SetNontermItems.
type Graphs struct {
	RootStates    map[uint64]RootState
	Successors    map[uint64]map[uint64]*GraphNode
	StateNonterms map[uint64][]Item
	Nodes         map[uint64]*GraphNode
}

// Freeze snapshots the builder's shared state. Callers must ensure the
// queue has actually drained (e.g. by waiting on Drive's return) before
// calling it — Freeze itself does not check for outstanding work.
func (b *Builder) Freeze() *Graphs {
	b.shared.mu.RLock()
	defer b.shared.mu.RUnlock()

	roots := make(map[uint64]RootState, len(b.shared.rootStates))
	for k, v := range b.shared.rootStates {
		roots[k] = RootState{GraphType: v.GraphType, Node: v.Node, Config: v.Config}
	}
	successors := make(map[uint64]map[uint64]*GraphNode, len(b.shared.graph))
	for k, v := range b.shared.graph {
		children := make(map[uint64]*GraphNode, len(v))
		for ck, cv := range v {
			children[ck] = cv
		}
		successors[k] = children
	}
	nonterms := make(map[uint64][]Item, len(b.shared.stateNonterms))
	for k, v := range b.shared.stateNonterms {
		nonterms[k] = v
	}
	nodes := make(map[uint64]*GraphNode, len(b.shared.nodesByHash))
	for k, v := range b.shared.nodesByHash {
		nodes[k] = v
	}
	return &Graphs{RootStates: roots, Successors: successors, StateNonterms: nonterms, Nodes: nodes}
}

// IRPrecursorGroup is one unit of the IR precursor stream handed to the
// codegen collaborator (spec §4.7).
type IRPrecursorGroup struct {
	Node         *GraphNode
	Successors   map[uint64]*GraphNode
	NonTerminals []Item
	RootName     string
	HasRootName  bool
}

// IRPrecursorData is the ordered-by-hash_id collection CreateIRPrecursors
// produces; GraphIterator walks it in key order.
type IRPrecursorData struct {
	order  []uint64
	groups map[uint64]*IRPrecursorGroup
}

// CreateIRPrecursors builds the IR precursor stream: one group per parent
// with at least one successor, skipping parents whose root has since been
// invalidated (spec §4.7, §4.8). Iteration order is the sorted hash_id
// key order, stable across identical inputs.
func (g *Graphs) CreateIRPrecursors() *IRPrecursorData {
	keys := maps.Keys(g.Successors)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	data := &IRPrecursorData{groups: make(map[uint64]*IRPrecursorGroup, len(keys))}
	for _, hash := range keys {
		parent, ok := g.Nodes[hash]
		if !ok || parent.Invalid() {
			continue
		}
		grp := &IRPrecursorGroup{
			Node:         parent,
			Successors:   g.Successors[hash],
			NonTerminals: g.StateNonterms[hash],
		}
		if parent.RootData.IsRoot {
			grp.RootName, grp.HasRootName = parent.RootData.RootName, true
		}
		data.order = append(data.order, hash)
		data.groups[hash] = grp
	}
	return data
}

// Len reports the number of groups in the precursor stream.
func (d *IRPrecursorData) Len() int { return len(d.order) }

// Iterator returns a fresh, independent GraphIterator over d.
func (d *IRPrecursorData) Iterator() *GraphIterator {
	return &GraphIterator{data: d}
}

// GraphIterator walks an IRPrecursorData in stable key order.
type GraphIterator struct {
	data *IRPrecursorData
	pos  int
}

// Next returns the next group, or (nil, false) once exhausted.
func (it *GraphIterator) Next() (*IRPrecursorGroup, bool) {
	if it.pos >= len(it.data.order) {
		return nil, false
	}
	grp := it.data.groups[it.data.order[it.pos]]
	it.pos++
	return grp, true
}

// --- debug/introspection helpers (not in the distilled spec; see
// SPEC_FULL.md "Supplemented Features", grounded on lr/tables.go's
// CFSM2GraphViz and GotoTableAsHTML) ---------------------------------

// ToGraphviz writes a Graphviz .dot rendering of the successor relation,
// the graph-package analogue of gorgo's CFSM2GraphViz.
func (g *Graphs) ToGraphviz(w io.Writer) error {
	if _, err := io.WriteString(w, "digraph parsegraph {\nnode [shape=Mrecord, fontname=Helvetica, fontsize=10];\n"); err != nil {
		return err
	}
	keys := maps.Keys(g.Successors)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, parentHash := range keys {
		children := maps.Keys(g.Successors[parentHash])
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
		for _, childHash := range children {
			child := g.Successors[parentHash][childHash]
			if _, err := fmt.Fprintf(w, "s%016x -> s%016x [label=\"%v\"]\n", parentHash, childHash, child.Type); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

// DumpSymbolSets writes, per distinct ScannerData hash, the list of state
// hashes sharing it — a way to verify scanner-data sharing by eye, the
// graph-package analogue of gorgo's GotoTableAsHTML/ActionTableAsHTML.
func (g *Graphs) DumpSymbolSets(w io.Writer) error {
	groups := NewOrderedMap[uint64, []uint64]()
	keys := maps.Keys(g.Nodes)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, h := range keys {
		n := g.Nodes[h]
		if n.SymbolSet == nil {
			continue
		}
		cur, _ := groups.Get(n.SymbolSet.Hash)
		groups.Set(n.SymbolSet.Hash, append(cur, h))
	}
	for _, sh := range groups.Keys() {
		members, _ := groups.Get(sh)
		if _, err := fmt.Fprintf(w, "scanner-data %016x shared by %d state(s): %v\n", sh, len(members), members); err != nil {
			return err
		}
	}
	return nil
}
