package graph

import "github.com/npillmayer/parsegraph/pdb"

// PNCConstructor produces additional staged nodes once node has been
// finalized and hashed — used for goto chains and complete-non-terminal
// fanout (spec §4.5 pnc_constructor).
type PNCConstructor func(node *GraphNode, b *Builder, data interface{}) []*StagedNode

// Finalizer is the last-chance mutation hook before a staged node is
// hashed (spec §4.5 finalizer). It may rewrite node.Kernel, set
// node.ReduceItem, or OR further flags into node.Class.
type Finalizer func(node *GraphNode, b *Builder, incrementingGoto bool)

// StagedNode is the mutable, pre-commit form of a GraphNode (spec §4.5,
// §3 lifecycle: "created by component callers; mutated through
// builder-style setters; consumed by commit()"). Every setter returns the
// receiver so callers can chain, in the same fluent style as
// pdb.GrammarBuilder.
type StagedNode struct {
	node *GraphNode

	includeWithGotoState bool
	enqueuedLeaf         bool

	pncConstructor PNCConstructor
	pncData        interface{}
	finalizer      Finalizer

	predecessor *GraphNode
}

// NewStagedNode starts a staged node in its zero GraphNode state.
func NewStagedNode() *StagedNode {
	return &StagedNode{node: &GraphNode{}}
}

// SetReduceItem records the kernel index of the item this state reduces
// by, if any.
func (s *StagedNode) SetReduceItem(index int) *StagedNode {
	s.node.ReduceItem = &index
	return s
}

// IncludeWithGotoState marks this node for goto-distance rewriting at
// commit time when the builder is committing with increment_goto=true
// (spec §4.5, §4.6 step 3).
func (s *StagedNode) IncludeWithGotoState(include bool) *StagedNode {
	s.includeWithGotoState = include
	return s
}

// ToClassification OR-folds flags into the node's classification.
func (s *StagedNode) ToClassification(flags ParserClassification) *StagedNode {
	s.node.Class |= flags
	return s
}

// AddScannerRoot attaches scanner-root scanner data to the node.
func (s *StagedNode) AddScannerRoot(data *ScannerData) *StagedNode {
	s.node.ScannerRoot = data
	return s
}

// AddKernelItems appends items to the node's kernel.
func (s *StagedNode) AddKernelItems(items ...Item) *StagedNode {
	s.node.Kernel = append(s.node.Kernel, items...)
	return s
}

// KernelItems replaces the node's kernel wholesale.
func (s *StagedNode) KernelItems(items ...Item) *StagedNode {
	s.node.Kernel = append([]Item(nil), items...)
	return s
}

// SetFollowHash records the precomputed follow hash used by hash_id
// (spec §3 Invariant 2).
func (s *StagedNode) SetFollowHash(h uint64) *StagedNode {
	s.node.FollowHash = &h
	return s
}

// Parent wires the committing predecessor and propagates its graph type
// (spec §4.5 "parent(shared) (propagates graph_type)").
func (s *StagedNode) Parent(pred *GraphNode) *StagedNode {
	s.predecessor = pred
	if pred != nil {
		s.node.GraphType = pred.GraphType
	}
	return s
}

// Sym records the symbol that led to this node via shift or goto.
func (s *StagedNode) Sym(sym PrecedentSymbol) *StagedNode {
	s.node.Sym = sym
	return s
}

// MakeLeaf marks the node as a leaf: it does not get re-enqueued for
// further expansion once committed.
func (s *StagedNode) MakeLeaf() *StagedNode {
	s.node.IsLeaf = true
	return s
}

// MakeEnqueuedLeaf marks the node as a leaf that nonetheless participates
// in work-queue processing (spec §4.5 enqueued_leaf — post-reduce
// expansions).
func (s *StagedNode) MakeEnqueuedLeaf() *StagedNode {
	s.node.IsLeaf = true
	s.enqueuedLeaf = true
	return s
}

// MakeRoot marks this node as a root state for non-terminal nt, under the
// given display name and grammar version (spec §4.8).
func (s *StagedNode) MakeRoot(name string, nt pdb.DBNonTermKey, version int16) *StagedNode {
	s.node.RootData = RootData{DBKey: nt, IsRoot: true, RootName: name, Version: version}
	return s
}

// GraphTy sets the node's graph type explicitly (parser vs scanner),
// overriding whatever Parent propagated.
func (s *StagedNode) GraphTy(t GraphType) *StagedNode {
	s.node.GraphType = t
	return s
}

// Ty sets the node's operational state type.
func (s *StagedNode) Ty(t StateType) *StagedNode {
	s.node.Type = t
	return s
}

// PNC installs a post-node-construction callback and its opaque data,
// invoked after this node is finalized and hashed, before it is
// registered in the shared graph (spec §4.6 step 9).
func (s *StagedNode) PNC(constructor PNCConstructor, data interface{}) *StagedNode {
	s.pncConstructor = constructor
	s.pncData = data
	return s
}

// SetFinalizer installs the last-chance mutation hook run at commit step 5.
func (s *StagedNode) SetFinalizer(f Finalizer) *StagedNode {
	s.finalizer = f
	return s
}

// Commit hands the staged node to the builder's pre-stage list. No graph
// mutation happens until the builder's own Commit drains it (spec §4.5
// "commit enqueues onto a per-builder pre_stage list").
func (s *StagedNode) Commit(b *Builder) {
	b.stage(s)
}
