package graph

import (
	"sync/atomic"

	"github.com/npillmayer/parsegraph/pdb"
)

// ParserClassification is an open set of bitflags a finalizer or PNC stage
// can OR onto a node (spec §4.5 "to_classification(flags) (OR-fold)"). The
// builder itself only sets the flags below; downstream stages may define
// and OR in their own bits into the same field.
type ParserClassification uint32

const (
	ClassAccepting ParserClassification = 1 << iota
	ClassHasScanner
	ClassForked
	ClassGotoIncremented
	ClassOOS
	// ClassEnqueuedLeaf is set internally by commit() for staged nodes
	// built via StagedNode.MakeEnqueuedLeaf — a leaf that still
	// participates in work-queue processing (spec §4.5 enqueued_leaf).
	ClassEnqueuedLeaf
)

// RootData is the root-identifying metadata copied down a root's whole
// descendant tree at commit time (spec §3, §4.6 step 6).
type RootData struct {
	DBKey    pdb.DBNonTermKey
	IsRoot   bool
	RootName string
	Version  int16
}

// invalidFlag is the atomic, monotonic (false→true only) invalidation cell
// shared by reference across every node descending from one root (spec §3
// invariant 5, §4.8).
type invalidFlag struct {
	v int32
}

func newInvalidFlag() *invalidFlag { return &invalidFlag{} }

func (f *invalidFlag) isSet() bool { return atomic.LoadInt32(&f.v) != 0 }
func (f *invalidFlag) set()        { atomic.StoreInt32(&f.v, 1) }

// ScannerData is the terminal-follow structure a parser state needs to
// request its next token, shared by handle across identical parser states
// (spec §3 ScannerData, §4.3). Symbols maps a triggering PrecedentDBTerm to
// the ordered set of PrecedentDBTerms that may legally follow it — the
// follow side carries precedence too (spec §3: "ordered map (PrecedentDBTerm
// → ordered set of follow-PrecedentDBTerm)"), since precedence is a property
// of the occurrence a terminal is recognized at, not a fixed per-token value
// (original_source/.../build_graph/graph/mod.rs:310-349's
// get_follow_symbol_data builds follow terms via precedent_db_key_at_sym
// just like the trigger side, never by a bare token-key lookup).
type ScannerData struct {
	Hash    uint64
	Symbols *OrderedMap[PrecedentDBTerm, *OrderedSet[PrecedentDBTerm]]
	Skipped *OrderedSet[pdb.DBTermKey]
}

// GraphNode is the read-only, committed form of a parser or scanner state
// (spec §3 GraphNode). Once committed, only its invalidation flag ever
// changes.
type GraphNode struct {
	ID          StateId
	HashID      uint64
	GraphType   GraphType
	Type        StateType
	Kernel      []Item
	Sym         PrecedentSymbol
	Predecessor *GraphNode
	ReduceItem  *int
	FollowHash  *uint64
	SymbolSet   *ScannerData
	ScannerRoot *ScannerData
	IsLeaf      bool
	IsGoto      bool
	Class       ParserClassification
	RootData    RootData

	invalid *invalidFlag
}

// Invalid reports whether this node's root has been invalidated (spec §3
// invariant 5, §4.8). A nil invalid flag (never wired up, e.g. a bare
// OOS scaffold node) is never invalid.
func (n *GraphNode) Invalid() bool {
	if n == nil || n.invalid == nil {
		return false
	}
	return n.invalid.isSet()
}

// setInvalid marks this node's root (and hence every descendant sharing
// its invalid flag) invalid. Monotonic: never clears back to false.
func (n *GraphNode) setInvalid() {
	if n.invalid != nil {
		n.invalid.set()
	}
}

// Dump traces a node's identity and kernel at Debug level, mirroring
// CFSMState.Dump() in the teacher's lr/tables.go.
func (n *GraphNode) Dump() {
	tracer().Debugf("--- state %08x (%s) -----------", n.HashID, n.GraphType)
	tracer().Debugf("ty=%v sym=%v leaf=%v goto=%v class=%d", n.Type, n.Sym, n.IsLeaf, n.IsGoto, n.Class)
	for _, it := range n.Kernel {
		tracer().Debugf("  item rule=%d dot=%d origin=%v", it.Rule, it.Index, it.Origin)
	}
	tracer().Debugf("-------------------------")
}
