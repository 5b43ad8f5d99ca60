package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/sets/hashset"
	"golang.org/x/sync/errgroup"

	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/parsegraph/pdb"
)

func tracer() tracing.Trace { return tracing.Select("parsegraph.graph") }

// ParserConfig carries the per-build flags a committing node needs (spec
// §4.6). AllowLookaheadScanners gates the scanner OOS follow extension
// (commit step 4). NewParserConfig resolves it from gconf the way
// earley/parsetree.go resolves its own boolean switches; a ParserConfig
// built as a literal keeps whatever value it was given.
type ParserConfig struct {
	AllowLookaheadScanners bool
}

// NewParserConfig builds a ParserConfig, defaulting AllowLookaheadScanners
// to the "parsegraph.allow-lookahead-scanners" gconf switch.
func NewParserConfig() ParserConfig {
	return ParserConfig{AllowLookaheadScanners: gconf.GetBool("parsegraph.allow-lookahead-scanners")}
}

type workUnit struct {
	node   *GraphNode
	config ParserConfig
}

type rootEntry struct {
	GraphType GraphType
	Node      *GraphNode
	Config    ParserConfig
}

// sharedState is the cross-goroutine state of a ConcurrentGraphBuilder
// (spec §4.6 "Shared read-write"). Every Builder clone holds a pointer to
// the same sharedState; only a Builder's own scratch fields are private
// to the clone (spec §4.6 clone semantics).
type sharedState struct {
	mu            sync.RWMutex
	graph         map[uint64]map[uint64]*GraphNode
	rootStates    map[uint64]rootEntry
	stateNonterms map[uint64][]Item
	nodesByHash   map[uint64]*GraphNode

	queueMu sync.Mutex
	queue   []workUnit

	peeks *peekRegistry

	producedMu sync.Mutex
	produced   *hashset.Set

	symbolSetsMu sync.Mutex
	symbolSets   map[uint64]*ScannerData

	wg sync.WaitGroup
}

func newSharedState() *sharedState {
	return &sharedState{
		graph:         make(map[uint64]map[uint64]*GraphNode),
		rootStates:    make(map[uint64]rootEntry),
		stateNonterms: make(map[uint64][]Item),
		nodesByHash:   make(map[uint64]*GraphNode),
		peeks:         newPeekRegistry(),
		produced:      hashset.New(),
		symbolSets:    make(map[uint64]*ScannerData),
	}
}

// Builder is the concurrent graph builder (spec §4.6 ConcurrentGraphBuilder).
// A zero-worker Builder built by NewBuilder is itself a valid single-thread
// worker; call Clone to obtain additional per-goroutine handles for Drive.
type Builder struct {
	shared        *sharedState
	db            pdb.ParserDatabase
	defaultConfig ParserConfig

	localNext          *workUnit
	oosRoots           map[pdb.DBNonTermKey]*GraphNode
	oosClosures        map[Item]*GraphNode
	stateLookups       map[uint64]*GraphNode
	preStage           []*StagedNode
	recursivePeekError bool
}

// NewBuilder constructs a builder around db, ready to seed roots and drive.
func NewBuilder(db pdb.ParserDatabase, config ParserConfig) *Builder {
	return &Builder{
		shared:        newSharedState(),
		db:            db,
		defaultConfig: config,
		oosRoots:      make(map[pdb.DBNonTermKey]*GraphNode),
		oosClosures:   make(map[Item]*GraphNode),
		stateLookups:  make(map[uint64]*GraphNode),
	}
}

// Clone duplicates the shared handles and resets thread-local scratch
// (spec §4.6 clone semantics): the clone is a fresh worker sharing this
// builder's graph, queue, peek registry, and produced set.
func (b *Builder) Clone() *Builder {
	return &Builder{
		shared:        b.shared,
		db:            b.db,
		defaultConfig: b.defaultConfig,
		oosRoots:      make(map[pdb.DBNonTermKey]*GraphNode),
		oosClosures:   make(map[Item]*GraphNode),
		stateLookups:  make(map[uint64]*GraphNode),
	}
}

// --- public operations (spec §4.6) ---------------------------------------

// SetPeekResolveState registers a peek group, returning its Origin::Peek.
func (b *Builder) SetPeekResolveState(items []Item, isOOS bool) Origin {
	return b.shared.peeks.register(items, isOOS)
}

// InvalidateNonterms walks root states and marks every root matching one
// of nts at the given grammar version as invalid (spec §4.6, §4.8).
func (b *Builder) InvalidateNonterms(nts []pdb.DBNonTermKey, version int16) {
	match := make(map[pdb.DBNonTermKey]bool, len(nts))
	for _, nt := range nts {
		match[nt] = true
	}
	b.shared.mu.RLock()
	roots := make([]*GraphNode, 0, len(b.shared.rootStates))
	for _, e := range b.shared.rootStates {
		roots = append(roots, e.Node)
	}
	b.shared.mu.RUnlock()
	for _, n := range roots {
		if match[n.RootData.DBKey] && n.RootData.Version == version {
			n.setInvalid()
		}
	}
}

// SetNontermItems records the non-terminals closed over by a committed
// state, consumed later for IR precursor grouping (spec §4.7).
func (b *Builder) SetNontermItems(stateHash uint64, items []Item) {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	b.shared.stateNonterms[stateHash] = items
}

// DeclareRecursivePeekError sets a scoped flag the caller is expected to
// consume after the next queue-pop.
func (b *Builder) DeclareRecursivePeekError() { b.recursivePeekError = true }

// RecursivePeekError reports and does not clear the scoped flag; GetLocalWork
// and GetGlobalWork clear it on every pop.
func (b *Builder) RecursivePeekError() bool { return b.recursivePeekError }

// GetGotoPendingItems unions the kernel items of every currently staged
// node flagged include_with_goto_state, plus the expanded kernels of
// staged peek nodes (spec §4.6).
func (b *Builder) GetGotoPendingItems() []Item {
	var items []Item
	for _, s := range b.preStage {
		switch {
		case s.includeWithGotoState:
			items = append(items, s.node.Kernel...)
		case s.node.Type.IsPeek():
			for _, it := range s.node.Kernel {
				if it.Origin.IsPeek() {
					group := b.shared.peeks.get(it.Origin.PeekHandle)
					items = append(items, group.Items...)
				}
			}
		}
	}
	return items
}

// GetPeekResolveItems looks up and clones a peek group by handle.
func (b *Builder) GetPeekResolveItems(handle uint32) PeekGroup {
	return b.shared.peeks.get(handle)
}

// EnqueueStateForProcessingKernel pushes a unit of work onto this worker's
// local slot (if free and allowed) or the shared queue (spec §4.6).
func (b *Builder) EnqueueStateForProcessingKernel(node *GraphNode, config ParserConfig, allowLocal bool) {
	b.shared.wg.Add(1)
	if allowLocal && b.localNext == nil {
		b.localNext = &workUnit{node: node, config: config}
		return
	}
	b.shared.queueMu.Lock()
	b.shared.queue = append(b.shared.queue, workUnit{node: node, config: config})
	b.shared.queueMu.Unlock()
}

// GetLocalWork drains this worker's local slot, if any.
func (b *Builder) GetLocalWork() (*GraphNode, ParserConfig, bool) {
	b.recursivePeekError = false
	if b.localNext == nil {
		return nil, ParserConfig{}, false
	}
	u := *b.localNext
	b.localNext = nil
	if u.node.Invalid() {
		return nil, ParserConfig{}, false
	}
	return u.node, u.config, true
}

// GetGlobalWork pops from the shared queue.
func (b *Builder) GetGlobalWork() (*GraphNode, ParserConfig, bool) {
	b.recursivePeekError = false
	b.shared.queueMu.Lock()
	if len(b.shared.queue) == 0 {
		b.shared.queueMu.Unlock()
		return nil, ParserConfig{}, false
	}
	u := b.shared.queue[0]
	b.shared.queue = b.shared.queue[1:]
	b.shared.queueMu.Unlock()
	if u.node.Invalid() {
		return nil, ParserConfig{}, false
	}
	return u.node, u.config, true
}

// GetOOSRootState returns the memoized _OosClosure_ scaffold for nt,
// creating it on first call (spec §4.6). It is never entered into the
// shared graph.
func (b *Builder) GetOOSRootState(nt pdb.DBNonTermKey) *GraphNode {
	if n, ok := b.oosRoots[nt]; ok {
		return n
	}
	positions := b.db.NontermFollowItems(nt)
	items := make([]Item, 0, len(positions))
	for _, pos := range positions {
		it := Item{Rule: pos.Rule, Index: pos.Index, Origin: OOSClosureOrigin(), OriginState: InvalidStateId()}
		items = append(items, it.Increment())
	}
	h := fnv64(fmt.Sprintf("oos-root:%d", nt))
	node := &GraphNode{
		ID:        NewStateId(uint32(h), SubtypeExtendedClosure),
		HashID:    h,
		GraphType: GraphParser,
		Type:      oosClosureStateType(),
		Kernel:    items,
		Class:     ClassOOS,
	}
	b.oosRoots[nt] = node
	return node
}

// GetOOSClosureState returns the memoized closure scaffold for an item
// whose origin_state is itself OOS (spec §4.6); parent is resolved from
// this worker's state_lookups cache.
func (b *Builder) GetOOSClosureState(it Item) *GraphNode {
	if !it.OriginState.IsOOS() {
		panic("parsegraph: GetOOSClosureState requires an OOS origin_state")
	}
	if n, ok := b.oosClosures[it]; ok {
		return n
	}
	closed := CloseItem(b.db, it, it.OriginState)
	parent := b.stateLookups[uint64(it.OriginState.Index())]
	h := fnv64(fmt.Sprintf("oos-closure:%d:%d:%d", it.Rule, it.Index, it.OriginState.Index()))
	node := &GraphNode{
		ID:          NewStateId(uint32(h), SubtypeExtendedClosure),
		HashID:      h,
		GraphType:   GraphParser,
		Type:        oosClosureStateType(),
		Kernel:      closed,
		Predecessor: parent,
		Class:       ClassOOS,
	}
	b.oosClosures[it] = node
	return node
}

// GetOOSScannerFollow emits start items, tagged OOS_ScannerRoot(t), for
// every follow terminal reachable from terms via the predecessor's
// scanner-root symbol map (spec §4.6 step 4).
func (b *Builder) GetOOSScannerFollow(pred *GraphNode, terms []PrecedentDBTerm) []Item {
	if pred == nil || pred.ScannerRoot == nil {
		return nil
	}
	var out []Item
	for _, t := range terms {
		set, ok := pred.ScannerRoot.Symbols.Get(t)
		if !ok {
			continue
		}
		for _, ft := range set.Values() {
			info := b.db.Token(ft.Term)
			if !info.HasScanner {
				continue
			}
			for _, pos := range b.db.StartItems(info.ScannerNonterm) {
				out = append(out, Item{
					Rule:        pos.Rule,
					Index:       pos.Index,
					Origin:      OOSScannerRootOrigin(t.Term),
					OriginState: InvalidStateId(),
				})
			}
		}
	}
	return out
}

// DropUncommitted discards the worker's pre-stage list without mutating
// the shared graph.
func (b *Builder) DropUncommitted() { b.preStage = nil }

// stage appends a staged node to this worker's pre-stage list; called by
// StagedNode.Commit.
func (b *Builder) stage(s *StagedNode) { b.preStage = append(b.preStage, s) }

func collectTerminalGoalTerms(db pdb.ParserDatabase, node *GraphNode) []PrecedentDBTerm {
	seen := make(map[PrecedentDBTerm]bool)
	var out []PrecedentDBTerm
	for _, it := range node.Kernel {
		if it.Origin.Kind != OriginTerminalGoal || !db.IsComplete(it.pos()) {
			continue
		}
		t := PrecedentDBTerm{Term: it.Origin.Term, Precedence: it.Origin.Precedence}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func computeLookahead(db pdb.ParserDatabase, node *GraphNode) uint64 {
	seen := make(map[pdb.DBTermKey]bool)
	var terms []pdb.DBTermKey
	for _, it := range node.Kernel {
		for _, t := range FollowSymbols(db, it.ToComplete(db)) {
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}
	digest, err := structhash.Hash(terms, 1)
	if err != nil {
		panic("parsegraph: lookahead hash: queue has been poisoned: " + err.Error())
	}
	return fnv64(digest)
}

type kernelItemShape struct {
	Index          int
	From           StateId
	Origin         Origin
	FromGotoOrigin bool
	GotoDistance   uint32
}

func kernelShape(node *GraphNode) []kernelItemShape {
	includeGoto := node.GraphType == GraphParser
	out := make([]kernelItemShape, 0, len(node.Kernel))
	for _, it := range node.Kernel {
		s := kernelItemShape{Index: it.Index, From: it.OriginState, Origin: it.Origin}
		if includeGoto {
			s.FromGotoOrigin = it.FromGotoOrigin
			s.GotoDistance = it.GotoDistance
		}
		out = append(out, s)
	}
	return out
}

type stateHashShape struct {
	Root          RootData
	Ty            interface{}
	Sym           PrecedentSymbol
	Kernel        []kernelItemShape
	FollowHash    uint64
	HasFollowHash bool
	ReduceItem    int
	HasReduceItem bool
	Lookahead     uint64
}

// hashState computes hash_id per spec §3 Invariant 2.
func hashState(node *GraphNode, lookahead uint64) uint64 {
	shape := stateHashShape{
		Root:   node.RootData,
		Ty:     node.Type.hashWord(),
		Sym:    node.Sym,
		Kernel: kernelShape(node),
	}
	if node.FollowHash != nil {
		shape.FollowHash = *node.FollowHash
		shape.HasFollowHash = true
	}
	if node.ReduceItem != nil {
		shape.ReduceItem = *node.ReduceItem
		shape.HasReduceItem = true
	}
	shape.Lookahead = lookahead
	digest, err := structhash.Hash(shape, 1)
	if err != nil {
		panic("parsegraph: state hash: queue has been poisoned: " + err.Error())
	}
	return fnv64(digest)
}

func (b *Builder) registerNode(node *GraphNode) (*GraphNode, bool) {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	if existing, ok := b.shared.nodesByHash[node.HashID]; ok {
		return existing, false
	}
	b.shared.nodesByHash[node.HashID] = node
	return node, true
}

func (b *Builder) registerScannerData(sd *ScannerData) (*ScannerData, bool) {
	b.shared.symbolSetsMu.Lock()
	defer b.shared.symbolSetsMu.Unlock()
	if existing, ok := b.shared.symbolSets[sd.Hash]; ok {
		return existing, false
	}
	b.shared.symbolSets[sd.Hash] = sd
	return sd, true
}

// Commit drains this worker's pre-stage list into the shared graph (spec
// §4.6 commit()). Returns the count of nodes actually queued, or
// ^uint32(0) if pred's root was observed invalidated.
func (b *Builder) Commit(incrementGoto bool, pred *GraphNode, config ParserConfig, allowLocal bool) uint32 {
	if pred != nil && pred.Invalid() {
		b.preStage = nil
		return ^uint32(0)
	}

	work := b.preStage
	b.preStage = nil

	buckets := make(map[uint64][]*GraphNode)
	var rootOutputs []*GraphNode

	for i := 0; i < len(work); i++ {
		staged := work[i]
		node := staged.node

		if incrementGoto && staged.includeWithGotoState && !node.Type.IsPeek() {
			for k, it := range node.Kernel {
				if pred != nil && it.OriginState.Equal(pred.ID) {
					node.Kernel[k] = it.AsGotoOrigin()
				} else {
					node.Kernel[k] = it.IncrementGoto()
				}
			}
		}

		if node.GraphType == GraphScanner && config.AllowLookaheadScanners && pred != nil {
			terms := collectTerminalGoalTerms(b.db, node)
			if len(terms) > 0 {
				node.Kernel = append(node.Kernel, b.GetOOSScannerFollow(pred, terms)...)
			}
		}

		if staged.finalizer != nil {
			staged.finalizer(node, b, incrementGoto)
		}

		if !node.RootData.IsRoot {
			if pred == nil {
				panic("parsegraph: committing a non-root staged node without a predecessor")
			}
			node.RootData = pred.RootData
			node.ScannerRoot = pred.ScannerRoot
			node.invalid = pred.invalid
		} else {
			node.invalid = newInvalidFlag()
		}
		node.Predecessor = pred
		if staged.enqueuedLeaf {
			node.Class |= ClassEnqueuedLeaf
		}

		lookahead := uint64(0)
		if !node.RootData.IsRoot {
			lookahead = computeLookahead(b.db, node)
		}
		node.HashID = hashState(node, lookahead)
		subtype := SubtypeRegular
		if node.RootData.IsRoot {
			subtype = SubtypeRoot
		}
		node.ID = NewStateId(uint32(node.HashID), subtype)
		for k, it := range node.Kernel {
			if it.OriginState.IsInvalid() {
				it.OriginState = node.ID
				node.Kernel[k] = it
			}
		}

		if node.GraphType != GraphScanner {
			if sd := GetStateSymbols(b.db, node); sd != nil {
				canon, isNew := b.registerScannerData(sd)
				node.SymbolSet = canon
				if isNew {
					rootNode := &GraphNode{
						GraphType:   GraphScanner,
						Type:        Start(),
						ScannerRoot: canon,
						SymbolSet:   canon,
						RootData:    RootData{IsRoot: true},
						invalid:     newInvalidFlag(),
					}
					rootNode.HashID = canon.Hash
					rootNode.ID = NewStateId(uint32(canon.Hash), SubtypeRoot)
					work = append(work, &StagedNode{node: rootNode})
				}
			}
		}

		if staged.pncConstructor != nil {
			work = append(work, staged.pncConstructor(node, b, staged.pncData)...)
		}

		registered, isNew := b.registerNode(node)
		b.stateLookups[uint64(registered.ID.Index())] = registered

		if node.Type.Kind == StStart {
			b.shared.mu.Lock()
			b.shared.rootStates[registered.HashID] = rootEntry{GraphType: registered.GraphType, Node: registered, Config: config}
			b.shared.mu.Unlock()
			if isNew {
				rootOutputs = append(rootOutputs, registered)
			}
		} else if pred != nil {
			buckets[pred.HashID] = append(buckets[pred.HashID], registered)
		}
	}

	var outputs []*GraphNode
	b.shared.mu.Lock()
	for predHash, children := range buckets {
		set, ok := b.shared.graph[predHash]
		if !ok {
			set = make(map[uint64]*GraphNode)
			b.shared.graph[predHash] = set
		}
		for _, c := range children {
			if _, already := set[c.HashID]; !already {
				set[c.HashID] = c
				outputs = append(outputs, c)
			}
		}
	}
	b.shared.mu.Unlock()
	outputs = append(outputs, rootOutputs...)

	var queued uint32
	b.shared.producedMu.Lock()
	for _, n := range outputs {
		if b.shared.produced.Contains(n.HashID) {
			continue
		}
		b.shared.produced.Add(n.HashID)
		if !n.IsLeaf || n.Class&ClassEnqueuedLeaf != 0 {
			queued++
			b.EnqueueStateForProcessingKernel(n, config, allowLocal)
		}
	}
	b.shared.producedMu.Unlock()

	return queued
}

// --- driving the worker pool ---------------------------------------------

// SeedRoots stages and commits one Start root per exported non-terminal
// (spec §2 data flow: "builder seeds root states per exported
// non-terminal"). Drive calls it itself; call it directly only when
// committing and processing states without Drive.
func (b *Builder) SeedRoots() {
	for _, nt := range b.db.ExportedNonTerms() {
		positions := b.db.StartItems(nt)
		items := make([]Item, 0, len(positions))
		for _, pos := range positions {
			items = append(items, Item{Rule: pos.Rule, Index: pos.Index, Origin: NonTermGoal(nt), OriginState: InvalidStateId()})
		}
		NewStagedNode().
			GraphTy(GraphParser).
			Ty(Start()).
			KernelItems(items...).
			MakeRoot(b.db.NontermName(nt), nt, 1).
			Commit(b)
	}
	n := b.Commit(false, nil, b.defaultConfig, false)
	tracer().Debugf("seeded %d root state(s)", n)
}

// processState expands one popped node into its successor transitions:
// group the item closure by precedent symbol, stage a Shift or
// NonTerminalShiftLoop successor per group, and a Reduce leaf per
// completed item — the same shape as the teacher's own CFSM transition
// construction (lr/tables.go), generalized to carry lineage and to fold
// scanner-graph synthesis and goto bookkeeping into the commit pipeline.
func (b *Builder) processState(node *GraphNode, config ParserConfig) {
	closed := CloseItems(b.db, node.Kernel, node.ID)

	groups := NewOrderedMap[PrecedentSymbol, []Item]()
	var completed []Item
	for _, it := range closed {
		if b.db.IsComplete(it.pos()) {
			completed = append(completed, it)
			continue
		}
		if t, ok := b.db.PrecedentTermAt(it.pos()); ok {
			sym := PrecedentSymbol{IsTerminal: true, Term: t}
			cur, _ := groups.Get(sym)
			groups.Set(sym, append(cur, it))
			continue
		}
		if nt, ok := b.db.NontermAt(it.pos()); ok {
			sym := PrecedentSymbol{IsTerminal: false, NonTerm: nt}
			cur, _ := groups.Get(sym)
			groups.Set(sym, append(cur, it))
		}
	}

	for _, sym := range groups.Keys() {
		items, _ := groups.Get(sym)
		shifted := make([]Item, 0, len(items))
		for _, it := range items {
			shifted = append(shifted, it.Increment())
		}
		ty := Shift()
		if !sym.IsTerminal {
			ty = NonTerminalShiftLoop()
		}
		NewStagedNode().
			Parent(node).
			GraphTy(node.GraphType).
			Ty(ty).
			Sym(sym).
			KernelItems(shifted...).
			IncludeWithGotoState(true).
			Commit(b)
	}

	if len(closed) == 0 || (len(completed) == len(closed) && len(closed) == 1) {
		NewStagedNode().
			Parent(node).
			GraphTy(node.GraphType).
			Ty(NonTermCompleteOOS()).
			MakeEnqueuedLeaf().
			Commit(b)
	}

	for _, it := range completed {
		info := b.db.Rule(it.Rule)
		idx := it.Index
		NewStagedNode().
			Parent(node).
			GraphTy(node.GraphType).
			Ty(Reduce(it.Rule, info.RHSLen)).
			SetReduceItem(idx).
			MakeEnqueuedLeaf().
			Commit(b)
	}

	b.Commit(false, node, config, true)
}

// Drive seeds the root states and runs workers goroutines pulling from the
// shared queue until it drains, using golang.org/x/sync/errgroup for
// bounded fan-out with first-error propagation (spec §5).
func (b *Builder) Drive(ctx context.Context, workers int) error {
	b.SeedRoots()

	done := make(chan struct{})
	go func() {
		b.shared.wg.Wait()
		close(done)
	}()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		w := b.Clone()
		g.Go(func() error { return w.run(ctx, done) })
	}
	return g.Wait()
}

func (b *Builder) run(ctx context.Context, done <-chan struct{}) error {
	for {
		node, config, ok := b.GetLocalWork()
		if !ok {
			node, config, ok = b.GetGlobalWork()
		}
		if !ok {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
			continue
		}
		b.processState(node, config)
		b.shared.wg.Done()
	}
}
