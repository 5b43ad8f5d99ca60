package graph

import (
	"sync"

	"github.com/cnf/structhash"
)

// PeekGroup is a deduplicated set of items forming a peek frontier (spec
// §3, §4.2). Once registered it is immutable and lives for the builder's
// lifetime.
type PeekGroup struct {
	Items []Item
	IsOOS bool
}

// peekGroupHashShape is the structural shape structhash.Hash sees: PeekGroup.Items
// is kept as a slice (order matters for the hash, matching how gorgo's
// earley.go hashes item structures with cnf/structhash in lr/earley/earley.go).
type peekGroupHashShape struct {
	Items []Item
	IsOOS bool
}

// peekRegistry implements the peek group registry (spec §4.2): a
// write-locked map from handle to PeekGroup, deduplicating identical
// groups within one build session.
type peekRegistry struct {
	mu    sync.RWMutex
	byID  map[uint32]*PeekGroup
	order []uint32
}

func newPeekRegistry() *peekRegistry {
	return &peekRegistry{byID: make(map[uint32]*PeekGroup)}
}

// register hashes items+isOOS; if the resulting PeekGroup is new, it is
// inserted under the derived handle. Either way, Origin::Peek(handle) is
// returned — idempotent on equal inputs (spec Testable Properties,
// round-trip/idempotence).
func (r *peekRegistry) register(items []Item, isOOS bool) Origin {
	cp := make([]Item, len(items))
	copy(cp, items)
	shape := peekGroupHashShape{Items: cp, IsOOS: isOOS}
	hash, err := structhash.Hash(shape, 1)
	if err != nil {
		panic("peek registry: queue has been poisoned: " + err.Error())
	}
	handle := fnv32(hash)

	r.mu.RLock()
	if _, ok := r.byID[handle]; ok {
		r.mu.RUnlock()
		return PeekOrigin(handle)
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[handle]; !ok {
		r.byID[handle] = &PeekGroup{Items: cp, IsOOS: isOOS}
		r.order = append(r.order, handle)
	}
	return PeekOrigin(handle)
}

// get clones the stored group for handle. Per spec §4.2 this panics on a
// missing handle — that can only happen from builder-internal corruption,
// since every Origin::Peek value in circulation was produced by register.
func (r *peekRegistry) get(handle uint32) PeekGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[handle]
	if !ok {
		panic("peek registry: no PeekGroup registered for handle, builder corrupted")
	}
	cp := make([]Item, len(g.Items))
	copy(cp, g.Items)
	return PeekGroup{Items: cp, IsOOS: g.IsOOS}
}

// Dump traces a peek group's members at Debug level.
func (g PeekGroup) Dump() {
	tracer().Debugf("--- peek group (oos=%v, %d item(s)) ---", g.IsOOS, len(g.Items))
	for _, it := range g.Items {
		tracer().Debugf("  item rule=%d dot=%d", it.Rule, it.Index)
	}
	tracer().Debugf("---------------------------------------")
}
