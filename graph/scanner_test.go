package graph

import (
	"testing"

	"github.com/npillmayer/parsegraph/pdb"
)

func TestGetStateSymbolsTrivialShift(t *testing.T) {
	g, s := trivialDB(t)
	start := g.StartItems(s)[0]
	node := &GraphNode{
		GraphType: GraphParser,
		Kernel:    []Item{{Rule: start.Rule, Index: start.Index}},
	}
	sd := GetStateSymbols(g, node)
	if sd == nil {
		t.Fatalf("expected scanner data for a kernel with a terminal at dot")
	}
	if sd.Symbols.Len() != 1 {
		t.Fatalf("expected exactly 1 triggering terminal, got %d", sd.Symbols.Len())
	}
}

func TestGetStateSymbolsNilWhenComplete(t *testing.T) {
	g, s := trivialDB(t)
	start := g.StartItems(s)[0]
	node := &GraphNode{
		GraphType: GraphParser,
		Kernel:    []Item{{Rule: start.Rule, Index: start.Index + 1}},
	}
	if sd := GetStateSymbols(g, node); sd != nil {
		t.Errorf("expected nil scanner data for a fully-reduced, unreferenced kernel, got %v", sd)
	}
}

func TestFinalizeScannerDataHashIsDeterministic(t *testing.T) {
	symbols := NewOrderedMap[PrecedentDBTerm, *OrderedSet[PrecedentDBTerm]]()
	set := NewOrderedSet[PrecedentDBTerm]()
	set.Add(PrecedentDBTerm{Term: pdb.DBTermKey(1), Precedence: 2})
	symbols.Set(PrecedentDBTerm{Term: 0, Precedence: 1}, set)
	skipped := NewOrderedSet[pdb.DBTermKey]()

	a := finalizeScannerData(symbols, skipped)
	b := finalizeScannerData(symbols, skipped)
	if a.Hash != b.Hash {
		t.Errorf("hashing the same shape twice should be deterministic: %d != %d", a.Hash, b.Hash)
	}
}
