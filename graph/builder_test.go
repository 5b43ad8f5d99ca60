package graph

import (
	"context"
	"testing"

	"github.com/npillmayer/parsegraph/pdb"
)

// A -> 'a'
func trivialGrammarDB(t *testing.T) (*pdb.Grammar, pdb.DBNonTermKey) {
	b := pdb.NewGrammarBuilder("s1")
	b.LHS("A").T("a", 1).End()
	b.Export("A")
	g, err := b.Grammar()
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g, g.ExportedNonTerms()[0]
}

// S1: trivial recognizer (spec §8).
func TestBuilderTrivialRecognizer(t *testing.T) {
	g, _ := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	if err := b.Drive(context.Background(), 1); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}

	frozen := b.Freeze()
	// Root states also hold the Start-typed scanner root that commit
	// creates for the root's scanner data; count parser roots only.
	var root *GraphNode
	parserRoots := 0
	for _, rs := range frozen.RootStates {
		if rs.Node.GraphType == GraphParser {
			parserRoots++
			root = rs.Node
		}
	}
	if parserRoots != 1 {
		t.Fatalf("expected exactly 1 parser root state, got %d", parserRoots)
	}
	if root.Type.Kind != StStart {
		t.Fatalf("expected root type Start, got %v", root.Type)
	}

	successors := frozen.Successors[root.HashID]
	if len(successors) == 0 {
		t.Fatalf("expected at least one successor of the root")
	}
	foundShift := false
	for _, n := range successors {
		if n.Type.Kind == StShift {
			foundShift = true
		}
	}
	if !foundShift {
		t.Errorf("expected a Shift successor consuming 'a', got %v", successors)
	}

	precursors := frozen.CreateIRPrecursors()
	if precursors.Len() < 1 {
		t.Fatalf("expected at least one IR precursor group")
	}
	it := precursors.Iterator()
	first, ok := it.Next()
	if !ok {
		t.Fatalf("expected a first precursor group")
	}
	if !first.HasRootName || first.RootName != "A" {
		t.Errorf("expected first group's root_name to be \"A\", got %+v", first)
	}
}

// S4: root invalidation (spec §8).
func TestBuilderRootInvalidationShortCircuitsCommit(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	b.SeedRoots()

	var root *GraphNode
	for _, rs := range b.RootStates() {
		if rs.Node.GraphType == GraphParser {
			root = rs.Node
		}
	}
	if root == nil {
		t.Fatalf("expected a seeded root state")
	}

	b.InvalidateNonterms([]pdb.DBNonTermKey{a}, 1)

	NewStagedNode().Parent(root).GraphTy(GraphParser).Ty(Shift()).Commit(b)
	if got := b.Commit(false, root, b.defaultConfig, false); got != ^uint32(0) {
		t.Errorf("expected commit() against an invalidated root to return the sentinel, got %d", got)
	}
}

// S6: IR precursor determinism (spec §8).
func TestIRPrecursorDeterministicAcrossBuilds(t *testing.T) {
	g, _ := trivialGrammarDB(t)

	run := func() []uint64 {
		b := NewBuilder(g, NewParserConfig())
		if err := b.Drive(context.Background(), 1); err != nil {
			t.Fatalf("Drive returned an error: %v", err)
		}
		data := b.Freeze().CreateIRPrecursors()
		it := data.Iterator()
		var hashes []uint64
		for {
			grp, ok := it.Next()
			if !ok {
				break
			}
			hashes = append(hashes, grp.Node.HashID)
		}
		return hashes
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("expected the same precursor count across builds: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("precursor order diverged at index %d: %d vs %d", i, first[i], second[i])
		}
	}
}
