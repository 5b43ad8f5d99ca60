package graph

import (
	"testing"
)

func TestReseedRootAddsNewVersion(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	b.SeedRoots()

	before := len(b.RootsFor(a))
	b.ReseedRoot(a, 2)
	after := b.RootsFor(a)
	if len(after) != before+1 {
		t.Fatalf("expected ReseedRoot to add exactly one root state, had %d now have %d", before, len(after))
	}

	foundV2 := false
	for _, rs := range after {
		if rs.Node.RootData.Version == 2 {
			foundV2 = true
		}
	}
	if !foundV2 {
		t.Errorf("expected a root state at version 2 among %+v", after)
	}
}

func TestRootsForFiltersByNonterm(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	b.SeedRoots()

	for _, rs := range b.RootsFor(a) {
		if rs.Node.RootData.DBKey != a {
			t.Errorf("RootsFor returned a root for the wrong non-terminal: %+v", rs)
		}
	}
}

func TestRootByNontermPicksHighestValidVersion(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	b.SeedRoots()
	b.ReseedRoot(a, 5)

	frozen := b.Freeze()
	node, ok := frozen.RootByNonterm(a)
	if !ok {
		t.Fatalf("expected a root for the non-terminal")
	}
	if node.RootData.Version != 5 {
		t.Errorf("expected the highest version root (5), got %d", node.RootData.Version)
	}
}

func TestRootByNontermSkipsInvalidated(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	b.SeedRoots()
	b.ReseedRoot(a, 5)

	frozen := b.Freeze()
	for _, rs := range frozen.RootStates {
		if rs.Node.RootData.DBKey == a {
			rs.Node.setInvalid()
		}
	}
	if _, ok := frozen.RootByNonterm(a); ok {
		t.Errorf("expected no usable root once every version has been invalidated")
	}
}
