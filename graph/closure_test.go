package graph

import (
	"testing"

	"github.com/npillmayer/parsegraph/pdb"
)

// S -> A 'c'
// A -> 'a'
func peekDB(t *testing.T) (*pdb.Grammar, pdb.DBNonTermKey) {
	b := pdb.NewGrammarBuilder("peek")
	b.LHS("S").N("A").T("c", 1).End()
	b.LHS("A").T("a", 2).End()
	b.Export("S")
	g, err := b.Grammar()
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g, g.ExportedNonTerms()[0]
}

func TestCloseItemPropagatesOrigin(t *testing.T) {
	g, s := peekDB(t)
	start := g.StartItems(s)[0]
	seed := Item{Rule: start.Rule, Index: start.Index, Origin: NonTermGoal(s), OriginState: InvalidStateId()}
	id := NewStateId(5, SubtypeRegular)
	closed := CloseItem(g, seed, id)
	if len(closed) != 2 {
		t.Fatalf("expected closure of size 2, got %d", len(closed))
	}
	if closed[0].Origin != seed.Origin {
		t.Errorf("seed item's own origin should be preserved, got %v", closed[0].Origin)
	}
	for _, it := range closed[1:] {
		if it.Origin.Kind != OriginClosure || !it.Origin.StateID.Equal(id) {
			t.Errorf("closure-introduced item should carry Origin::Closure(%v), got %v", id, it.Origin)
		}
	}
}

func TestFollowOnCompleteItemDelegatesToDatabase(t *testing.T) {
	g, _ := peekDB(t)
	// A -> 'a' . is complete; A is referenced at S -> A . 'c'.
	aComplete := Item{Rule: 1, Index: 1}
	follow, completed := Follow(g, nil, aComplete, FollowAllItems)
	if !completed {
		t.Fatalf("expected the completed item to report completed=true")
	}
	if len(follow) != 1 || follow[0].Rule != 0 || follow[0].Index != 1 {
		t.Fatalf("expected follow item S -> A . 'c', got %v", follow)
	}
}

func TestFollowSymbolsThroughNonTerminal(t *testing.T) {
	g, s := peekDB(t)
	start := Item{Rule: g.StartItems(s)[0].Rule, Index: 0}
	terms := FollowSymbols(g, start)
	if len(terms) != 1 {
		t.Fatalf("expected 1 follow terminal reachable through A, got %d", len(terms))
	}
	if g.SymbolName(g.Sym(terms[0])) != "a" {
		t.Errorf("expected follow terminal 'a', got %s", g.SymbolName(g.Sym(terms[0])))
	}
}
