package pdb

import "testing"

// S -> A 'c'
// A -> 'a'
func peekGrammar(t *testing.T) (*Grammar, DBNonTermKey) {
	b := NewGrammarBuilder("peek")
	b.LHS("S").N("A").T("c", 1).End()
	b.LHS("A").T("a", 2).End()
	b.Export("S")
	g, err := b.Grammar()
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g, g.ExportedNonTerms()[0]
}

func TestClosureExpandsNonTerminal(t *testing.T) {
	g, s := peekGrammar(t)
	start := g.StartItems(s)
	if len(start) != 1 {
		t.Fatalf("expected 1 start item for S, got %d", len(start))
	}
	closure := g.Closure(start[0])
	// Expect S -> *A 'c' plus A -> *'a' in the closure.
	if len(closure) != 2 {
		t.Fatalf("expected closure of size 2, got %d: %v", len(closure), closure)
	}
	foundA := false
	for _, it := range closure {
		if nt, ok := g.NontermAt(ItemPos{Rule: start[0].Rule, Index: 0}); ok && nt == s {
			// sanity check on the seed item itself, not a closure assertion
			_ = nt
		}
		if term, ok := g.PrecedentTermAt(it); ok && g.SymbolName(g.Sym(term)) == "a" {
			foundA = true
		}
	}
	if !foundA {
		t.Errorf("expected closure to reach terminal 'a' via non-terminal A")
	}
}

func TestNontermFollowItems(t *testing.T) {
	g, _ := peekGrammar(t)
	// A is referenced once, at rule 0 index 0; its follow item is rule 0 index 1.
	aIdx := DBNonTermKey(1)
	follow := g.NontermFollowItems(aIdx)
	if len(follow) != 1 {
		t.Fatalf("expected 1 follow item for A, got %d", len(follow))
	}
	if follow[0] != (ItemPos{Rule: 0, Index: 1}) {
		t.Errorf("unexpected follow item: %v", follow[0])
	}
}
