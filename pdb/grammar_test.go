package pdb

import "testing"

// S -> 'a'
func trivialGrammar(t *testing.T) *Grammar {
	b := NewGrammarBuilder("trivial")
	b.LHS("S").T("a", 1).End()
	b.Export("S")
	g, err := b.Grammar()
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	return g
}

func TestGrammarBuilderBasics(t *testing.T) {
	g := trivialGrammar(t)
	if g.RuleCount() != 1 {
		t.Fatalf("expected 1 rule, got %d", g.RuleCount())
	}
	if len(g.ExportedNonTerms()) != 1 {
		t.Fatalf("expected 1 exported non-terminal, got %d", len(g.ExportedNonTerms()))
	}
	nt := g.ExportedNonTerms()[0]
	if g.NontermName(nt) != "S" {
		t.Errorf("expected exported non-terminal to be S, got %s", g.NontermName(nt))
	}
}

func TestPrecedentTermAndComplete(t *testing.T) {
	g := trivialGrammar(t)
	pos := ItemPos{Rule: 0, Index: 0}
	term, ok := g.PrecedentTermAt(pos)
	if !ok {
		t.Fatalf("expected a terminal at dot 0")
	}
	if g.SymbolName(g.Sym(term)) != "a" {
		t.Errorf("expected terminal 'a', got %s", g.SymbolName(g.Sym(term)))
	}
	if g.IsComplete(pos) {
		t.Errorf("item at dot 0 should not be complete")
	}
	pos.Index = 1
	if !g.IsComplete(pos) {
		t.Errorf("item at dot 1 (end of RHS) should be complete")
	}
}

func TestSkipGroup(t *testing.T) {
	b := NewGrammarBuilder("skips")
	b.LHS("S").T("a", 1).End()
	b.Skip("WS", "COMMENT")
	g, err := b.Grammar()
	if err != nil {
		t.Fatalf("building grammar: %v", err)
	}
	skipped := g.Skipped(ItemPos{Rule: 0, Index: 0})
	if len(skipped) != 1 || len(skipped[0]) != 2 {
		t.Fatalf("expected one skip group of 2 symbols, got %v", skipped)
	}
}
