package pdb

import "fmt"

// symKind distinguishes the two kinds of grammar symbol a rule's
// right-hand side can hold.
type symKind uint8

const (
	symTerminal symKind = iota
	symNonTerminal
)

type symbol struct {
	kind symKind
	term DBTermKey
	nt   DBNonTermKey
}

type rule struct {
	serial DBRuleKey
	lhs    DBNonTermKey
	rhs    []symbol
}

// Grammar is a small in-memory reference ParserDatabase, built the way
// gorgo's lr.GrammarBuilder is used (see lr/doc.go): a fluent builder adds
// rules LHS-first, terminal/non-terminal references are interned by name,
// and the finished Grammar answers closure and follow-item queries.
//
// It exists so the graph builder is exercisable end to end; a real
// toolchain supplies its own ParserDatabase backed by a parsed grammar
// file.
type Grammar struct {
	name         string
	rules        []rule
	nontermNames []string
	termNames    []string
	termPrec     []int
	rulesByLHS   map[DBNonTermKey][]DBRuleKey
	exported     []DBNonTermKey
	skipGroup    []SkippedSym
}

// Name returns the grammar's name.
func (g *Grammar) Name() string { return g.name }

// RuleCount returns the number of rules in the grammar.
func (g *Grammar) RuleCount() int { return len(g.rules) }

var _ ParserDatabase = (*Grammar)(nil)

func (g *Grammar) Sym(t DBTermKey) SymbolId {
	return SymbolId(t) + 1
}

func (g *Grammar) Token(t DBTermKey) TokenInfo {
	prec := 0
	if int(t) < len(g.termPrec) {
		prec = g.termPrec[t]
	}
	return TokenInfo{Precedence: prec}
}

func (g *Grammar) Closure(pos ItemPos) []ItemPos {
	seen := map[ItemPos]bool{pos: true}
	work := []ItemPos{pos}
	out := []ItemPos{pos}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		if nt, ok := g.NontermAt(cur); ok {
			for _, start := range g.StartItems(nt) {
				if !seen[start] {
					seen[start] = true
					out = append(out, start)
					work = append(work, start)
				}
			}
		}
	}
	return out
}

func (g *Grammar) NontermFollowItems(nt DBNonTermKey) []ItemPos {
	var out []ItemPos
	for _, r := range g.rules {
		for i, s := range r.rhs {
			if s.kind == symNonTerminal && s.nt == nt {
				out = append(out, ItemPos{Rule: r.serial, Index: i + 1})
			}
		}
	}
	return out
}

func (g *Grammar) Rule(r DBRuleKey) RuleInfo {
	ru := g.rules[r]
	return RuleInfo{LHS: ru.lhs, RHSLen: len(ru.rhs)}
}

func (g *Grammar) PrecedentTermAt(pos ItemPos) (DBTermKey, bool) {
	ru := g.rules[pos.Rule]
	if pos.Index >= len(ru.rhs) {
		return 0, false
	}
	s := ru.rhs[pos.Index]
	if s.kind == symTerminal {
		return s.term, true
	}
	return 0, false
}

func (g *Grammar) NontermAt(pos ItemPos) (DBNonTermKey, bool) {
	ru := g.rules[pos.Rule]
	if pos.Index >= len(ru.rhs) {
		return 0, false
	}
	s := ru.rhs[pos.Index]
	if s.kind == symNonTerminal {
		return s.nt, true
	}
	return 0, false
}

func (g *Grammar) IsComplete(pos ItemPos) bool {
	return pos.Index >= len(g.rules[pos.Rule].rhs)
}

func (g *Grammar) StartItems(nt DBNonTermKey) []ItemPos {
	keys := g.rulesByLHS[nt]
	out := make([]ItemPos, len(keys))
	for i, rk := range keys {
		out[i] = ItemPos{Rule: rk, Index: 0}
	}
	return out
}

func (g *Grammar) Skipped(pos ItemPos) [][]SkippedSym {
	if len(g.skipGroup) == 0 {
		return nil
	}
	return [][]SkippedSym{g.skipGroup}
}

func (g *Grammar) SymbolName(s SymbolId) string {
	if s > 0 {
		idx := int(s) - 1
		if idx >= 0 && idx < len(g.termNames) {
			return g.termNames[idx]
		}
	} else if s < 0 {
		idx := int(-s) - 1
		if idx >= 0 && idx < len(g.nontermNames) {
			return g.nontermNames[idx]
		}
	}
	return "?"
}

func (g *Grammar) ExportedNonTerms() []DBNonTermKey { return g.exported }

func (g *Grammar) NontermName(nt DBNonTermKey) string {
	if int(nt) < len(g.nontermNames) {
		return g.nontermNames[nt]
	}
	return "?"
}

// TermForScannerNonterm always reports false: this reference grammar never
// declares a terminal backed by an embedded scanner-mode non-terminal.
// A ParserDatabase for a real grammar with lexical sub-rules would return
// the backing terminal here.
func (g *Grammar) TermForScannerNonterm(nt DBNonTermKey) (DBTermKey, bool) {
	return 0, false
}

// --- Builder ---------------------------------------------------------

// GrammarBuilder builds a Grammar from fluent rule declarations, in the
// style of gorgo's lr.GrammarBuilder (see lr/doc.go):
//
//	b := pdb.NewGrammarBuilder("G")
//	b.LHS("S").N("A").T("c", 1).End()
//	b.LHS("A").T("a", 2).End()
//	b.Export("S")
//	g, err := b.Grammar()
type GrammarBuilder struct {
	g          *Grammar
	nontermIdx map[string]DBNonTermKey
	termIdx    map[string]DBTermKey
	err        error
}

// NewGrammarBuilder creates a builder for a new, empty grammar named name.
func NewGrammarBuilder(name string) *GrammarBuilder {
	return &GrammarBuilder{
		g: &Grammar{
			name:       name,
			rulesByLHS: make(map[DBNonTermKey][]DBRuleKey),
		},
		nontermIdx: make(map[string]DBNonTermKey),
		termIdx:    make(map[string]DBTermKey),
	}
}

func (b *GrammarBuilder) nonterm(name string) DBNonTermKey {
	if nt, ok := b.nontermIdx[name]; ok {
		return nt
	}
	nt := DBNonTermKey(len(b.g.nontermNames))
	b.g.nontermNames = append(b.g.nontermNames, name)
	b.nontermIdx[name] = nt
	return nt
}

func (b *GrammarBuilder) term(name string, prec int) DBTermKey {
	if t, ok := b.termIdx[name]; ok {
		return t
	}
	t := DBTermKey(len(b.g.termNames))
	b.g.termNames = append(b.g.termNames, name)
	b.g.termPrec = append(b.g.termPrec, prec)
	b.termIdx[name] = t
	return t
}

// Skip declares terminals a scanner may skip while looking for the next
// real token (whitespace, comments, ...).
func (b *GrammarBuilder) Skip(names ...string) *GrammarBuilder {
	for _, name := range names {
		t := b.term(name, 0)
		b.g.skipGroup = append(b.g.skipGroup, skippedSym{id: b.g.Sym(t), dbkey: t, hasDBKey: true})
	}
	return b
}

// Export marks non-terminals as root-worthy: the builder will seed a root
// parser state for each.
func (b *GrammarBuilder) Export(names ...string) *GrammarBuilder {
	for _, name := range names {
		b.g.exported = append(b.g.exported, b.nonterm(name))
	}
	return b
}

// Grammar finalizes and returns the built grammar. If no non-terminal was
// exported, the first declared one is exported. The returned error is
// always nil: a rule never finished with End is simply not part of the
// grammar.
func (b *GrammarBuilder) Grammar() (*Grammar, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.g.exported) == 0 && len(b.g.nontermNames) > 0 {
		b.g.exported = []DBNonTermKey{0}
	}
	return b.g, nil
}

// RuleBuilder accumulates the right-hand side of one rule.
type RuleBuilder struct {
	b   *GrammarBuilder
	lhs DBNonTermKey
	rhs []symbol
}

// LHS starts a new rule with the given left-hand-side non-terminal.
func (b *GrammarBuilder) LHS(name string) *RuleBuilder {
	return &RuleBuilder{b: b, lhs: b.nonterm(name)}
}

// N appends a non-terminal reference to the rule's right-hand side.
func (r *RuleBuilder) N(name string) *RuleBuilder {
	r.rhs = append(r.rhs, symbol{kind: symNonTerminal, nt: r.b.nonterm(name)})
	return r
}

// T appends a terminal reference, with a declared precedence, to the
// rule's right-hand side.
func (r *RuleBuilder) T(name string, precedence int) *RuleBuilder {
	r.rhs = append(r.rhs, symbol{kind: symTerminal, term: r.b.term(name, precedence)})
	return r
}

// End finishes the rule and returns control to the grammar builder.
func (r *RuleBuilder) End() *GrammarBuilder {
	ru := rule{serial: DBRuleKey(len(r.b.g.rules)), lhs: r.lhs, rhs: r.rhs}
	r.b.g.rules = append(r.b.g.rules, ru)
	r.b.g.rulesByLHS[r.lhs] = append(r.b.g.rulesByLHS[r.lhs], ru.serial)
	return r.b
}

// Epsilon finishes the rule as an empty production (LHS -> ε).
func (r *RuleBuilder) Epsilon() *GrammarBuilder {
	r.rhs = nil
	return r.End()
}

type skippedSym struct {
	id       SymbolId
	dbkey    DBTermKey
	hasDBKey bool
}

func (s skippedSym) Tok() SymbolId                  { return s.id }
func (s skippedSym) TokDBKey() (DBTermKey, bool)    { return s.dbkey, s.hasDBKey }
func (s skippedSym) String() string                 { return fmt.Sprintf("skip(%d)", s.id) }
