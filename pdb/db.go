/*
Package pdb defines the ParserDatabase contract: the boundary between the
concurrent graph builder (package graph) and a surface grammar parser and
its AST. Per the core's design, the surface grammar/AST is an external
collaborator — this package supplies the interface the builder consumes
plus a small reference implementation so the core is testable end to end.

License

Governed by a 3-Clause BSD license, as github.com/npillmayer/gorgo is.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>
*/
package pdb

// DBTermKey identifies a terminal symbol within a grammar database.
type DBTermKey int

// DBNonTermKey identifies a non-terminal symbol within a grammar database.
type DBNonTermKey int

// DBRuleKey identifies a grammar rule (production) within a grammar database.
type DBRuleKey int

// SymbolId is an opaque, database-assigned identifier for any grammar symbol,
// terminal or non-terminal.
type SymbolId int32

// ItemPos is the structural, origin-free position of a dot within a rule's
// right-hand side: rule R with N right-hand-side symbols already consumed.
// It is the unit the database's closure and follow operations work over;
// package graph wraps it with lineage (origin, origin state) the database
// itself has no notion of.
type ItemPos struct {
	Rule  DBRuleKey
	Index int
}

// TokenInfo describes a terminal as exposed by the database.
type TokenInfo struct {
	// ScannerNonterm is set when this terminal is itself recognized by an
	// embedded scanner-mode non-terminal (a grammar with lexical rules);
	// HasScanner is false for terminals with no such backing grammar.
	ScannerNonterm DBNonTermKey
	HasScanner     bool
	// Precedence is used to disambiguate terminal/terminal scanner races.
	Precedence int
}

// SkippedSym is one symbol a scanner may skip (whitespace, comments, ...)
// while hunting for the next real token at a given item position.
type SkippedSym interface {
	Tok() SymbolId
	TokDBKey() (DBTermKey, bool)
}

// RuleInfo exposes a rule's shape without handing out the database's
// internal rule representation.
type RuleInfo struct {
	LHS    DBNonTermKey
	RHSLen int
}

// ParserDatabase is the contract the concurrent graph builder (package
// graph) consumes. Implementations own grammar storage, closures, and
// follow-set derivation; the builder treats it as opaque and never mutates
// it.
type ParserDatabase interface {
	// Sym returns the database-assigned identifier for a terminal.
	Sym(t DBTermKey) SymbolId
	// Token returns metadata about a terminal.
	Token(t DBTermKey) TokenInfo
	// Closure returns the items reachable from pos by replacing a
	// non-terminal at the dot with the start items of all its rules,
	// transitively. Returned items carry no lineage.
	Closure(pos ItemPos) []ItemPos
	// NontermFollowItems returns, for every occurrence of nt on a rule's
	// right-hand side, the position just behind that occurrence (the items
	// active after a reduction of nt), used both to derive follow
	// terminals (spec §4.1 Follow) and to seed OOS follow closures (spec
	// §4.6 get_oos_root_state).
	NontermFollowItems(nt DBNonTermKey) []ItemPos
	// Rule returns structural information about a rule.
	Rule(r DBRuleKey) RuleInfo
	// PrecedentTermAt returns the terminal at pos's dot, if the dot sits
	// on a terminal.
	PrecedentTermAt(pos ItemPos) (DBTermKey, bool)
	// NontermAt returns the non-terminal at pos's dot, if the dot sits on
	// a non-terminal.
	NontermAt(pos ItemPos) (DBNonTermKey, bool)
	// IsComplete reports whether pos's dot is behind the whole right-hand
	// side of its rule.
	IsComplete(pos ItemPos) bool
	// StartItems returns the dot-at-0 positions of every rule for nt.
	StartItems(nt DBNonTermKey) []ItemPos
	// Skipped returns, for an item, the sets of symbols a scanner may skip
	// while looking for the next token at that position.
	Skipped(pos ItemPos) [][]SkippedSym
	// SymbolName renders a symbol for diagnostics.
	SymbolName(s SymbolId) string
	// ExportedNonTerms lists the non-terminals the database wants the
	// builder to seed root states for.
	ExportedNonTerms() []DBNonTermKey
	// NontermName renders a non-terminal for diagnostics and root naming.
	NontermName(nt DBNonTermKey) string
	// TermForScannerNonterm is the reverse of TokenInfo.ScannerNonterm:
	// given a non-terminal, report the terminal it backs as an embedded
	// scanner-mode grammar, if any.
	TermForScannerNonterm(nt DBNonTermKey) (DBTermKey, bool)
}
