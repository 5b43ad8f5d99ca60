/*
Package graph implements the concurrent parser state graph builder: the
item/origin/transition model, the peek-group registry, scanner-graph
synthesis, the staged-node builder pattern, the concurrent graph builder
itself, and the frozen graph's IR precursor view.

It treats grammar structure as opaque, consuming it only through the
pdb.ParserDatabase contract (see package pdb) — in the same spirit that
gorgo's lr package treats a *Grammar as the thing closures/follow-sets are
computed "about", never duplicating grammar storage itself.

License

Governed by a 3-Clause BSD license, as github.com/npillmayer/gorgo is.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>
*/
package graph

import (
	"github.com/npillmayer/parsegraph/pdb"
)

// --- Origin -----------------------------------------------------------

// OriginKind tags the variant of an Origin.
type OriginKind uint8

const (
	OriginNone OriginKind = iota
	OriginNonTermGoal
	OriginTerminalGoal
	OriginPeek
	OriginFork
	OriginPEG
	OriginClosure
	OriginGoto
	OriginOOSClosure
	OriginOOSRoot
	OriginOOSScannerRoot
	OriginGoalCompleteOOS
)

// Origin is a tagged sum recording why an item's lineage exists: which
// terminal/non-terminal goal it drives toward, which peek group it
// belongs to, or which out-of-scope scaffolding produced it (spec §3).
//
// Origin is a plain comparable struct, so Item (which embeds it) stays
// hashable. Hashing uses the discriminant plus whichever resolution id or
// precedence the variant carries (spec: "two Peek origins with the same
// handle are equal"); the constructors below only ever populate the
// field(s) relevant to their Kind, so two values built the same way always
// compare equal, which is exactly the "same discriminant + same handle"
// rule the spec asks for.
type Origin struct {
	Kind       OriginKind
	NonTerm    pdb.DBNonTermKey
	Term       pdb.DBTermKey
	Precedence int
	PeekHandle uint32
	Rule       pdb.DBRuleKey
	StateID    StateId
}

func NoneOrigin() Origin { return Origin{Kind: OriginNone} }

func NonTermGoal(nt pdb.DBNonTermKey) Origin { return Origin{Kind: OriginNonTermGoal, NonTerm: nt} }

func TerminalGoal(t pdb.DBTermKey, precedence int) Origin {
	return Origin{Kind: OriginTerminalGoal, Term: t, Precedence: precedence}
}

func PeekOrigin(handle uint32) Origin { return Origin{Kind: OriginPeek, PeekHandle: handle} }

func ForkOrigin(r pdb.DBRuleKey) Origin { return Origin{Kind: OriginFork, Rule: r} }

func PEGOrigin(nt pdb.DBNonTermKey) Origin { return Origin{Kind: OriginPEG, NonTerm: nt} }

func ClosureOrigin(s StateId) Origin { return Origin{Kind: OriginClosure, StateID: s} }

func GotoOrigin(s StateId) Origin { return Origin{Kind: OriginGoto, StateID: s} }

func OOSClosureOrigin() Origin { return Origin{Kind: OriginOOSClosure} }

func OOSRootOrigin() Origin { return Origin{Kind: OriginOOSRoot} }

func OOSScannerRootOrigin(t pdb.DBTermKey) Origin {
	return Origin{Kind: OriginOOSScannerRoot, Term: t}
}

func GoalCompleteOOSOrigin() Origin { return Origin{Kind: OriginGoalCompleteOOS} }

// IsPeek reports whether this origin identifies a peek group.
func (o Origin) IsPeek() bool { return o.Kind == OriginPeek }

// --- StateId ------------------------------------------------------------

// StateSubtype is metadata about a StateId's role. It is not part of the
// id's identity (spec §3/§9: "equality and hash use only index").
type StateSubtype uint8

const (
	SubtypeRoot StateSubtype = iota
	SubtypeRegular
	SubtypeGoto
	SubtypePostReduce
	SubtypeExtendedClosure
	SubtypeExtendSled
	SubtypeInvalid
)

// StateId is a 32-bit index plus a 4-bit subtype tag (spec §3). Identity
// (equality, hashing as a map key) must use only the index; use Equal, not
// Go's built-in ==, whenever subtype-insensitive comparison is required —
// raw == is only safe when both operands are known to share a subtype.
type StateId struct {
	index   uint32
	subtype StateSubtype
}

// NewStateId constructs a StateId with an explicit index and subtype.
func NewStateId(index uint32, subtype StateSubtype) StateId {
	return StateId{index: index, subtype: subtype}
}

// InvalidStateId is the zero-value-like sentinel for "not yet assigned".
func InvalidStateId() StateId { return StateId{subtype: SubtypeInvalid} }

func (s StateId) Index() uint32          { return s.index }
func (s StateId) Subtype() StateSubtype  { return s.subtype }
func (s StateId) IsRoot() bool           { return s.subtype == SubtypeRoot || s.index == 0 }
func (s StateId) IsOOS() bool {
	return s.subtype == SubtypeExtendSled || s.subtype == SubtypeExtendedClosure
}
func (s StateId) IsInvalid() bool { return s.subtype == SubtypeInvalid }

// ToGoto returns a copy of s with the Goto subtype, index unchanged.
func (s StateId) ToGoto() StateId { s.subtype = SubtypeGoto; return s }

// ToPostReduce returns a copy of s with the PostReduce subtype, index
// unchanged.
func (s StateId) ToPostReduce() StateId { s.subtype = SubtypePostReduce; return s }

// Equal reports identity per spec Testable Property 4: two StateIds are
// the same state iff their indices match, regardless of subtype.
func (s StateId) Equal(o StateId) bool { return s.index == o.index }

// --- GraphType / StateType ----------------------------------------------

// GraphType distinguishes a parser-mode node from a scanner-mode node.
type GraphType uint8

const (
	GraphParser GraphType = iota
	GraphScanner
)

func (t GraphType) String() string {
	if t == GraphScanner {
		return "scanner"
	}
	return "parser"
}

// StateTypeKind enumerates the closed set of operational roles a state can
// have (spec §3 StateType). Fields below a StateType carry kind-specific
// payload; e.g. Peek uses Level, Reduce uses Rule/SymCount.
type StateTypeKind uint8

const (
	StStart StateTypeKind = iota
	StShift
	StKernelShift
	StNonTerminalShiftLoop
	StNonTerminalComplete
	StForkInitiator
	StForkedState
	StPeek
	StPeekEndComplete
	StCompleteToken
	StFollow
	StAssignAndFollow
	StReduce
	StAssignToken
	StCSTNodeAccept
	StInternalCall
	StKernelCall
	StShiftFrom
	StNonTermCompleteOOS
	StScannerCompleteOOS
	// Reserved kinds. stOosClosure is built only by oosClosureStateType for
	// OOS scaffold nodes; the four after it have no construction path
	// (spec §9 Open Questions) and are left unreachable deliberately.
	stOosClosure
	stPeekNonTerminalCompleteOOS
	stFirstMatch
	stLongestMatch
	stShortestMatch
)

// StateType is the closed-set tag plus whatever payload its kind needs.
type StateType struct {
	Kind          StateTypeKind
	Level         uint32           // Peek(level)
	ResolveHandle uint32           // PeekEndComplete(resolve_handle)
	Term          pdb.DBTermKey    // AssignAndFollow(term), AssignToken(term)
	Rule          pdb.DBRuleKey    // Reduce(rule, sym_count)
	SymCount      int              // Reduce(rule, sym_count)
	NonTerm       pdb.DBNonTermKey // CSTNodeAccept(nt), InternalCall(nt), KernelCall(nt)
	FromState     StateId          // ShiftFrom(state)
}

func Start() StateType                { return StateType{Kind: StStart} }
func Shift() StateType                { return StateType{Kind: StShift} }
func KernelShift() StateType          { return StateType{Kind: StKernelShift} }
func NonTerminalShiftLoop() StateType { return StateType{Kind: StNonTerminalShiftLoop} }
func NonTerminalComplete() StateType  { return StateType{Kind: StNonTerminalComplete} }
func ForkInitiator() StateType        { return StateType{Kind: StForkInitiator} }
func ForkedState() StateType          { return StateType{Kind: StForkedState} }
func Peek(level uint32) StateType     { return StateType{Kind: StPeek, Level: level} }
func PeekEndComplete(handle uint32) StateType {
	return StateType{Kind: StPeekEndComplete, ResolveHandle: handle}
}
func CompleteToken() StateType { return StateType{Kind: StCompleteToken} }
func Follow() StateType        { return StateType{Kind: StFollow} }
func AssignAndFollow(term pdb.DBTermKey) StateType {
	return StateType{Kind: StAssignAndFollow, Term: term}
}
func Reduce(rule pdb.DBRuleKey, symCount int) StateType {
	return StateType{Kind: StReduce, Rule: rule, SymCount: symCount}
}
func AssignToken(term pdb.DBTermKey) StateType { return StateType{Kind: StAssignToken, Term: term} }
func CSTNodeAccept(nt pdb.DBNonTermKey) StateType {
	return StateType{Kind: StCSTNodeAccept, NonTerm: nt}
}
func InternalCall(nt pdb.DBNonTermKey) StateType {
	return StateType{Kind: StInternalCall, NonTerm: nt}
}
func KernelCall(nt pdb.DBNonTermKey) StateType { return StateType{Kind: StKernelCall, NonTerm: nt} }
func ShiftFrom(from StateId) StateType         { return StateType{Kind: StShiftFrom, FromState: from} }
func NonTermCompleteOOS() StateType             { return StateType{Kind: StNonTermCompleteOOS} }
func ScannerCompleteOOS() StateType             { return StateType{Kind: StScannerCompleteOOS} }

// oosClosureStateType builds the one reserved state type the builder does
// construct (get_oos_root_state's scaffold nodes, spec §4.6); the other
// reserved kinds (stPeekNonTerminalCompleteOOS, stFirstMatch,
// stLongestMatch, stShortestMatch) have no observed construction path and
// stay unreachable (spec §9 Open Questions).
func oosClosureStateType() StateType { return StateType{Kind: stOosClosure} }

// IsPeek reports whether this state type is a peek state (any level).
func (t StateType) IsPeek() bool { return t.Kind == StPeek }

// hashWord is the literal the spec requires folding all Peek states to
// when computing state_hash (spec §4.6 step 7: "Peek collapsed to the
// literal word 'peek'").
func (t StateType) hashWord() interface{} {
	if t.Kind == StPeek {
		return "peek"
	}
	return t
}

// --- PrecedentSymbol / PrecedentDBTerm -----------------------------------

// PrecedentSymbol is the symbol that led to a node via shift or goto.
type PrecedentSymbol struct {
	IsTerminal bool
	Term       pdb.DBTermKey
	NonTerm    pdb.DBNonTermKey
}

// PrecedentDBTerm is a terminal together with its declared precedence,
// used as the scanner-synthesis key (spec glossary "Precedent(DB)Term").
// OOS is the third component of the "(t, p, oos)" tuple shape. The terms
// collected for scanner OOS follow extension (spec §4.6 step 4) carry
// false, and no code path in this package sets it to true.
type PrecedentDBTerm struct {
	Term       pdb.DBTermKey
	Precedence int
	OOS        bool
}

// --- Item -----------------------------------------------------------

// ItemDotType classifies what sits at an item's dot.
type ItemDotType uint8

const (
	DotCompleted ItemDotType = iota
	DotNonTerminal
	DotTokenNonTerminal
	DotTerminal
)

// Item is a position within a rule, value-typed and hashable (spec §3):
// a rule, a dot position, and the lineage fields the graph package adds on
// top of the database's bare ItemPos.
type Item struct {
	Rule           pdb.DBRuleKey
	Index          int
	Origin         Origin
	OriginState    StateId
	FromGotoOrigin bool
	GotoDistance   uint32
}

func (it Item) pos() pdb.ItemPos { return pdb.ItemPos{Rule: it.Rule, Index: it.Index} }

// Increment advances the dot by one position, preserving lineage.
func (it Item) Increment() Item {
	it.Index++
	return it
}

// ToComplete returns it with the dot moved behind the whole right-hand
// side of its rule.
func (it Item) ToComplete(db pdb.ParserDatabase) Item {
	info := db.Rule(it.Rule)
	it.Index = info.RHSLen
	return it
}

// PeekSymbol returns the terminal at the dot, the non-terminal at the dot,
// or (false, false) if the item is complete.
func (it Item) PeekSymbol(db pdb.ParserDatabase) (pdb.DBTermKey, pdb.DBNonTermKey, bool, bool) {
	pos := it.pos()
	if t, ok := db.PrecedentTermAt(pos); ok {
		return t, 0, true, false
	}
	if nt, ok := db.NontermAt(pos); ok {
		return 0, nt, false, true
	}
	return 0, 0, false, false
}

// PrecedentDBKeyAtSym returns the PrecedentDBTerm at the item's dot, if
// the dot sits on a terminal.
func (it Item) PrecedentDBKeyAtSym(db pdb.ParserDatabase) (PrecedentDBTerm, bool) {
	t, _, isTerm, _ := it.PeekSymbol(db)
	if !isTerm {
		return PrecedentDBTerm{}, false
	}
	info := db.Token(t)
	return PrecedentDBTerm{Term: t, Precedence: info.Precedence}, true
}

// ToOrigin returns the item's origin tag.
func (it Item) ToOrigin() Origin { return it.Origin }

// ToOriginState returns the state id that introduced this lineage.
func (it Item) ToOriginState() StateId { return it.OriginState }

// AsGotoOrigin rewrites the item's origin to Goto(origin_state), as done
// when a kernel item's origin_state equals the committing predecessor's id
// (spec §4.6 step 3 / §9 "StateId encoding").
func (it Item) AsGotoOrigin() Item {
	it.Origin = GotoOrigin(it.OriginState)
	it.FromGotoOrigin = true
	return it
}

// IncrementGoto bumps the goto-distance counter (spec §4.6 step 3, for
// items whose origin_state does not match the committing predecessor).
func (it Item) IncrementGoto() Item {
	it.GotoDistance++
	return it
}

// GetType classifies what the item's dot currently sits on.
func (it Item) GetType(db pdb.ParserDatabase) ItemDotType {
	pos := it.pos()
	if db.IsComplete(pos) {
		return DotCompleted
	}
	if nt, ok := db.NontermAt(pos); ok {
		if _, isToken := db.TermForScannerNonterm(nt); isToken {
			return DotTokenNonTerminal
		}
		return DotNonTerminal
	}
	return DotTerminal
}
