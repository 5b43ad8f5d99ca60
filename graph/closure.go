package graph

import "github.com/npillmayer/parsegraph/pdb"

// FollowType selects the follow-computation strategy. The spec names only
// one: AllItems.
type FollowType uint8

const (
	FollowAllItems FollowType = iota
)

// CloseItem computes the closure of a single item and tags every item it
// produces with lineage the database itself does not track (spec §4.1:
// "A closure of an item is produced by the database; this component adds
// origin/origin_state propagation"). The seed item's own origin/goto
// fields are preserved; every item newly introduced by the closure is
// tagged Origin::Closure(stateID), where stateID is the state this closure
// is being computed for.
func CloseItem(db pdb.ParserDatabase, it Item, stateID StateId) []Item {
	positions := db.Closure(it.pos())
	out := make([]Item, 0, len(positions))
	for i, pos := range positions {
		ci := Item{Rule: pos.Rule, Index: pos.Index, OriginState: stateID}
		if i == 0 {
			ci.Origin = it.Origin
			ci.FromGotoOrigin = it.FromGotoOrigin
			ci.GotoDistance = it.GotoDistance
		} else {
			ci.Origin = ClosureOrigin(stateID)
		}
		out = append(out, ci)
	}
	return out
}

// CloseItems closes a whole ordered set of items, deduplicating by
// structural position while preserving first-seen lineage — the ordered
// analogue of gorgo's lr/tables.go closureSet, generalized to carry
// origin/origin_state instead of plain LR(0) items.
func CloseItems(db pdb.ParserDatabase, items []Item, stateID StateId) []Item {
	seen := make(map[pdb.ItemPos]bool)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		for _, ci := range CloseItem(db, it, stateID) {
			if seen[ci.pos()] {
				continue
			}
			seen[ci.pos()] = true
			out = append(out, ci)
		}
	}
	return out
}

// Follow computes the follow items and completion status for an item in
// the context of node (spec §4.1 Follow computation). For an incomplete
// item this is simply the symbols reachable from its own dot (wrapped as
// items so callers can continue closing them); for a complete item, it is
// the database's own nonterm_follow_items projection for the item's LHS —
// the database already derives this deterministically and without cycles
// (it is a static scan over rule right-hand sides), so delegating to it
// satisfies the "deterministic ordering… termination even in grammar
// cycles" contract without the graph package re-deriving follow sets by
// walking the live predecessor chain.
func Follow(db pdb.ParserDatabase, node *GraphNode, it Item, _ FollowType) (follow []Item, completed bool) {
	if !db.IsComplete(it.pos()) {
		return wrapPositions(db.Closure(it.pos()), node), false
	}
	info := db.Rule(it.Rule)
	positions := db.NontermFollowItems(info.LHS)
	return wrapPositions(positions, node), true
}

func wrapPositions(positions []pdb.ItemPos, node *GraphNode) []Item {
	var stateID StateId
	if node != nil {
		stateID = node.ID
	}
	out := make([]Item, 0, len(positions))
	for _, pos := range positions {
		out = append(out, Item{Rule: pos.Rule, Index: pos.Index, Origin: ClosureOrigin(stateID), OriginState: stateID})
	}
	return out
}

// FollowSymbols is the follow-symbol iterator (spec §4.4): the terminals
// that legally continue item it from its current position. If it is
// complete, this is the terminals reachable from its follow items; if the
// dot sits on a non-terminal, the closure-derived terminals; if on a
// terminal, itself.
func FollowSymbols(db pdb.ParserDatabase, it Item) []pdb.DBTermKey {
	if db.IsComplete(it.pos()) {
		info := db.Rule(it.Rule)
		var out []pdb.DBTermKey
		seen := make(map[pdb.DBTermKey]bool)
		for _, fpos := range db.NontermFollowItems(info.LHS) {
			for _, t := range symbolsAtPosition(db, fpos) {
				if !seen[t] {
					seen[t] = true
					out = append(out, t)
				}
			}
		}
		return out
	}
	return symbolsAtPosition(db, it.pos())
}

func symbolsAtPosition(db pdb.ParserDatabase, pos pdb.ItemPos) []pdb.DBTermKey {
	if t, ok := db.PrecedentTermAt(pos); ok {
		return []pdb.DBTermKey{t}
	}
	if _, ok := db.NontermAt(pos); ok {
		var out []pdb.DBTermKey
		seen := make(map[pdb.DBTermKey]bool)
		for _, cpos := range db.Closure(pos) {
			if t, ok := db.PrecedentTermAt(cpos); ok && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
		return out
	}
	return nil
}
