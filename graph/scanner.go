package graph

import (
	"github.com/cnf/structhash"

	"github.com/npillmayer/parsegraph/pdb"
)

// GetStateSymbols synthesizes the scanner data a parser-mode node needs in
// order to request its next token (spec §4.3 get_state_symbols). Returns
// nil if no kernel item reaches a terminal trigger.
func GetStateSymbols(db pdb.ParserDatabase, node *GraphNode) *ScannerData {
	uncontestedReduce := len(node.Kernel) == 1 && db.IsComplete(node.Kernel[0].pos())

	symbols := NewOrderedMap[PrecedentDBTerm, *OrderedSet[PrecedentDBTerm]]()
	skipped := NewOrderedSet[pdb.DBTermKey]()

	for _, it := range node.Kernel {
		analyzeItem(db, it, symbols, skipped, uncontestedReduce)
	}
	if symbols.Len() == 0 {
		return nil
	}
	return finalizeScannerData(symbols, skipped)
}

func analyzeItem(
	db pdb.ParserDatabase,
	it Item,
	symbols *OrderedMap[PrecedentDBTerm, *OrderedSet[PrecedentDBTerm]],
	skipped *OrderedSet[pdb.DBTermKey],
	uncontestedReduce bool,
) {
	if !uncontestedReduce {
		for _, group := range db.Skipped(it.pos()) {
			for _, s := range group {
				if key, ok := s.TokDBKey(); ok {
					skipped.Add(key)
				}
			}
		}
	}

	if db.IsComplete(it.pos()) {
		info := db.Rule(it.Rule)
		for _, fpos := range db.NontermFollowItems(info.LHS) {
			analyzeItem(db, Item{Rule: fpos.Rule, Index: fpos.Index}, symbols, skipped, false)
		}
		return
	}

	if t, ok := db.PrecedentTermAt(it.pos()); ok {
		addTrigger(db, symbols, it, t)
		return
	}

	if _, ok := db.NontermAt(it.pos()); ok {
		for _, cpos := range db.Closure(it.pos()) {
			if t, ok := db.PrecedentTermAt(cpos); ok {
				addTrigger(db, symbols, Item{Rule: cpos.Rule, Index: cpos.Index}, t)
			}
		}
	}
}

// addTrigger records that terminal t, seen at item it's dot, should
// trigger a scan, and folds in the follow terms of it's incremented form
// (spec §4.3 step 1: "the PrecedentDBTerm at dot and the follow terms of
// the incremented item"). Follow terms are recorded as PrecedentDBTerm,
// precedence included, not bare DBTermKey (spec §3's ScannerData.symbols
// maps to an "ordered set of follow-PrecedentDBTerm"; see the ScannerData
// doc comment in graph/node.go for the grounding).
func addTrigger(
	db pdb.ParserDatabase,
	symbols *OrderedMap[PrecedentDBTerm, *OrderedSet[PrecedentDBTerm]],
	it Item,
	t pdb.DBTermKey,
) {
	info := db.Token(t)
	key := PrecedentDBTerm{Term: t, Precedence: info.Precedence}
	set, ok := symbols.Get(key)
	if !ok {
		set = NewOrderedSet[PrecedentDBTerm]()
		symbols.Set(key, set)
	}
	for _, follow := range FollowSymbols(db, it.Increment()) {
		finfo := db.Token(follow)
		set.Add(PrecedentDBTerm{Term: follow, Precedence: finfo.Precedence})
	}
}

func finalizeScannerData(
	symbols *OrderedMap[PrecedentDBTerm, *OrderedSet[PrecedentDBTerm]],
	skipped *OrderedSet[pdb.DBTermKey],
) *ScannerData {
	type symEntry struct {
		Term   PrecedentDBTerm
		Follow []PrecedentDBTerm
	}
	shape := struct {
		Skipped []pdb.DBTermKey
		Symbols []symEntry
	}{Skipped: skipped.Values()}
	for _, k := range symbols.Keys() {
		set, _ := symbols.Get(k)
		shape.Symbols = append(shape.Symbols, symEntry{Term: k, Follow: set.Values()})
	}
	digest, err := structhash.Hash(shape, 1)
	if err != nil {
		panic("scanner data hash: queue has been poisoned: " + err.Error())
	}
	return &ScannerData{Hash: fnv64(digest), Symbols: symbols, Skipped: skipped}
}
