package graph

import (
	"testing"

	"github.com/npillmayer/parsegraph/pdb"
)

func TestStagedNodeSettersChain(t *testing.T) {
	s := NewStagedNode().
		GraphTy(GraphParser).
		Ty(Shift()).
		Sym(PrecedentSymbol{IsTerminal: true, Term: 1}).
		KernelItems(Item{Rule: 0, Index: 1}).
		ToClassification(ClassHasScanner).
		MakeLeaf()

	if s.node.GraphType != GraphParser {
		t.Errorf("GraphTy did not stick")
	}
	if s.node.Type.Kind != StShift {
		t.Errorf("Ty did not stick")
	}
	if len(s.node.Kernel) != 1 {
		t.Fatalf("KernelItems did not stick")
	}
	if s.node.Class&ClassHasScanner == 0 {
		t.Errorf("ToClassification did not OR the flag in")
	}
	if !s.node.IsLeaf {
		t.Errorf("MakeLeaf did not stick")
	}
}

func TestStagedNodeMakeRoot(t *testing.T) {
	s := NewStagedNode().MakeRoot("S", pdb.DBNonTermKey(3), 2)
	if !s.node.RootData.IsRoot {
		t.Fatalf("expected IsRoot after MakeRoot")
	}
	if s.node.RootData.RootName != "S" || s.node.RootData.Version != 2 {
		t.Errorf("unexpected root data: %+v", s.node.RootData)
	}
}

func TestStagedNodeKernelItemsReplaces(t *testing.T) {
	s := NewStagedNode().
		AddKernelItems(Item{Rule: 0, Index: 0}, Item{Rule: 1, Index: 0}).
		KernelItems(Item{Rule: 2, Index: 0})
	if len(s.node.Kernel) != 1 || s.node.Kernel[0].Rule != 2 {
		t.Errorf("KernelItems should replace, not append: %v", s.node.Kernel)
	}
}
