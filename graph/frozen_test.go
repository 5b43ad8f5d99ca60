package graph

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/npillmayer/parsegraph/pdb"
)

func driveTrivial(t *testing.T) *Graphs {
	t.Helper()
	g, _ := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	if err := b.Drive(context.Background(), 2); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	return b.Freeze()
}

func TestFreezeSnapshotIsIndependentOfSharedState(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	if err := b.Drive(context.Background(), 1); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	frozen := b.Freeze()
	before := len(frozen.Nodes)

	b.ReseedRoot(a, 9)

	if len(frozen.Nodes) != before {
		t.Errorf("Freeze snapshot must not change after later builder mutation: %d != %d", len(frozen.Nodes), before)
	}
}

func TestCreateIRPrecursorsSkipsInvalidatedRoots(t *testing.T) {
	g, a := trivialGrammarDB(t)
	b := NewBuilder(g, NewParserConfig())
	if err := b.Drive(context.Background(), 1); err != nil {
		t.Fatalf("Drive returned an error: %v", err)
	}
	b.InvalidateNonterms([]pdb.DBNonTermKey{a}, 1)

	frozen := b.Freeze()
	data := frozen.CreateIRPrecursors()
	it := data.Iterator()
	for {
		grp, ok := it.Next()
		if !ok {
			break
		}
		if grp.Node.Invalid() {
			t.Errorf("CreateIRPrecursors must skip groups rooted at an invalidated node, got %+v", grp)
		}
	}
}

func TestToGraphvizProducesValidDigraphHeader(t *testing.T) {
	frozen := driveTrivial(t)
	var buf bytes.Buffer
	if err := frozen.ToGraphviz(&buf); err != nil {
		t.Fatalf("ToGraphviz returned an error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph parsegraph {") {
		t.Errorf("expected a digraph header, got %q", out[:minInt(40, len(out))])
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "}") {
		t.Errorf("expected the digraph to be closed, got %q", out)
	}
}

func TestDumpSymbolSetsDoesNotErrorOnEmptyScannerData(t *testing.T) {
	frozen := driveTrivial(t)
	var buf bytes.Buffer
	if err := frozen.DumpSymbolSets(&buf); err != nil {
		t.Fatalf("DumpSymbolSets returned an error: %v", err)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
