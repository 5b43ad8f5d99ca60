package astnode

import (
	"math"
	"testing"
)

func TestToStringValueMismatchReturnsTypeMismatchError(t *testing.T) {
	n := I32(7)
	if _, err := n.ToStringValue(); err == nil {
		t.Fatalf("expected a TypeMismatchError")
	} else if tme, ok := err.(*TypeMismatchError); !ok {
		t.Fatalf("expected *TypeMismatchError, got %T", err)
	} else if tme.Want != KindString || tme.Have != KindI32 {
		t.Errorf("unexpected mismatch fields: %+v", tme)
	}
}

func TestAsVariantsDoNotPanicOnMismatch(t *testing.T) {
	n := Bool(true)
	if _, ok := n.AsString(); ok {
		t.Errorf("AsString should report false on a Bool node")
	}
	if _, ok := n.AsNodeList(); ok {
		t.Errorf("AsNodeList should report false on a Bool node")
	}
	if _, ok := n.AsToken(); ok {
		t.Errorf("AsToken should report false on a Bool node")
	}
}

func TestFieldLooksUpRecordFields(t *testing.T) {
	rec := Record("Decl", []string{"name", "value"}, map[string]*Node{
		"name":  String("x"),
		"value": I64(42),
	}, Range{Start: 0, End: 3})

	name, ok := rec.Field("name")
	if !ok {
		t.Fatalf("expected field \"name\" to be present")
	}
	if s, _ := name.ToStringValue(); s != "x" {
		t.Errorf("expected name field value \"x\", got %q", s)
	}
	if _, ok := rec.Field("missing"); ok {
		t.Errorf("expected Field to report false for a name not among the record's fields")
	}
}

func TestNumericCoercionsFallBackToZero(t *testing.T) {
	n := String("not a number")
	if got := n.ToI64(); got != 0 {
		t.Errorf("expected ToI64 on a non-numeric node to fall back to 0, got %d", got)
	}
	if got := n.ToU32(); got != 0 {
		t.Errorf("expected ToU32 on a non-numeric node to fall back to 0, got %d", got)
	}
	if got := n.ToF64(); got != 0 {
		t.Errorf("expected ToF64 on a non-numeric node to fall back to 0, got %v", got)
	}
}

func TestNumericCoercionsCrossKind(t *testing.T) {
	if got := F64(3.9).ToI64(); got != 3 {
		t.Errorf("expected float-to-int truncation, got %d", got)
	}
	if got := I8(-1).ToU64(); got != uint64(18446744073709551615) {
		t.Errorf("expected sign-extension-then-reinterpret semantics for negative to unsigned, got %d", got)
	}
	if got := U8(200).ToI8(); got != int8(-56) {
		t.Errorf("expected truncating reinterpretation to int8, got %d", got)
	}
}

func TestToBoolIsDefinedAsToU8NonZero(t *testing.T) {
	if !Bool(true).ToBool() {
		t.Errorf("expected Bool(true).ToBool() == true")
	}
	if Bool(false).ToBool() {
		t.Errorf("expected Bool(false).ToBool() == false")
	}
	if !I32(5).ToBool() {
		t.Errorf("expected a non-zero numeric node to coerce to true")
	}
}

func TestToStringFallsBackPerKind(t *testing.T) {
	cases := []struct {
		n    *Node
		want string
	}{
		{String("hi"), "hi"},
		{TokenNode(Token{Text: "tok"}), "tok"},
		{Record("Decl", nil, nil, Range{}), "Decl"},
		{Bool(true), "true"},
		{None(), ""},
		{I32(42), "42"},
		{F64(1.5), "1.5"},
	}
	for _, c := range cases {
		if got := c.n.ToString(); got != c.want {
			t.Errorf("ToString() for kind %v: got %q, want %q", c.n.GetType(), got, c.want)
		}
	}
}

func TestIntoStringsFlattensStringListAndNodeList(t *testing.T) {
	sl := StringList([]string{"a", "b"})
	if got := sl.IntoStrings(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected IntoStrings on StringList: %v", got)
	}

	nl := NodeList([]*Node{String("x"), String("y")})
	if got := nl.IntoStrings(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("unexpected IntoStrings on NodeList: %v", got)
	}

	if got := I32(1).IntoStrings(); got != nil {
		t.Errorf("expected nil IntoStrings on a non-list node, got %v", got)
	}
}

func TestIntoI64VecAndIntoF64Vec(t *testing.T) {
	nl := NodeList([]*Node{I32(1), I32(2), I32(3)})
	ints := nl.IntoI64Vec()
	if len(ints) != 3 || ints[2] != 3 {
		t.Errorf("unexpected IntoI64Vec: %v", ints)
	}

	fl := NodeList([]*Node{F64(1.5), F64(2.5)})
	floats := fl.IntoF64Vec()
	if len(floats) != 2 || floats[1] != 2.5 {
		t.Errorf("unexpected IntoF64Vec: %v", floats)
	}
}

func TestHashIsDeterministicForEqualValues(t *testing.T) {
	a := Record("Decl", []string{"name"}, map[string]*Node{"name": String("x")}, Range{})
	b := Record("Decl", []string{"name"}, map[string]*Node{"name": String("x")}, Range{})
	if a.Hash() != b.Hash() {
		t.Errorf("expected equal records to hash identically: %d != %d", a.Hash(), b.Hash())
	}
}

func TestHashIsSensitiveToFieldOrder(t *testing.T) {
	fields := map[string]*Node{"a": I32(1), "b": I32(2)}
	ab := Record("R", []string{"a", "b"}, fields, Range{})
	ba := Record("R", []string{"b", "a"}, fields, Range{})
	if ab.Hash() == ba.Hash() {
		t.Errorf("expected field order to affect the hash: %d == %d", ab.Hash(), ba.Hash())
	}
}

func TestHashTokenIgnoresWhitespaceDifferences(t *testing.T) {
	a := TokenNode(Token{Text: "foo bar"})
	b := TokenNode(Token{Text: "  foo   bar  "})
	if a.Hash() != b.Hash() {
		t.Errorf("expected whitespace-only differences to hash identically: %d != %d", a.Hash(), b.Hash())
	}
}

func TestHashFloatUsesBitPatternNotValue(t *testing.T) {
	zero := F64(0.0)
	negZero := F64(math.Copysign(0, -1))
	if zero.Hash() == negZero.Hash() {
		t.Errorf("expected +0.0 and -0.0 to hash differently by IEEE-754 bit pattern")
	}
}

func TestHashDistinguishesKindOverValue(t *testing.T) {
	i := I32(0)
	f := F64(0)
	if i.Hash() == f.Hash() {
		t.Errorf("expected distinct kinds with the same underlying numeric value to hash differently")
	}
}
