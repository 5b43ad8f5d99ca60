/*
Package astnode defines the data contract an external code generator's
emitted AST-node family must satisfy (spec §4.9): a tagged sum covering
primitive scalars, scalar lists, tokens, and grammar-production records,
plus the extraction, coercion, and deterministic-hashing operations
downstream tooling relies on.

This package does not generate that family — a surface grammar's codegen
collaborator does, one concrete Go type per production. What lives here is
the boundary: a single, grammar-agnostic Node any such generator's output
can be expressed in terms of, plus the operations every variant must
support.

License

Governed by a 3-Clause BSD license, as github.com/npillmayer/gorgo is.

Copyright © 2017–2026 Norbert Pillmayer <norbert@pillmayer.com>
*/
package astnode

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Kind tags a Node's variant (spec §4.9 "a tagged sum Node").
type Kind uint8

const (
	KindNone Kind = iota
	KindNodeList
	KindString
	KindStringList
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindBool
	KindToken
	KindTokenList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindNodeList:
		return "NodeList"
	case KindString:
		return "String"
	case KindStringList:
		return "StringList"
	case KindI8, KindI16, KindI32, KindI64:
		return "Int"
	case KindU8, KindU16, KindU32, KindU64:
		return "UInt"
	case KindF32, KindF64:
		return "Float"
	case KindBool:
		return "Bool"
	case KindToken:
		return "Token"
	case KindTokenList:
		return "TokenList"
	case KindRecord:
		return "Record"
	default:
		return "Unknown"
	}
}

// Token is a single lexical token as seen by the AST layer: its text and
// its position in the source token stream.
type Token struct {
	Text string
	Pos  int
}

// Range is a node's source token range, [Start, End).
type Range struct {
	Start int
	End   int
}

// TypeMismatchError is returned by a To<Variant> extraction when the
// node's actual Kind does not match the requested variant (spec §4.9
// "fails with TypeMismatch when variant ≠ requested").
type TypeMismatchError struct {
	Want Kind
	Have Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("astnode: type mismatch: want %s, have %s", e.Want, e.Have)
}

// Node is the boundary value external code generators produce (spec
// §4.9). Exactly one field group is meaningful for a given Kind; which
// one is determined by the constructor used.
type Node struct {
	kind Kind

	recordName string
	fields     map[string]*Node
	fieldOrder []string

	list []*Node
	str  string
	strs []string

	i   int64
	u   uint64
	f   float64
	b   bool

	tok  Token
	toks []Token

	Range Range
}

// --- constructors ---------------------------------------------------------

func None() *Node { return &Node{kind: KindNone} }

func NodeList(items []*Node) *Node { return &Node{kind: KindNodeList, list: items} }

func String(s string) *Node { return &Node{kind: KindString, str: s} }

func StringList(ss []string) *Node { return &Node{kind: KindStringList, strs: ss} }

func I8(v int8) *Node   { return &Node{kind: KindI8, i: int64(v)} }
func I16(v int16) *Node { return &Node{kind: KindI16, i: int64(v)} }
func I32(v int32) *Node { return &Node{kind: KindI32, i: int64(v)} }
func I64(v int64) *Node { return &Node{kind: KindI64, i: v} }

func U8(v uint8) *Node   { return &Node{kind: KindU8, u: uint64(v)} }
func U16(v uint16) *Node { return &Node{kind: KindU16, u: uint64(v)} }
func U32(v uint32) *Node { return &Node{kind: KindU32, u: uint64(v)} }
func U64(v uint64) *Node { return &Node{kind: KindU64, u: v} }

func F32(v float32) *Node { return &Node{kind: KindF32, f: float64(v)} }
func F64(v float64) *Node { return &Node{kind: KindF64, f: v} }

func Bool(v bool) *Node { return &Node{kind: KindBool, b: v} }

func TokenNode(t Token) *Node { return &Node{kind: KindToken, tok: t} }

func TokenList(ts []Token) *Node { return &Node{kind: KindTokenList, toks: ts} }

// Record builds a domain record variant — one per named grammar
// production — carrying its fields in declaration order and the source
// range it was extracted from.
func Record(name string, fieldOrder []string, fields map[string]*Node, rng Range) *Node {
	return &Node{kind: KindRecord, recordName: name, fieldOrder: fieldOrder, fields: fields, Range: rng}
}

// --- type inspection --------------------------------------------------

// GetType returns the node's variant tag.
func (n *Node) GetType() Kind { return n.kind }

// RecordName returns the production name for a Record node, "" otherwise.
func (n *Node) RecordName() string { return n.recordName }

// --- consuming extraction (spec §4.9 to_<variant>) ------------------------

func (n *Node) ToNodeList() ([]*Node, error) {
	if n.kind != KindNodeList {
		return nil, &TypeMismatchError{Want: KindNodeList, Have: n.kind}
	}
	return n.list, nil
}

func (n *Node) ToStringValue() (string, error) {
	if n.kind != KindString {
		return "", &TypeMismatchError{Want: KindString, Have: n.kind}
	}
	return n.str, nil
}

func (n *Node) ToStringList() ([]string, error) {
	if n.kind != KindStringList {
		return nil, &TypeMismatchError{Want: KindStringList, Have: n.kind}
	}
	return n.strs, nil
}

func (n *Node) ToToken() (Token, error) {
	if n.kind != KindToken {
		return Token{}, &TypeMismatchError{Want: KindToken, Have: n.kind}
	}
	return n.tok, nil
}

func (n *Node) ToTokenList() ([]Token, error) {
	if n.kind != KindTokenList {
		return nil, &TypeMismatchError{Want: KindTokenList, Have: n.kind}
	}
	return n.toks, nil
}

func (n *Node) ToRecord() (string, map[string]*Node, error) {
	if n.kind != KindRecord {
		return "", nil, &TypeMismatchError{Want: KindRecord, Have: n.kind}
	}
	return n.recordName, n.fields, nil
}

// --- optional borrow (spec §4.9 as_<variant>) ------------------------

func (n *Node) AsNodeList() ([]*Node, bool) {
	if n.kind != KindNodeList {
		return nil, false
	}
	return n.list, true
}

func (n *Node) AsString() (string, bool) {
	if n.kind != KindString {
		return "", false
	}
	return n.str, true
}

func (n *Node) AsToken() (Token, bool) {
	if n.kind != KindToken {
		return Token{}, false
	}
	return n.tok, true
}

func (n *Node) AsRecord() (string, map[string]*Node, bool) {
	if n.kind != KindRecord {
		return "", nil, false
	}
	return n.recordName, n.fields, true
}

// Field looks up a named field of a Record node.
func (n *Node) Field(name string) (*Node, bool) {
	if n.kind != KindRecord {
		return nil, false
	}
	f, ok := n.fields[name]
	return f, ok
}

// --- numeric coercions (spec §4.9: fall back to 0 on non-numeric) --------

func (n *Node) isSigned() bool {
	switch n.kind {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	}
	return false
}

func (n *Node) isUnsigned() bool {
	switch n.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return true
	}
	return false
}

func (n *Node) isFloat() bool {
	return n.kind == KindF32 || n.kind == KindF64
}

// numeric collapses this node to a single int64-ish value for coercion
// purposes, or 0 if it carries no numeric payload.
func (n *Node) numeric() int64 {
	switch {
	case n.isSigned():
		return n.i
	case n.isUnsigned():
		return int64(n.u)
	case n.isFloat():
		return int64(n.f)
	case n.kind == KindBool:
		if n.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (n *Node) ToI8() int8   { return int8(n.numeric()) }
func (n *Node) ToI16() int16 { return int16(n.numeric()) }
func (n *Node) ToI32() int32 { return int32(n.numeric()) }
func (n *Node) ToI64() int64 { return n.numeric() }

func (n *Node) ToU8() uint8   { return uint8(n.numeric()) }
func (n *Node) ToU16() uint16 { return uint16(n.numeric()) }
func (n *Node) ToU32() uint32 { return uint32(n.numeric()) }
func (n *Node) ToU64() uint64 {
	if n.isUnsigned() {
		return n.u
	}
	return uint64(n.numeric())
}

func (n *Node) ToF32() float32 {
	if n.isFloat() {
		return float32(n.f)
	}
	return float32(n.numeric())
}

func (n *Node) ToF64() float64 {
	if n.isFloat() {
		return n.f
	}
	return float64(n.numeric())
}

// ToBool is defined as to_u8() != 0 (spec §4.9).
func (n *Node) ToBool() bool { return n.ToU8() != 0 }

// ToString renders the node's natural scalar value as a string, falling
// back to its token text or record name where there is no scalar.
func (n *Node) ToString() string {
	switch n.kind {
	case KindString:
		return n.str
	case KindToken:
		return n.tok.Text
	case KindRecord:
		return n.recordName
	case KindBool:
		return fmt.Sprintf("%v", n.b)
	case KindNone:
		return ""
	default:
		if n.isSigned() {
			return fmt.Sprintf("%d", n.i)
		}
		if n.isUnsigned() {
			return fmt.Sprintf("%d", n.u)
		}
		if n.isFloat() {
			return fmt.Sprintf("%g", n.f)
		}
		return ""
	}
}

// IntoStrings flattens a StringList (or NodeList of String nodes) into a
// plain []string.
func (n *Node) IntoStrings() []string {
	switch n.kind {
	case KindStringList:
		return n.strs
	case KindNodeList:
		out := make([]string, 0, len(n.list))
		for _, c := range n.list {
			out = append(out, c.ToString())
		}
		return out
	default:
		return nil
	}
}

// IntoI64Vec flattens a NodeList of signed-integer nodes into []int64.
func (n *Node) IntoI64Vec() []int64 {
	if n.kind != KindNodeList {
		return nil
	}
	out := make([]int64, 0, len(n.list))
	for _, c := range n.list {
		out = append(out, c.ToI64())
	}
	return out
}

// IntoF64Vec flattens a NodeList of float-ish nodes into []float64.
func (n *Node) IntoF64Vec() []float64 {
	if n.kind != KindNodeList {
		return nil
	}
	out := make([]float64, 0, len(n.list))
	for _, c := range n.list {
		out = append(out, c.ToF64())
	}
	return out
}

// --- deterministic hashing (spec §4.9) -------------------------------

// Hash folds the node into a 64-bit digest: the type tag first, then
// fields in declaration order. Float fields hash by their IEEE-754
// little-endian bit pattern; token fields hash by whitespace-stripped
// UTF-8 text.
func (n *Node) Hash() uint64 {
	h := fnvOffset
	h = hashByte(h, byte(n.kind))
	switch n.kind {
	case KindNone:
		// no payload
	case KindNodeList:
		for _, c := range n.list {
			h = hashUint64(h, c.Hash())
		}
	case KindString:
		h = hashString(h, n.str)
	case KindStringList:
		for _, s := range n.strs {
			h = hashString(h, s)
		}
	case KindI8, KindI16, KindI32, KindI64:
		h = hashUint64(h, uint64(n.i))
	case KindU8, KindU16, KindU32, KindU64:
		h = hashUint64(h, n.u)
	case KindF32, KindF64:
		h = hashUint64(h, floatBits(n.f))
	case KindBool:
		h = hashByte(h, boolByte(n.b))
	case KindToken:
		h = hashString(h, stripWhitespace(n.tok.Text))
	case KindTokenList:
		for _, t := range n.toks {
			h = hashString(h, stripWhitespace(t.Text))
		}
	case KindRecord:
		h = hashString(h, n.recordName)
		for _, name := range n.fieldOrder {
			h = hashString(h, name)
			if f, ok := n.fields[name]; ok {
				h = hashUint64(h, f.Hash())
			}
		}
	}
	return h
}

const (
	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

func hashByte(h uint64, b byte) uint64 {
	h ^= uint64(b)
	h *= fnvPrime
	return h
}

func hashString(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h = hashByte(h, s[i])
	}
	return h
}

func hashUint64(h uint64, v uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	for _, b := range buf {
		h = hashByte(h, b)
	}
	return h
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
