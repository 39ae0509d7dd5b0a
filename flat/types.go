package flat

import "strconv"

// ---------------------------------------------------------------------------
// Span
// ---------------------------------------------------------------------------

// spanAbsent marks a span field that is not present in a fixed-width record.
const spanAbsent uint32 = 0xFFFFFFFF

// Span locates a run inside a shared buffer by inclusive (start, end)
// indexes. For name buffers the indexes are bytes; for span-tables they are
// entries. Whenever a span is present, End >= Start, so the length is
// End - Start + 1. The encoder establishes that invariant by construction.
type Span struct {
	Start uint32
	End   uint32
}

// NoSpan is the absent-field sentinel.
var NoSpan = Span{spanAbsent, spanAbsent}

// Present reports whether the span refers to anything at all.
func (s Span) Present() bool {
	return s.Start != spanAbsent
}

// Len returns the number of indexed items. Zero for absent spans.
func (s Span) Len() int {
	if !s.Present() {
		return 0
	}
	return int(s.End-s.Start) + 1
}

// ---------------------------------------------------------------------------
// Types and values
// ---------------------------------------------------------------------------

// Type is a core Bril primitive type. TypeNull marks the absence of a type
// (effect instructions, void functions).
type Type uint32

const (
	TypeInt  Type = 0
	TypeBool Type = 1
	TypeNull Type = 2
)

// Text returns the source-level spelling of the type.
func (t Type) Text() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	default:
		return "null"
	}
}

// ValueKind tags a Value.
type ValueKind uint32

const (
	ValueInt  ValueKind = 0
	ValueBool ValueKind = 1
	ValueNull ValueKind = 2
)

// Value is a runtime or inline-constant value: a 64-bit integer, a bool, or
// nothing. Null is only ever the "absent" marker; well-typed programs never
// observe it.
type Value struct {
	Kind ValueKind
	Int  int64
	Bool bool
}

// Null is the absent value.
var Null = Value{Kind: ValueNull}

// IntValue wraps an int64.
func IntValue(n int64) Value {
	return Value{Kind: ValueInt, Int: n}
}

// BoolValue wraps a bool.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// Text returns the canonical printed form: signed decimal for integers,
// true/false for bools.
func (v Value) Text() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "null"
	}
}

// ---------------------------------------------------------------------------
// Flattened instruction records
// ---------------------------------------------------------------------------

// FlatInstr is the uniform fixed-width instruction record. Variable-arity
// fields are spans: Dest and Funcs point directly into a name buffer, while
// Args and Labels point into a span-table whose entries in turn point into a
// name buffer (two levels, because the record cannot hold a variable count
// of spans inline). Type and Value ride along inline since they are scalar.
//
// A record whose Op equals LabelOpcode is a label marker; its Labels field
// then holds a direct span into the label-name buffer and every other field
// is absent.
type FlatInstr struct {
	Op     uint32
	Dest   Span
	Args   Span
	Labels Span
	Funcs  Span
	Type   Type
	Value  Value
}

// IsLabel reports whether the record is a label marker rather than an
// instruction.
func (fi *FlatInstr) IsLabel() bool {
	return fi.Op == LabelOpcode
}

// ---------------------------------------------------------------------------
// Store: one function's owned flattened aggregate
// ---------------------------------------------------------------------------

// RowKind tags a Store row.
type RowKind uint8

const (
	RowInstr RowKind = iota
	RowLabel
)

// Row is one entry of a function's instruction sequence. The Store keeps the
// instruction/label distinction as a proper tag; it is lowered to the
// LabelOpcode sentinel only when the row is serialized into the fixed
// record layout.
type Row struct {
	Kind  RowKind
	Instr FlatInstr // valid when Kind == RowInstr
	Label Span      // into LabelStore, valid when Kind == RowLabel
}

// Param is one declared function parameter: its name as a span into the
// variable-name buffer, plus its type.
type Param struct {
	Name Span
	Type Type
}

// Store is the owned, growable flattened form of one function, produced by
// Flatten. VarStore/LabelStore/FuncStore hold concatenated UTF-8 name bytes
// in first-encounter order, without deduplication. ArgIdx and LabelIdx are
// the span-tables for the two-level arg/label fields.
type Store struct {
	FuncName   []byte
	Params     []Param
	RetType    Type // TypeNull for void functions
	VarStore   []byte
	ArgIdx     []Span
	LabelIdx   []Span
	LabelStore []byte
	FuncStore  []byte
	Rows       []Row
}

// Name returns the function name.
func (s *Store) Name() string {
	return string(s.FuncName)
}
