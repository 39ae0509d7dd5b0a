package flat

import (
	"fmt"

	"github.com/ngernest/flat-bril/bril"
)

// ---------------------------------------------------------------------------
// Flatten: tree IR -> Store
// ---------------------------------------------------------------------------

// Initial buffer capacities. These track what small Bril functions need;
// the slices grow past them freely.
const (
	initVars   = 64
	initLabels = 16
	initRows   = 128
)

// Flatten encodes one tree-structured function into its flattened Store in a
// single linear pass, preserving source order. Malformed shape or wrong
// arity is fatal to the function under construction; upstream is assumed to
// have validated basic tree shape already, so there is no recovery.
func Flatten(fn *bril.Function) (*Store, error) {
	if fn.Name == "" {
		return nil, fmt.Errorf("%w: function without a name", ErrParseShape)
	}

	s := &Store{
		FuncName:   []byte(fn.Name),
		RetType:    TypeNull,
		VarStore:   make([]byte, 0, initVars),
		LabelStore: make([]byte, 0, initLabels),
		Rows:       make([]Row, 0, initRows),
	}

	if fn.Type != "" {
		t, err := typeFromText(fn.Type)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		s.RetType = t
	}

	for _, p := range fn.Args {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: function %s has an unnamed parameter", ErrParseShape, fn.Name)
		}
		t, err := typeFromText(p.Type)
		if err != nil {
			return nil, fmt.Errorf("function %s, parameter %s: %w", fn.Name, p.Name, err)
		}
		s.Params = append(s.Params, Param{
			Name: appendName(&s.VarStore, p.Name),
			Type: t,
		})
	}

	for i := range fn.Instrs {
		instr := &fn.Instrs[i]
		if instr.IsLabel() {
			s.Rows = append(s.Rows, Row{
				Kind:  RowLabel,
				Label: appendName(&s.LabelStore, instr.Label),
			})
			continue
		}
		row, err := flattenInstr(s, instr)
		if err != nil {
			return nil, fmt.Errorf("function %s, instruction %d: %w", fn.Name, i, err)
		}
		s.Rows = append(s.Rows, Row{Kind: RowInstr, Instr: row})
	}

	return s, nil
}

// flattenInstr encodes one real (non-label) instruction.
func flattenInstr(s *Store, instr *bril.Instruction) (FlatInstr, error) {
	op, err := OpcodeFromText(instr.Op)
	if err != nil {
		return FlatInstr{}, err
	}

	fi := FlatInstr{
		Op:     uint32(op),
		Dest:   NoSpan,
		Args:   NoSpan,
		Labels: NoSpan,
		Funcs:  NoSpan,
		Type:   TypeNull,
		Value:  Null,
	}

	if instr.Dest != "" {
		fi.Dest = appendName(&s.VarStore, instr.Dest)
	}

	if instr.Type != "" {
		t, err := typeFromText(instr.Type)
		if err != nil {
			return FlatInstr{}, err
		}
		fi.Type = t
	}

	if instr.Value != nil {
		if instr.Value.IsBool {
			fi.Value = BoolValue(instr.Value.Bool)
		} else {
			fi.Value = IntValue(instr.Value.Int)
		}
	}

	// Two-level encoding: each argument's bytes land in the variable-name
	// buffer, the resulting spans land contiguously in the arg span-table,
	// and the instruction records the span of that run.
	if len(instr.Args) > 0 {
		start := uint32(len(s.ArgIdx))
		for _, a := range instr.Args {
			if a == "" {
				return FlatInstr{}, fmt.Errorf("%w: empty argument name", ErrParseShape)
			}
			s.ArgIdx = append(s.ArgIdx, appendName(&s.VarStore, a))
		}
		fi.Args = Span{start, uint32(len(s.ArgIdx)) - 1}
	}

	// Labels follow the identical two-level process against the label-name
	// buffer and span-table.
	if len(instr.Labels) > 0 {
		start := uint32(len(s.LabelIdx))
		for _, l := range instr.Labels {
			if l == "" {
				return FlatInstr{}, fmt.Errorf("%w: empty label name", ErrParseShape)
			}
			s.LabelIdx = append(s.LabelIdx, appendName(&s.LabelStore, l))
		}
		fi.Labels = Span{start, uint32(len(s.LabelIdx)) - 1}
	}

	switch op {
	case OpJmp:
		if fi.Labels.Len() != 1 {
			return FlatInstr{}, fmt.Errorf("%w: jmp wants 1 label, got %d", ErrArityMismatch, fi.Labels.Len())
		}
	case OpBr:
		// In order: true target, then false target.
		if fi.Labels.Len() != 2 {
			return FlatInstr{}, fmt.Errorf("%w: br wants 2 labels, got %d", ErrArityMismatch, fi.Labels.Len())
		}
	}

	// The funcs field only ever references a single callee, so it is a
	// plain span into the function-name buffer with no span-table.
	switch len(instr.Funcs) {
	case 0:
	case 1:
		if instr.Funcs[0] == "" {
			return FlatInstr{}, fmt.Errorf("%w: empty func reference", ErrParseShape)
		}
		fi.Funcs = appendName(&s.FuncStore, instr.Funcs[0])
	default:
		return FlatInstr{}, fmt.Errorf("%w: at most one func reference, got %d", ErrArityMismatch, len(instr.Funcs))
	}

	return fi, nil
}

// appendName appends a name's UTF-8 bytes to a name buffer and returns the
// inclusive span addressing them. Names are not deduplicated; every
// occurrence is appended in encounter order.
func appendName(buf *[]byte, name string) Span {
	start := uint32(len(*buf))
	*buf = append(*buf, name...)
	return Span{start, uint32(len(*buf)) - 1}
}

// typeFromText parses a source-level type name.
func typeFromText(s string) (Type, error) {
	switch s {
	case "int":
		return TypeInt, nil
	case "bool":
		return TypeBool, nil
	default:
		return TypeNull, fmt.Errorf("%w: unknown type %q", ErrParseShape, s)
	}
}
