package flat

import (
	"fmt"

	"github.com/ngernest/flat-bril/bril"
)

// ---------------------------------------------------------------------------
// Unflatten: Store/View -> tree IR
// ---------------------------------------------------------------------------

// Unflatten projects a flattened function back into tree form, preserving
// source instruction order. The const / value-op / effect-op distinction is
// re-derived from the opcode classification and the presence of a dest,
// exactly as the interpreter derives it; the flattened form stores no
// separate kind tag.
func Unflatten(v *View) (*bril.Function, error) {
	fn := &bril.Function{Name: v.Name()}

	if v.RetType() != TypeNull {
		fn.Type = v.RetType().Text()
	}
	for i := 0; i < v.NumParams(); i++ {
		name, t, err := v.Param(i)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fn.Name, err)
		}
		if t == TypeNull {
			return nil, fmt.Errorf("%w: function %s parameter %s has no type", ErrParseShape, fn.Name, name)
		}
		fn.Args = append(fn.Args, bril.Param{Name: name, Type: t.Text()})
	}

	fn.Instrs = make([]bril.Instruction, 0, v.NumRows())
	for i := 0; i < v.NumRows(); i++ {
		row := v.Row(i)
		instr, err := unflattenRow(v, &row)
		if err != nil {
			return nil, fmt.Errorf("function %s, record %d: %w", fn.Name, i, err)
		}
		fn.Instrs = append(fn.Instrs, instr)
	}
	return fn, nil
}

// UnflattenStore is the Store-side projection, used before a function has
// been lowered to bytes.
func UnflattenStore(s *Store) (*bril.Function, error) {
	v, err := s.Freeze()
	if err != nil {
		return nil, err
	}
	return Unflatten(v)
}

// UnflattenImage projects every function of an image back to tree form.
func UnflattenImage(img *Image) (*bril.Program, error) {
	p := &bril.Program{Functions: make([]bril.Function, 0, img.NumFunctions())}
	for _, v := range img.Views() {
		fn, err := Unflatten(v)
		if err != nil {
			return nil, err
		}
		p.Functions = append(p.Functions, *fn)
	}
	return p, nil
}

// unflattenRow rebuilds one tree instruction from its fixed-width record.
func unflattenRow(v *View, row *FlatInstr) (bril.Instruction, error) {
	// Label markers round-trip to bare label entries.
	if row.IsLabel() {
		name, err := v.LabelName(row.Labels)
		if err != nil {
			return bril.Instruction{}, err
		}
		return bril.Instruction{Label: name}, nil
	}

	op := Opcode(row.Op)
	if !op.Valid() {
		return bril.Instruction{}, fmt.Errorf("%w: record carries opcode %d", ErrInvalidOpcode, row.Op)
	}
	instr := bril.Instruction{Op: op.Text()}

	if row.Dest.Present() {
		dest, err := v.VarName(row.Dest)
		if err != nil {
			return bril.Instruction{}, err
		}
		instr.Dest = dest
		if row.Type != TypeNull {
			instr.Type = row.Type.Text()
		}
	}

	if op == OpConst {
		if !row.Dest.Present() {
			return bril.Instruction{}, fmt.Errorf("%w: const without dest", ErrParseShape)
		}
		switch row.Value.Kind {
		case ValueInt:
			instr.Value = bril.IntLiteral(row.Value.Int)
		case ValueBool:
			instr.Value = bril.BoolLiteral(row.Value.Bool)
		default:
			return bril.Instruction{}, fmt.Errorf("%w: const without inline value", ErrNullValue)
		}
		return instr, nil
	}

	args, err := v.ArgNames(row.Args)
	if err != nil {
		return bril.Instruction{}, err
	}
	instr.Args = args

	labels, err := v.LabelNames(row.Labels)
	if err != nil {
		return bril.Instruction{}, err
	}
	instr.Labels = labels

	if row.Funcs.Present() {
		callee, err := v.FuncRef(row.Funcs)
		if err != nil {
			return bril.Instruction{}, err
		}
		instr.Funcs = []string{callee}
	}

	return instr, nil
}
