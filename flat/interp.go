package flat

import (
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Interp: execution directly against flattened Views
// ---------------------------------------------------------------------------

// Interp executes a loaded program. Execution is synchronous and
// single-threaded: a program counter walks the current function's record
// sequence, an environment maps variable names to values for the current
// activation only, and jump targets are resolved by scanning the sequence
// for a matching label marker. Every error is fatal to the whole run; a
// malformed instruction stream is a programming defect, not a runtime
// condition.
type Interp struct {
	img *Image
	out io.Writer
}

// NewInterp creates an interpreter over an image, writing print output to out.
func NewInterp(img *Image, out io.Writer) *Interp {
	return &Interp{img: img, out: out}
}

// Run executes the named entry function with the given argument values,
// which the caller has already validated against the declared parameters.
// It returns the entry activation's result (Null for void functions).
func (in *Interp) Run(entry string, args []Value) (Value, error) {
	view, ok := in.img.Lookup(entry)
	if !ok {
		return Null, fmt.Errorf("interp: no function named %q in image", entry)
	}
	return in.call(view, args)
}

// call runs one activation to completion: it binds the declared parameters
// to the evaluated arguments in a fresh environment and loops until the
// program counter runs off the end or a ret executes.
func (in *Interp) call(v *View, args []Value) (Value, error) {
	if len(args) != v.NumParams() {
		return Null, fmt.Errorf("%w: %s declares %d parameters, got %d arguments",
			ErrArityMismatch, v.Name(), v.NumParams(), len(args))
	}

	env := make(map[string]Value, v.NumParams())
	for i, arg := range args {
		name, t, err := v.Param(i)
		if err != nil {
			return Null, err
		}
		if !valueHasType(arg, t) {
			return Null, fmt.Errorf("%w: %s parameter %s wants %s, got %s",
				ErrTypeMismatch, v.Name(), name, t.Text(), arg.Text())
		}
		env[name] = arg
	}

	pc := 0
	for pc < v.NumRows() {
		row := v.Row(pc)

		// Label markers are transparent at runtime: pure jump targets.
		if row.IsLabel() {
			pc++
			continue
		}

		op := Opcode(row.Op)
		if !op.Valid() {
			return Null, fmt.Errorf("%w: record %d carries opcode %d", ErrInvalidOpcode, pc, row.Op)
		}

		switch {
		case op == OpConst:
			if row.Value.Kind == ValueNull {
				return Null, fmt.Errorf("%w: const at record %d has no inline value", ErrNullValue, pc)
			}
			dest, err := v.VarName(row.Dest)
			if err != nil {
				return Null, err
			}
			env[dest] = row.Value
			pc++

		case op.IsUnary():
			args, err := in.operands(v, env, row.Args, 1, op)
			if err != nil {
				return Null, err
			}
			result := args[0]
			if op == OpNot {
				if result.Kind != ValueBool {
					return Null, fmt.Errorf("%w: not wants a bool, got %s", ErrTypeMismatch, result.Text())
				}
				result = BoolValue(!result.Bool)
			}
			dest, err := v.VarName(row.Dest)
			if err != nil {
				return Null, err
			}
			env[dest] = result
			pc++

		case op.IsBinary():
			args, err := in.operands(v, env, row.Args, 2, op)
			if err != nil {
				return Null, err
			}
			result, err := applyBinary(op, args[0], args[1])
			if err != nil {
				return Null, err
			}
			dest, err := v.VarName(row.Dest)
			if err != nil {
				return Null, err
			}
			env[dest] = result
			pc++

		case op == OpPrint:
			args, err := in.operands(v, env, row.Args, 1, op)
			if err != nil {
				return Null, err
			}
			if _, err := fmt.Fprintln(in.out, args[0].Text()); err != nil {
				return Null, fmt.Errorf("interp: print: %w", err)
			}
			pc++

		case op == OpJmp:
			targets, err := v.LabelNames(row.Labels)
			if err != nil {
				return Null, err
			}
			if len(targets) != 1 {
				return Null, fmt.Errorf("%w: jmp wants 1 target, got %d", ErrArityMismatch, len(targets))
			}
			if pc, err = in.findLabel(v, targets[0]); err != nil {
				return Null, err
			}

		case op == OpBr:
			args, err := in.operands(v, env, row.Args, 1, op)
			if err != nil {
				return Null, err
			}
			if args[0].Kind != ValueBool {
				return Null, fmt.Errorf("%w: br condition wants a bool, got %s", ErrTypeMismatch, args[0].Text())
			}
			targets, err := v.LabelNames(row.Labels)
			if err != nil {
				return Null, err
			}
			// Fixed order: true target first, false target second.
			if len(targets) != 2 {
				return Null, fmt.Errorf("%w: br wants 2 targets, got %d", ErrArityMismatch, len(targets))
			}
			target := targets[0]
			if !args[0].Bool {
				target = targets[1]
			}
			if pc, err = in.findLabel(v, target); err != nil {
				return Null, err
			}

		case op == OpCall:
			if err := in.doCall(v, env, &row); err != nil {
				return Null, err
			}
			pc++

		case op == OpRet:
			names, err := v.ArgNames(row.Args)
			if err != nil {
				return Null, err
			}
			switch len(names) {
			case 0:
				return Null, nil
			case 1:
				result, ok := env[names[0]]
				if !ok {
					return Null, fmt.Errorf("%w: %s", ErrUnboundVariable, names[0])
				}
				return result, nil
			default:
				return Null, fmt.Errorf("%w: ret carries %d values", ErrArityMismatch, len(names))
			}

		case op == OpNop:
			pc++

		default:
			return Null, fmt.Errorf("%w: %s is not executable", ErrInvalidOpcode, op)
		}
	}

	// Falling off the end of the sequence terminates the activation.
	return Null, nil
}

// doCall resolves the callee, evaluates the arguments in the caller's
// environment, runs the callee activation to completion, and binds the
// returned value in the caller only when the call names a dest.
func (in *Interp) doCall(v *View, env map[string]Value, row *FlatInstr) error {
	if !row.Funcs.Present() {
		return fmt.Errorf("%w: call without a callee", ErrArityMismatch)
	}
	callee, err := v.FuncRef(row.Funcs)
	if err != nil {
		return err
	}
	target, ok := in.img.Lookup(callee)
	if !ok {
		return fmt.Errorf("interp: call to unknown function %q", callee)
	}

	names, err := v.ArgNames(row.Args)
	if err != nil {
		return err
	}
	args := make([]Value, len(names))
	for i, name := range names {
		val, ok := env[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnboundVariable, name)
		}
		args[i] = val
	}

	result, err := in.call(target, args)
	if err != nil {
		return err
	}

	if row.Dest.Present() {
		dest, err := v.VarName(row.Dest)
		if err != nil {
			return err
		}
		env[dest] = result
	}
	return nil
}

// operands resolves an instruction's args to exactly want values,
// left-to-right, looking each name up in the environment.
func (in *Interp) operands(v *View, env map[string]Value, args Span, want int, op Opcode) ([]Value, error) {
	names, err := v.ArgNames(args)
	if err != nil {
		return nil, err
	}
	if len(names) != want {
		return nil, fmt.Errorf("%w: %s wants %d args, got %d", ErrArityMismatch, op, want, len(names))
	}
	vals := make([]Value, len(names))
	for i, name := range names {
		val, ok := env[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundVariable, name)
		}
		vals[i] = val
	}
	return vals, nil
}

// findLabel scans the record sequence for a label marker with the given
// name. First match wins on duplicates.
func (in *Interp) findLabel(v *View, name string) (int, error) {
	for i := 0; i < v.NumRows(); i++ {
		row := v.Row(i)
		if !row.IsLabel() {
			continue
		}
		marker, err := v.LabelName(row.Labels)
		if err != nil {
			return 0, err
		}
		if marker == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: .%s", ErrUnknownLabel, name)
}

// applyBinary evaluates a two-operand value operation. Arithmetic is
// wraparound two's-complement and never panics on overflow; comparisons
// take ints and yield bools; logic takes bools.
func applyBinary(op Opcode, a, b Value) (Value, error) {
	if op.IsArithmetic() || op.IsComparison() {
		if a.Kind != ValueInt || b.Kind != ValueInt {
			return Null, fmt.Errorf("%w: %s wants ints, got %s and %s", ErrTypeMismatch, op, a.Text(), b.Text())
		}
	} else {
		if a.Kind != ValueBool || b.Kind != ValueBool {
			return Null, fmt.Errorf("%w: %s wants bools, got %s and %s", ErrTypeMismatch, op, a.Text(), b.Text())
		}
	}

	switch op {
	case OpAdd:
		return IntValue(a.Int + b.Int), nil
	case OpSub:
		return IntValue(a.Int - b.Int), nil
	case OpMul:
		return IntValue(a.Int * b.Int), nil
	case OpDiv:
		if b.Int == 0 {
			return Null, fmt.Errorf("interp: division by zero")
		}
		return IntValue(a.Int / b.Int), nil
	case OpEq:
		return BoolValue(a.Int == b.Int), nil
	case OpLt:
		return BoolValue(a.Int < b.Int), nil
	case OpGt:
		return BoolValue(a.Int > b.Int), nil
	case OpLe:
		return BoolValue(a.Int <= b.Int), nil
	case OpGe:
		return BoolValue(a.Int >= b.Int), nil
	case OpAnd:
		return BoolValue(a.Bool && b.Bool), nil
	case OpOr:
		return BoolValue(a.Bool || b.Bool), nil
	default:
		return Null, fmt.Errorf("%w: %s is not a binary op", ErrInvalidOpcode, op)
	}
}

// valueHasType reports whether a runtime value inhabits a declared type.
func valueHasType(v Value, t Type) bool {
	switch t {
	case TypeInt:
		return v.Kind == ValueInt
	case TypeBool:
		return v.Kind == ValueBool
	default:
		return v.Kind == ValueNull
	}
}
