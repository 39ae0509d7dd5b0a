package flat

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies a core Bril operation. The numeric values are stable and
// index directly into opcodeIdx; they are what the fixed-width instruction
// records store on disk.
type Opcode uint32

// Arithmetic
const (
	OpAdd Opcode = 0
	OpMul Opcode = 1
	OpSub Opcode = 2
	OpDiv Opcode = 3
)

// Comparison
const (
	OpEq Opcode = 4
	OpLt Opcode = 5
	OpGt Opcode = 6
	OpLe Opcode = 7
	OpGe Opcode = 8
)

// Logic
const (
	OpNot Opcode = 9
	OpAnd Opcode = 10
	OpOr  Opcode = 11
)

// Control flow
const (
	OpJmp  Opcode = 12
	OpBr   Opcode = 13
	OpCall Opcode = 14
	OpRet  Opcode = 15
)

// Misc
const (
	OpId    Opcode = 16
	OpPrint Opcode = 17
	OpNop   Opcode = 18
	OpConst Opcode = 19
)

// NumOpcodes is the number of distinct core Bril opcodes.
const NumOpcodes = 20

// LabelOpcode is the reserved sentinel stored in the opcode field of a
// fixed-width record to mark a label row. It is not a real opcode and never
// dispatches; it exists only so label markers fit the uniform record size.
const LabelOpcode uint32 = 0xFFFFFFFF

// OpcodeBuffer holds every mnemonic back to back. An opcode's text is the
// inclusive byte range opcodeIdx[op] of this buffer.
const OpcodeBuffer = "addmulsubdiveqltgtlegenotandorjmpbrcallretidprintnopconst"

// opcodeIdx maps each opcode to the (start, end) of its mnemonic in
// OpcodeBuffer. Both indexes are inclusive.
var opcodeIdx = [NumOpcodes]Span{
	{0, 2},   // add
	{3, 5},   // mul
	{6, 8},   // sub
	{9, 11},  // div
	{12, 13}, // eq
	{14, 15}, // lt
	{16, 17}, // gt
	{18, 19}, // le
	{20, 21}, // ge
	{22, 24}, // not
	{25, 27}, // and
	{28, 29}, // or
	{30, 32}, // jmp
	{33, 34}, // br
	{35, 38}, // call
	{39, 41}, // ret
	{42, 43}, // id
	{44, 48}, // print
	{49, 51}, // nop
	{52, 56}, // const
}

// Valid reports whether op is one of the fixed opcodes.
func (op Opcode) Valid() bool {
	return op < NumOpcodes
}

// Text returns the mnemonic for op. Total for valid opcodes.
func (op Opcode) Text() string {
	s := opcodeIdx[op]
	return OpcodeBuffer[s.Start : s.End+1]
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("UNKNOWN_%d", uint32(op))
	}
	return op.Text()
}

// OpcodeFromText resolves a mnemonic to its Opcode. It fails with
// ErrInvalidOpcode if s is not one of the fixed mnemonics.
func OpcodeFromText(s string) (Opcode, error) {
	for op := Opcode(0); op < NumOpcodes; op++ {
		if op.Text() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOpcode, s)
}

// ---------------------------------------------------------------------------
// Classification predicates
// ---------------------------------------------------------------------------

// These are derived from the opcode alone and never stored. The interpreter
// and the decoder both rely on them (plus the presence of a dest) to agree
// on instruction kind.

// IsUnary reports whether op takes exactly one argument and produces a value.
func (op Opcode) IsUnary() bool {
	return op == OpNot || op == OpId
}

// IsBinary reports whether op takes exactly two arguments and produces a value.
func (op Opcode) IsBinary() bool {
	return op.IsArithmetic() || op.IsComparison() || op == OpAnd || op == OpOr
}

// IsArithmetic reports whether op is an integer arithmetic operation.
func (op Opcode) IsArithmetic() bool {
	return op == OpAdd || op == OpMul || op == OpSub || op == OpDiv
}

// IsComparison reports whether op compares two integers and yields a bool.
func (op Opcode) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// IsLogic reports whether op is a boolean logic operation.
func (op Opcode) IsLogic() bool {
	return op == OpNot || op == OpAnd || op == OpOr
}

// IsControl reports whether op transfers control.
func (op Opcode) IsControl() bool {
	return op == OpJmp || op == OpBr || op == OpCall || op == OpRet
}
