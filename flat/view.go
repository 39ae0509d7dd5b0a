package flat

import (
	"fmt"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// View: the borrowed counterpart of Store
// ---------------------------------------------------------------------------

// View exposes one function's flattened buffers as read-only slices into a
// contiguous byte region, carved out by TOC-driven offset arithmetic alone.
// Nothing is copied or re-parsed; accessors bounds-check once at the slice
// boundary and decode fixed-width records on the fly. A View must not
// outlive the region backing it (the loaded image bytes or a file mapping).
type View struct {
	block      []byte // the whole block, TOC included (content digests hash this)
	funcName   []byte
	params     []byte // raw fixed-width param records
	retType    Type
	varStore   []byte
	argIdx     []byte // raw span-table entries
	labelIdx   []byte
	labelStore []byte
	funcStore  []byte
	rows       []byte // raw fixed-width instruction records
}

// parseBlock carves a function block into a View, strictly following TOC
// order and lengths. Any inconsistency with the available bytes is
// ErrCorruptBinary.
func parseBlock(block []byte) (*View, error) {
	if len(block) < TOCSize {
		return nil, fmt.Errorf("%w: block of %d bytes is smaller than its TOC", ErrCorruptBinary, len(block))
	}

	var fields [tocFields]uint32
	for i := range fields {
		fields[i] = readUint32(block[4*i:])
	}

	retType := Type(fields[0])
	if retType > TypeNull {
		return nil, fmt.Errorf("%w: unknown return type tag %d", ErrCorruptBinary, fields[0])
	}

	lengths := fields[1:]
	var sum uint64
	for _, n := range lengths {
		sum += uint64(n)
	}
	if sum+TOCSize != uint64(len(block)) {
		return nil, fmt.Errorf("%w: TOC lengths sum to %d but block holds %d bytes",
			ErrCorruptBinary, sum+TOCSize, len(block))
	}
	if lengths[1]%paramSize != 0 {
		return nil, fmt.Errorf("%w: param buffer length %d is not record-aligned", ErrCorruptBinary, lengths[1])
	}
	if lengths[3]%spanSize != 0 || lengths[4]%spanSize != 0 {
		return nil, fmt.Errorf("%w: span-table length is not record-aligned", ErrCorruptBinary)
	}
	if lengths[7]%flatInstrSize != 0 {
		return nil, fmt.Errorf("%w: instruction buffer length %d is not record-aligned", ErrCorruptBinary, lengths[7])
	}

	v := &View{block: block, retType: retType}
	rest := block[TOCSize:]
	carve := func(n uint32) []byte {
		out := rest[:n]
		rest = rest[n:]
		return out
	}
	v.funcName = carve(lengths[0])
	v.params = carve(lengths[1])
	v.varStore = carve(lengths[2])
	v.argIdx = carve(lengths[3])
	v.labelIdx = carve(lengths[4])
	v.labelStore = carve(lengths[5])
	v.funcStore = carve(lengths[6])
	v.rows = carve(lengths[7])
	return v, nil
}

// Freeze converts a Store into its borrowed form by lowering it to a single
// serialized block and slicing that block back up. The returned View owns
// nothing; it borrows from the freshly encoded bytes.
func (s *Store) Freeze() (*View, error) {
	return parseBlock(encodeBlock(s))
}

// ---------------------------------------------------------------------------
// Function metadata accessors
// ---------------------------------------------------------------------------

// Name returns the function name.
func (v *View) Name() string {
	return string(v.funcName)
}

// RetType returns the declared return type, TypeNull for void.
func (v *View) RetType() Type {
	return v.retType
}

// NumParams returns the number of declared parameters.
func (v *View) NumParams() int {
	return len(v.params) / paramSize
}

// Param decodes the i'th declared parameter.
func (v *View) Param(i int) (name string, t Type, err error) {
	off := i * paramSize
	span := readSpan(v.params[off:])
	t = Type(readUint32(v.params[off+8:]))
	name, err = v.name(v.varStore, span, "parameter")
	return name, t, err
}

// ---------------------------------------------------------------------------
// Row accessors
// ---------------------------------------------------------------------------

// NumRows returns the number of instruction records, label markers included.
func (v *View) NumRows() int {
	return len(v.rows) / flatInstrSize
}

// Row decodes the i'th fixed-width record. Label markers come back with the
// LabelOpcode sentinel and their name span in the Labels field.
func (v *View) Row(i int) FlatInstr {
	buf := v.rows[i*flatInstrSize:]
	fi := FlatInstr{
		Op:     readUint32(buf[0:]),
		Dest:   readSpan(buf[4:]),
		Args:   readSpan(buf[12:]),
		Labels: readSpan(buf[20:]),
		Funcs:  readSpan(buf[28:]),
		Type:   Type(readUint32(buf[36:])),
	}
	kind := ValueKind(readUint32(buf[40:]))
	payload := readUint64(buf[44:])
	switch kind {
	case ValueInt:
		fi.Value = IntValue(int64(payload))
	case ValueBool:
		fi.Value = BoolValue(payload != 0)
	default:
		fi.Value = Null
	}
	return fi
}

// ---------------------------------------------------------------------------
// Span resolution
// ---------------------------------------------------------------------------

// name slices a span out of a name buffer and validates it as UTF-8.
func (v *View) name(buf []byte, s Span, what string) (string, error) {
	if !s.Present() {
		return "", fmt.Errorf("%w: missing %s", ErrParseShape, what)
	}
	if s.End < s.Start || int(s.End) >= len(buf) {
		return "", fmt.Errorf("%w: %s span [%d,%d] outside buffer of %d bytes",
			ErrCorruptBinary, what, s.Start, s.End, len(buf))
	}
	b := buf[s.Start : s.End+1]
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s bytes are not valid UTF-8", ErrInvalidEncoding, what)
	}
	return string(b), nil
}

// VarName resolves a span into the variable-name buffer.
func (v *View) VarName(s Span) (string, error) {
	return v.name(v.varStore, s, "variable name")
}

// LabelName resolves a span into the label-name buffer.
func (v *View) LabelName(s Span) (string, error) {
	return v.name(v.labelStore, s, "label name")
}

// FuncRef resolves a span into the function-name buffer.
func (v *View) FuncRef(s Span) (string, error) {
	return v.name(v.funcStore, s, "func reference")
}

// spanTable slices a run of entries out of a span-table. The instruction's
// span indexes entries, not bytes.
func (v *View) spanTable(table []byte, s Span, what string) ([]Span, error) {
	if !s.Present() {
		return nil, nil
	}
	count := len(table) / spanSize
	if s.End < s.Start || int(s.End) >= count {
		return nil, fmt.Errorf("%w: %s run [%d,%d] outside table of %d entries",
			ErrCorruptBinary, what, s.Start, s.End, count)
	}
	out := make([]Span, 0, s.Len())
	for i := s.Start; i <= s.End; i++ {
		out = append(out, readSpan(table[i*spanSize:]))
	}
	return out, nil
}

// ArgSpans resolves an instruction's args field to the name spans it covers.
func (v *View) ArgSpans(s Span) ([]Span, error) {
	return v.spanTable(v.argIdx, s, "arg")
}

// LabelSpans resolves an instruction's labels field to the name spans it covers.
func (v *View) LabelSpans(s Span) ([]Span, error) {
	return v.spanTable(v.labelIdx, s, "label")
}

// ArgNames resolves an instruction's args field all the way to strings.
func (v *View) ArgNames(s Span) ([]string, error) {
	spans, err := v.ArgSpans(s)
	if err != nil || len(spans) == 0 {
		return nil, err
	}
	names := make([]string, len(spans))
	for i, sp := range spans {
		if names[i], err = v.VarName(sp); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// LabelNames resolves an instruction's labels field all the way to strings.
func (v *View) LabelNames(s Span) ([]string, error) {
	spans, err := v.LabelSpans(s)
	if err != nil || len(spans) == 0 {
		return nil, err
	}
	names := make([]string, len(spans))
	for i, sp := range spans {
		if names[i], err = v.LabelName(sp); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Buffers returns the raw carved buffers in TOC order. Used by conformance
// tests to compare a reconstructed View byte-for-byte against its Store.
func (v *View) Buffers() (funcName, params, varStore, argIdx, labelIdx, labelStore, funcStore, rows []byte) {
	return v.funcName, v.params, v.varStore, v.argIdx, v.labelIdx, v.labelStore, v.funcStore, v.rows
}

// Block returns the function's whole serialized block, TOC included.
func (v *View) Block() []byte {
	return v.block
}
