package flat

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ngernest/flat-bril/bril"
)

// branchy is a function exercising every span field: consts, a branch,
// labels, multi-arg instructions, and a call.
func branchy() *bril.Function {
	return &bril.Function{
		Name: "branchy",
		Args: []bril.Param{
			{Name: "n", Type: "int"},
			{Name: "flag", Type: "bool"},
		},
		Type: "int",
		Instrs: []bril.Instruction{
			{Op: "const", Dest: "one", Type: "int", Value: bril.IntLiteral(1)},
			{Op: "br", Args: []string{"flag"}, Labels: []string{"then", "else"}},
			{Label: "then"},
			{Op: "add", Dest: "m", Type: "int", Args: []string{"n", "one"}},
			{Op: "jmp", Labels: []string{"done"}},
			{Label: "else"},
			{Op: "call", Dest: "m", Type: "int", Args: []string{"n"}, Funcs: []string{"helper"}},
			{Label: "done"},
			{Op: "print", Args: []string{"m"}},
			{Op: "ret", Args: []string{"m"}},
		},
	}
}

// checkSpan fails the test if a present span is not well-formed.
func checkSpan(t *testing.T, what string, s Span) {
	t.Helper()
	if s.Present() && s.End < s.Start {
		t.Errorf("%s span (%d, %d) violates end >= start", what, s.Start, s.End)
	}
}

func TestFlattenSpanWellFormedness(t *testing.T) {
	s, err := Flatten(branchy())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	for _, p := range s.Params {
		checkSpan(t, "param name", p.Name)
	}
	for i, row := range s.Rows {
		if row.Kind == RowLabel {
			checkSpan(t, "label marker", row.Label)
			if !row.Label.Present() {
				t.Errorf("row %d: label marker without a name span", i)
			}
			continue
		}
		fi := row.Instr
		checkSpan(t, "dest", fi.Dest)
		checkSpan(t, "args", fi.Args)
		checkSpan(t, "labels", fi.Labels)
		checkSpan(t, "funcs", fi.Funcs)
	}
	for _, sp := range s.ArgIdx {
		checkSpan(t, "arg-table entry", sp)
	}
	for _, sp := range s.LabelIdx {
		checkSpan(t, "label-table entry", sp)
	}
}

func TestFlattenTwoLevelArgs(t *testing.T) {
	s, err := Flatten(branchy())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	// Row 3 is `add m n one`: its args field spans two contiguous
	// arg-table entries, each of which spans the variable-name buffer.
	add := s.Rows[3]
	if add.Kind != RowInstr || Opcode(add.Instr.Op) != OpAdd {
		t.Fatalf("row 3 = %+v, want the add instruction", add)
	}
	args := add.Instr.Args
	if args.Len() != 2 {
		t.Fatalf("add args run length = %d, want 2", args.Len())
	}

	want := []string{"n", "one"}
	for i := args.Start; i <= args.End; i++ {
		entry := s.ArgIdx[i]
		name := string(s.VarStore[entry.Start : entry.End+1])
		if name != want[i-args.Start] {
			t.Errorf("arg %d resolves to %q, want %q", i-args.Start, name, want[i-args.Start])
		}
	}
}

func TestFlattenNamesAppendInEncounterOrder(t *testing.T) {
	s, err := Flatten(branchy())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	// Parameters land first, then dests and args as encountered; names
	// are not deduplicated.
	if !bytes.HasPrefix(s.VarStore, []byte("nflagone")) {
		t.Errorf("VarStore = %q, want it to start with params then first dest", s.VarStore)
	}
	if got := string(s.FuncStore); got != "helper" {
		t.Errorf("FuncStore = %q, want %q", got, "helper")
	}
	if got := string(s.LabelStore); got != "thenelsethendoneelsedone" {
		t.Errorf("LabelStore = %q, want %q", got, "thenelsethendoneelsedone")
	}
}

func TestFlattenLabelMarkerRows(t *testing.T) {
	s, err := Flatten(branchy())
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	labels := 0
	for _, row := range s.Rows {
		if row.Kind == RowLabel {
			labels++
		}
	}
	if labels != 3 {
		t.Errorf("flattened %d label markers, want 3", labels)
	}
	if len(s.Rows) != 10 {
		t.Errorf("flattened %d rows, want 10 (instructions and markers)", len(s.Rows))
	}
}

func TestFlattenErrors(t *testing.T) {
	cases := []struct {
		name string
		fn   *bril.Function
		want error
	}{
		{
			name: "unknown opcode",
			fn: &bril.Function{Name: "f", Instrs: []bril.Instruction{
				{Op: "phi", Dest: "x", Args: []string{"a", "b"}},
			}},
			want: ErrInvalidOpcode,
		},
		{
			name: "br with one label",
			fn: &bril.Function{Name: "f", Instrs: []bril.Instruction{
				{Op: "br", Args: []string{"c"}, Labels: []string{"only"}},
			}},
			want: ErrArityMismatch,
		},
		{
			name: "jmp with two labels",
			fn: &bril.Function{Name: "f", Instrs: []bril.Instruction{
				{Op: "jmp", Labels: []string{"a", "b"}},
			}},
			want: ErrArityMismatch,
		},
		{
			name: "call with two funcs",
			fn: &bril.Function{Name: "f", Instrs: []bril.Instruction{
				{Op: "call", Funcs: []string{"g", "h"}},
			}},
			want: ErrArityMismatch,
		},
		{
			name: "unknown type",
			fn: &bril.Function{Name: "f", Instrs: []bril.Instruction{
				{Op: "const", Dest: "x", Type: "float", Value: bril.IntLiteral(0)},
			}},
			want: ErrParseShape,
		},
		{
			name: "unnamed function",
			fn:   &bril.Function{},
			want: ErrParseShape,
		},
		{
			name: "unnamed parameter",
			fn:   &bril.Function{Name: "f", Args: []bril.Param{{Type: "int"}}},
			want: ErrParseShape,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Flatten(tc.fn)
			if !errors.Is(err, tc.want) {
				t.Errorf("Flatten = %v, want %v", err, tc.want)
			}
		})
	}
}
