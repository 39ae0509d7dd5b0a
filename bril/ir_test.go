package bril

import (
	"reflect"
	"strings"
	"testing"
)

const fibJSON = `{
  "functions": [
    {
      "name": "main",
      "instrs": [
        {"op": "const", "dest": "n", "type": "int", "value": 10},
        {"op": "const", "dest": "ready", "type": "bool", "value": true},
        {"op": "br", "args": ["ready"], "labels": ["go", "stop"]},
        {"label": "go"},
        {"op": "call", "dest": "f", "type": "int", "args": ["n"], "funcs": ["fib"]},
        {"op": "print", "args": ["f"]},
        {"label": "stop"}
      ]
    }
  ]
}`

func TestParseProgram(t *testing.T) {
	p, err := ParseProgram([]byte(fibJSON))
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	if len(p.Functions) != 1 {
		t.Fatalf("parsed %d functions, want 1", len(p.Functions))
	}

	fn := p.Functions[0]
	if fn.Name != "main" || len(fn.Instrs) != 7 {
		t.Fatalf("main has %d instrs, want 7", len(fn.Instrs))
	}

	c := fn.Instrs[0]
	if c.Op != "const" || c.Dest != "n" || c.Type != "int" {
		t.Errorf("first instr = %+v", c)
	}
	if c.Value == nil || c.Value.IsBool || c.Value.Int != 10 {
		t.Errorf("int literal = %+v, want 10", c.Value)
	}

	b := fn.Instrs[1]
	if b.Value == nil || !b.Value.IsBool || !b.Value.Bool {
		t.Errorf("bool literal = %+v, want true", b.Value)
	}

	if !fn.Instrs[3].IsLabel() || fn.Instrs[3].Label != "go" {
		t.Errorf("instr 3 = %+v, want the go label", fn.Instrs[3])
	}
	if fn.Instrs[2].IsLabel() {
		t.Error("branch misclassified as a label")
	}

	call := fn.Instrs[4]
	if !reflect.DeepEqual(call.Funcs, []string{"fib"}) || !reflect.DeepEqual(call.Args, []string{"n"}) {
		t.Errorf("call instr = %+v", call)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	want, err := ParseProgram([]byte(fibJSON))
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	data, err := EncodeProgram(want)
	if err != nil {
		t.Fatalf("EncodeProgram failed: %v", err)
	}
	got, err := ParseProgram(data)
	if err != nil {
		t.Fatalf("ParseProgram of encoded form failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip diverged:\n got %+v\nwant %+v", got, want)
	}
}

func TestLiteralWireShape(t *testing.T) {
	p := &Program{Functions: []Function{{
		Name: "main",
		Instrs: []Instruction{
			{Op: "const", Dest: "x", Type: "int", Value: IntLiteral(-7)},
			{Op: "const", Dest: "y", Type: "bool", Value: BoolLiteral(false)},
		},
	}}}
	data, err := EncodeProgram(p)
	if err != nil {
		t.Fatalf("EncodeProgram failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"value": -7`) {
		t.Errorf("int literal not written as a bare number:\n%s", s)
	}
	if !strings.Contains(s, `"value": false`) {
		t.Errorf("bool literal not written as a bare boolean:\n%s", s)
	}
}

func TestParseProgramBadLiteral(t *testing.T) {
	bad := `{"functions": [{"name": "main", "instrs": [
		{"op": "const", "dest": "x", "type": "int", "value": "ten"}
	]}]}`
	if _, err := ParseProgram([]byte(bad)); err == nil {
		t.Error("ParseProgram accepted a string literal value")
	}
}

func TestParseProgramBadJSON(t *testing.T) {
	if _, err := ParseProgram([]byte("{")); err == nil {
		t.Error("ParseProgram accepted truncated JSON")
	}
}
