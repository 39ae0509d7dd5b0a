package bril

import (
	"bytes"
	"reflect"
	"testing"
)

func TestCBORRoundTrip(t *testing.T) {
	want, err := ParseProgram([]byte(fibJSON))
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}

	data, err := MarshalProgramCBOR(want)
	if err != nil {
		t.Fatalf("MarshalProgramCBOR failed: %v", err)
	}
	got, err := UnmarshalProgramCBOR(data)
	if err != nil {
		t.Fatalf("UnmarshalProgramCBOR failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CBOR round trip diverged:\n got %+v\nwant %+v", got, want)
	}
}

func TestCBORDeterministic(t *testing.T) {
	p, err := ParseProgram([]byte(fibJSON))
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	a, err := MarshalProgramCBOR(p)
	if err != nil {
		t.Fatalf("MarshalProgramCBOR failed: %v", err)
	}
	b, err := MarshalProgramCBOR(p)
	if err != nil {
		t.Fatalf("MarshalProgramCBOR failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("canonical encoding is not byte-stable")
	}
}

func TestCBORLiteralShapes(t *testing.T) {
	p := &Program{Functions: []Function{{
		Name: "lits",
		Instrs: []Instruction{
			{Op: "const", Dest: "i", Type: "int", Value: IntLiteral(1 << 40)},
			{Op: "const", Dest: "n", Type: "int", Value: IntLiteral(-1)},
			{Op: "const", Dest: "b", Type: "bool", Value: BoolLiteral(true)},
		},
	}}}
	data, err := MarshalProgramCBOR(p)
	if err != nil {
		t.Fatalf("MarshalProgramCBOR failed: %v", err)
	}
	got, err := UnmarshalProgramCBOR(data)
	if err != nil {
		t.Fatalf("UnmarshalProgramCBOR failed: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("literal shapes diverged:\n got %+v\nwant %+v", got, p)
	}
}

func TestUnmarshalProgramCBORRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalProgramCBOR([]byte{0xff, 0x00}); err == nil {
		t.Error("UnmarshalProgramCBOR accepted garbage bytes")
	}
}
