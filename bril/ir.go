// Package bril holds the tree-structured form of core Bril programs and its
// interchange codecs: the JSON form produced by the upstream frontends, and
// a canonical CBOR form for binary interchange.
package bril

import (
	"encoding/json"
	"fmt"
)

// Program is a whole Bril file: an ordered list of functions.
type Program struct {
	Functions []Function `json:"functions"`
}

// Param is a declared function parameter.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Function is one tree-structured Bril function.
type Function struct {
	Name   string        `json:"name"`
	Args   []Param       `json:"args,omitempty"`
	Type   string        `json:"type,omitempty"`
	Instrs []Instruction `json:"instrs"`
}

// Instruction is either a label marker (Label set, everything else empty) or
// a real instruction keyed by Op. Optional fields are omitted when absent.
type Instruction struct {
	Label  string   `json:"label,omitempty"`
	Op     string   `json:"op,omitempty"`
	Dest   string   `json:"dest,omitempty"`
	Type   string   `json:"type,omitempty"`
	Value  *Literal `json:"value,omitempty"`
	Args   []string `json:"args,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Funcs  []string `json:"funcs,omitempty"`
}

// IsLabel reports whether the instruction is a label marker.
func (i *Instruction) IsLabel() bool {
	return i.Label != ""
}

// Literal is a constant operand: a 64-bit integer or a bool. Bril's JSON
// writes it as a bare number or boolean, so it needs a custom codec.
type Literal struct {
	IsBool bool
	Bool   bool
	Int    int64
}

// IntLiteral wraps an int64.
func IntLiteral(n int64) *Literal {
	return &Literal{Int: n}
}

// BoolLiteral wraps a bool.
func BoolLiteral(b bool) *Literal {
	return &Literal{IsBool: true, Bool: b}
}

// MarshalJSON implements json.Marshaler.
func (l Literal) MarshalJSON() ([]byte, error) {
	if l.IsBool {
		return json.Marshal(l.Bool)
	}
	return json.Marshal(l.Int)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Literal) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		l.IsBool = true
		l.Bool = b
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		l.IsBool = false
		l.Int = n
		return nil
	}
	return fmt.Errorf("bril: literal must be an integer or a bool, got %s", data)
}

// ParseProgram decodes the JSON representation of a Bril file.
func ParseProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("bril: parse program: %w", err)
	}
	return &p, nil
}

// MarshalJSON-style convenience for drivers and tests.

// EncodeProgram renders a program as indented JSON.
func EncodeProgram(p *Program) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("bril: encode program: %w", err)
	}
	return data, nil
}
