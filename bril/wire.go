package bril

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical mode so the binary interchange form of a
// program is deterministic.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bril: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalCBOR implements cbor.Marshaler. Literals keep their bare
// number-or-bool wire shape, same as in JSON.
func (l Literal) MarshalCBOR() ([]byte, error) {
	if l.IsBool {
		return cborEncMode.Marshal(l.Bool)
	}
	return cborEncMode.Marshal(l.Int)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (l *Literal) UnmarshalCBOR(data []byte) error {
	var b bool
	if err := cbor.Unmarshal(data, &b); err == nil {
		l.IsBool = true
		l.Bool = b
		return nil
	}
	var n int64
	if err := cbor.Unmarshal(data, &n); err == nil {
		l.IsBool = false
		l.Int = n
		return nil
	}
	return fmt.Errorf("bril: CBOR literal must be an integer or a bool")
}

// MarshalProgramCBOR serializes a program to canonical CBOR bytes.
func MarshalProgramCBOR(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// UnmarshalProgramCBOR deserializes a program from CBOR bytes.
func UnmarshalProgramCBOR(data []byte) (*Program, error) {
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("bril: unmarshal program: %w", err)
	}
	return &p, nil
}
