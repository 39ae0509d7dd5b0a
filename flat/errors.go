package flat

import "errors"

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// Every error produced by this package wraps exactly one of these sentinels.
// All of them are fatal to the function, image, or run being processed;
// nothing in this package recovers.
var (
	ErrParseShape      = errors.New("malformed instruction shape")
	ErrInvalidOpcode   = errors.New("invalid opcode")
	ErrArityMismatch   = errors.New("arity mismatch")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnboundVariable = errors.New("unbound variable")
	ErrUnknownLabel    = errors.New("unknown label")
	ErrCorruptBinary   = errors.New("corrupt binary image")
	ErrNullValue       = errors.New("null value")
	ErrInvalidEncoding = errors.New("invalid utf-8 encoding")
)
