// Package flat implements the flattened, structure-of-arrays encoding of
// core Bril programs: the encoder that turns tree-shaped functions into
// fixed-width instruction records plus append-only name and span buffers,
// the binary image format that persists those buffers behind a table of
// contents so they can be sliced back out without a parsing pass, the
// interpreter that executes directly against the sliced view, and the
// decoder that projects a flattened function back into tree form.
package flat
