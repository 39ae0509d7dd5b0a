package flat

import (
	"bytes"
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Image format constants
// ---------------------------------------------------------------------------

// ImageMagic is the magic number identifying a flat-bril image.
var ImageMagic = [4]byte{'F', 'B', 'R', 'L'}

// ImageVersion is the current image format version.
const ImageVersion uint32 = 1

// MaxFunctions is the fixed capacity of the file-level header: one u32
// block-length slot per function, zero meaning unused.
const MaxFunctions = 64

// ImageHeaderSize is the byte size of the file-level header:
// magic(4) + version(4) + MaxFunctions block-length slots(4 each).
const ImageHeaderSize = 8 + 4*MaxFunctions

// tocFields is the number of u32 fields in a per-function table of
// contents: the return type followed by one length per buffer, in canonical
// order: funcName, params, varStore, argIdx, labelIdx, labelStore,
// funcStore, rows.
const tocFields = 9

// TOCSize is the byte size of a per-function table of contents. For every
// block, the sum of the eight TOC buffer lengths plus TOCSize equals the
// block length recorded in the header.
const TOCSize = 4 * tocFields

// Fixed record sizes inside the buffers.
const (
	spanSize      = 8  // start u32 + end u32
	paramSize     = 12 // name span + type u32
	flatInstrSize = 52 // op + 4 spans + type + value kind + value payload
)

// ---------------------------------------------------------------------------
// ImageWriter: Stores -> one contiguous byte region
// ---------------------------------------------------------------------------

// ImageWriter serializes flattened functions into a single image. All
// integers are little-endian u32 except the 8-byte inline value payload;
// there are no inline length prefixes — every length lives in the header or
// a TOC.
type ImageWriter struct {
	buf *bytes.Buffer
}

// NewImageWriter creates an empty image writer.
func NewImageWriter() *ImageWriter {
	return &ImageWriter{buf: bytes.NewBuffer(nil)}
}

// WriteProgram writes the header and one block per store, in order. It is
// fatal for the image if there are more functions than header slots.
func (w *ImageWriter) WriteProgram(stores []*Store) error {
	if len(stores) > MaxFunctions {
		return fmt.Errorf("image: %d functions exceed header capacity %d", len(stores), MaxFunctions)
	}

	blocks := make([][]byte, len(stores))
	for i, s := range stores {
		blocks[i] = encodeBlock(s)
	}

	w.writeHeader(blocks)
	for _, b := range blocks {
		w.buf.Write(b)
	}
	return nil
}

// writeHeader writes the magic, version, and the fixed slot array of block
// lengths. Unused slots stay zero.
func (w *ImageWriter) writeHeader(blocks [][]byte) {
	w.buf.Write(ImageMagic[:])

	buf := make([]byte, 4)
	writeUint32(buf, ImageVersion)
	w.buf.Write(buf)

	for i := 0; i < MaxFunctions; i++ {
		var n uint32
		if i < len(blocks) {
			n = uint32(len(blocks[i]))
		}
		writeUint32(buf, n)
		w.buf.Write(buf)
	}
}

// Bytes returns the serialized image.
func (w *ImageWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteTo writes the image to the given writer.
func (w *ImageWriter) WriteTo(out io.Writer) (int64, error) {
	n, err := out.Write(w.buf.Bytes())
	return int64(n), err
}

// EncodeImage is the one-shot form: header plus blocks as a byte slice.
func EncodeImage(stores []*Store) ([]byte, error) {
	w := NewImageWriter()
	if err := w.WriteProgram(stores); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// ---------------------------------------------------------------------------
// Block encoding
// ---------------------------------------------------------------------------

// encodeBlock lowers one store into its serialized block: the TOC followed
// by each buffer verbatim in TOC order.
func encodeBlock(s *Store) []byte {
	params := encodeParams(s.Params)
	argIdx := encodeSpans(s.ArgIdx)
	labelIdx := encodeSpans(s.LabelIdx)
	rows := encodeRows(s.Rows)

	total := TOCSize + len(s.FuncName) + len(params) + len(s.VarStore) +
		len(argIdx) + len(labelIdx) + len(s.LabelStore) + len(s.FuncStore) + len(rows)
	block := make([]byte, 0, total)

	var field [4]byte
	putField := func(v uint32) {
		writeUint32(field[:], v)
		block = append(block, field[:]...)
	}

	putField(uint32(s.RetType))
	putField(uint32(len(s.FuncName)))
	putField(uint32(len(params)))
	putField(uint32(len(s.VarStore)))
	putField(uint32(len(argIdx)))
	putField(uint32(len(labelIdx)))
	putField(uint32(len(s.LabelStore)))
	putField(uint32(len(s.FuncStore)))
	putField(uint32(len(rows)))

	block = append(block, s.FuncName...)
	block = append(block, params...)
	block = append(block, s.VarStore...)
	block = append(block, argIdx...)
	block = append(block, labelIdx...)
	block = append(block, s.LabelStore...)
	block = append(block, s.FuncStore...)
	block = append(block, rows...)
	return block
}

// encodeParams serializes the parameter list as fixed-width records.
func encodeParams(params []Param) []byte {
	out := make([]byte, len(params)*paramSize)
	for i, p := range params {
		off := i * paramSize
		writeSpan(out[off:], p.Name)
		writeUint32(out[off+8:], uint32(p.Type))
	}
	return out
}

// encodeSpans serializes a span-table.
func encodeSpans(spans []Span) []byte {
	out := make([]byte, len(spans)*spanSize)
	for i, s := range spans {
		writeSpan(out[i*spanSize:], s)
	}
	return out
}

// encodeRows serializes the instruction sequence as uniform fixed-width
// records. Label rows are lowered to the LabelOpcode sentinel here, at the
// serialization boundary; the Store itself keeps the proper tag.
func encodeRows(rows []Row) []byte {
	out := make([]byte, len(rows)*flatInstrSize)
	for i := range rows {
		fi := rows[i].Instr
		if rows[i].Kind == RowLabel {
			fi = FlatInstr{
				Op:     LabelOpcode,
				Dest:   NoSpan,
				Args:   NoSpan,
				Labels: rows[i].Label,
				Funcs:  NoSpan,
				Type:   TypeNull,
				Value:  Null,
			}
		}
		encodeInstr(out[i*flatInstrSize:], &fi)
	}
	return out
}

// encodeInstr writes one fixed-width instruction record.
// Layout: op(4) dest(8) args(8) labels(8) funcs(8) type(4) valueKind(4) payload(8).
func encodeInstr(buf []byte, fi *FlatInstr) {
	writeUint32(buf[0:], fi.Op)
	writeSpan(buf[4:], fi.Dest)
	writeSpan(buf[12:], fi.Args)
	writeSpan(buf[20:], fi.Labels)
	writeSpan(buf[28:], fi.Funcs)
	writeUint32(buf[36:], uint32(fi.Type))
	writeUint32(buf[40:], uint32(fi.Value.Kind))
	var payload uint64
	switch fi.Value.Kind {
	case ValueInt:
		payload = uint64(fi.Value.Int)
	case ValueBool:
		if fi.Value.Bool {
			payload = 1
		}
	}
	writeUint64(buf[44:], payload)
}

// writeSpan writes a span as two u32 fields.
func writeSpan(buf []byte, s Span) {
	writeUint32(buf, s.Start)
	writeUint32(buf[4:], s.End)
}
