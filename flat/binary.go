package flat

import "encoding/binary"

// ---------------------------------------------------------------------------
// Little-endian helpers shared by the image writer and reader
// ---------------------------------------------------------------------------

func writeUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func readUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

func writeUint64(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}

func readUint64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

func readSpan(buf []byte) Span {
	return Span{Start: readUint32(buf), End: readUint32(buf[4:])}
}
