package flat

import (
	"bytes"
	"fmt"
	"io"
)

// ---------------------------------------------------------------------------
// Image: ordered Views over one contiguous byte region
// ---------------------------------------------------------------------------

// Image is a loaded program: the backing byte region plus one View per
// function block, located by prefix-summing the header's block lengths.
// Every View borrows from the region; the Image is only valid while the
// region is.
type Image struct {
	data   []byte
	views  []*View
	byName map[string]int
}

// OpenImage reconstructs an Image from a serialized byte region by slicing
// only: it reads the fixed-size header, takes the sub-region of each
// non-zero slot, and carves each one into typed subslices. Truncated data
// or lengths inconsistent with the available bytes fail with
// ErrCorruptBinary.
func OpenImage(data []byte) (*Image, error) {
	if len(data) < ImageHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", ErrCorruptBinary, len(data))
	}
	if !bytes.Equal(data[:4], ImageMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptBinary, data[:4])
	}
	if version := readUint32(data[4:]); version != ImageVersion {
		return nil, fmt.Errorf("%w: image version %d, want %d", ErrCorruptBinary, version, ImageVersion)
	}

	img := &Image{data: data, byName: make(map[string]int)}

	offset := ImageHeaderSize
	for slot := 0; slot < MaxFunctions; slot++ {
		blockLen := int(readUint32(data[8+4*slot:]))
		if blockLen == 0 {
			continue
		}
		if blockLen > len(data)-offset {
			return nil, fmt.Errorf("%w: slot %d wants %d bytes, %d remain",
				ErrCorruptBinary, slot, blockLen, len(data)-offset)
		}
		view, err := parseBlock(data[offset : offset+blockLen])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", slot, err)
		}
		offset += blockLen

		// First function with a given name wins on duplicates.
		if _, dup := img.byName[view.Name()]; !dup {
			img.byName[view.Name()] = len(img.views)
		}
		img.views = append(img.views, view)
	}

	// The declared blocks must account for the whole region, mirroring the
	// per-block TOC sum check.
	if offset != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after the last block",
			ErrCorruptBinary, len(data)-offset)
	}

	return img, nil
}

// ReadImage loads an image from a reader.
func ReadImage(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return OpenImage(data)
}

// NumFunctions returns the number of function blocks in the image.
func (img *Image) NumFunctions() int {
	return len(img.views)
}

// View returns the i'th function's View, in image order.
func (img *Image) View(i int) *View {
	return img.views[i]
}

// Views returns all function Views in image order.
func (img *Image) Views() []*View {
	return img.views
}

// Lookup resolves a function by name.
func (img *Image) Lookup(name string) (*View, bool) {
	i, ok := img.byName[name]
	if !ok {
		return nil, false
	}
	return img.views[i], true
}

// Bytes returns the backing byte region.
func (img *Image) Bytes() []byte {
	return img.data
}
