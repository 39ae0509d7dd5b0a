package flat

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ---------------------------------------------------------------------------
// File-backed images
// ---------------------------------------------------------------------------

// SaveImage serializes the stores and writes the image to path. The writer
// owns the file exclusively while writing; no concurrent readers of the
// same region are supported.
func SaveImage(path string, stores []*Store) error {
	data, err := EncodeImage(stores)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}

// LoadImage reads the whole file into memory and opens it.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	return OpenImage(data)
}

// MappedImage is an Image whose backing region is a read-only file mapping.
// Its Views borrow directly from the mapping, so it must be kept open for
// as long as any of them is in use, then closed exactly once.
type MappedImage struct {
	*Image
	f *os.File
	m mmap.MMap
}

// MapImage memory-maps the file at path read-only and opens views over the
// mapping without copying.
func MapImage(path string) (*MappedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("map image %s: %w", path, err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("map image %s: %w", path, err)
	}
	img, err := OpenImage(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	return &MappedImage{Image: img, f: f, m: m}, nil
}

// Close unmaps the region and closes the file. The image and all of its
// Views are invalid afterwards.
func (mi *MappedImage) Close() error {
	err := mi.m.Unmap()
	if cerr := mi.f.Close(); err == nil {
		err = cerr
	}
	return err
}
