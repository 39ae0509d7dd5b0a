// Package manifest handles flatbril.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the driver looks for in a project directory.
const ManifestName = "flatbril.toml"

// Manifest represents a flatbril.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Image   ImageConfig `toml:"image"`
	Run     RunConfig   `toml:"run"`

	// Dir is the directory containing the flatbril.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where the Bril program comes from.
type Source struct {
	// File is the Bril JSON program, relative to the manifest directory.
	File string `toml:"file"`
}

// ImageConfig configures image output.
type ImageConfig struct {
	Output string `toml:"output"`
}

// RunConfig configures interpretation defaults.
type RunConfig struct {
	Entry string   `toml:"entry"`
	Args  []string `toml:"args"`
}

// Load parses a flatbril.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Image.Output == "" {
		m.Image.Output = "out.fbril"
	}
	if m.Run.Entry == "" {
		m.Run.Entry = "main"
	}

	if m.Source.File == "" {
		return nil, fmt.Errorf("%s: [source] file is required", path)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a flatbril.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourcePath returns the absolute path of the Bril JSON program.
func (m *Manifest) SourcePath() string {
	return filepath.Join(m.Dir, m.Source.File)
}

// OutputPath returns the absolute path of the image to write.
func (m *Manifest) OutputPath() string {
	return filepath.Join(m.Dir, m.Image.Output)
}
