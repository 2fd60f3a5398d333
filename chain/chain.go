// Package chain describes effect chains as data. A Spec is loaded from a
// TOML or YAML file and turned into backend effects by a Registry, so the
// same file drives a game layer and the vfxbake command.
//
//	# bloom.toml
//	width = 320
//	height = 180
//
//	[[effects]]
//	kind = "bloom"
//	params = { threshold = 0.6, intensity = 1.2 }
//
//	[[effects]]
//	kind = "vignette"
package chain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/vfx"
)

var (
	// ErrUnknownEffect is returned by Registry.Build for an unregistered kind.
	ErrUnknownEffect = errors.New("chain: unknown effect")
	// ErrBadParam is returned when a parameter has the wrong type or range.
	ErrBadParam = errors.New("chain: bad parameter")
	// ErrUnknownEncoding is returned for files that are neither TOML nor YAML.
	ErrUnknownEncoding = errors.New("chain: unknown encoding")
)

// maxSize mirrors the pool's largest buffer edge.
const maxSize = 16384

// Spec is a serialized pipeline: buffer settings plus an ordered effect
// list.
type Spec struct {
	// Width and Height fix the work buffer size. Zero follows the output.
	Width  int             `toml:"width" yaml:"width"`
	Height int             `toml:"height" yaml:"height"`
	Format vfx.PixelFormat `toml:"format" yaml:"format"`
	// Blending composites the result over the output.
	Blending bool         `toml:"blending" yaml:"blending"`
	Effects  []EffectSpec `toml:"effects" yaml:"effects"`
}

// EffectSpec is one chain entry.
type EffectSpec struct {
	Kind     string `toml:"kind" yaml:"kind"`
	Name     string `toml:"name,omitempty" yaml:"name,omitempty"`
	Disabled bool   `toml:"disabled,omitempty" yaml:"disabled,omitempty"`
	Params   Params `toml:"params,omitempty" yaml:"params,omitempty"`
}

// Load reads a spec from path. The encoding is chosen by extension:
// .toml, or .yaml and .yml.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	s, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a spec. encoding is "toml", "yaml" or "yml",
// with or without a leading dot.
func Parse(data []byte, encoding string) (*Spec, error) {
	var s Spec
	switch strings.ToLower(strings.TrimPrefix(encoding, ".")) {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("chain: decode toml: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("chain: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEncoding, encoding)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks sizes and that every entry names a kind.
func (s *Spec) Validate() error {
	if s.Width < 0 || s.Height < 0 || s.Width > maxSize || s.Height > maxSize {
		return fmt.Errorf("chain: size %dx%d: %w", s.Width, s.Height, vfx.ErrInvalidSize)
	}
	if (s.Width == 0) != (s.Height == 0) {
		return fmt.Errorf("chain: size %dx%d: width and height must both be set: %w", s.Width, s.Height, vfx.ErrInvalidSize)
	}
	if s.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("chain: format %s: %w", s.Format, vfx.ErrUnsupportedFormat)
	}
	for i, e := range s.Effects {
		if strings.TrimSpace(e.Kind) == "" {
			return fmt.Errorf("chain: effect %d: missing kind", i)
		}
	}
	return nil
}

// Config returns the manager configuration the spec describes.
func (s *Spec) Config() vfx.Config {
	return vfx.Config{
		Format:   s.Format,
		Width:    s.Width,
		Height:   s.Height,
		Blending: s.Blending,
	}
}

// Marshal encodes the spec as TOML.
func (s *Spec) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("chain: encode toml: %w", err)
	}
	return buf.Bytes(), nil
}
