package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fitrender/internal/objectfit"
)

// Preset is a named set of render parameters.
type Preset struct {
	Width      int
	Height     int
	Fit        objectfit.FitMode
	Position   objectfit.Position
	Format     string
	Quality    int
	Background string
	// Rotate is a counter-clockwise quarter-turn rotation in degrees.
	Rotate     int
}

type presetFile struct {
	Presets map[string]struct {
		Width      int                 `yaml:"width"`
		Height     int                 `yaml:"height"`
		Fit        objectfit.FitMode   `yaml:"fit"`
		Position   *objectfit.Position `yaml:"position"`
		Format     string              `yaml:"format"`
		Quality    int                 `yaml:"quality"`
		Background string              `yaml:"background"`
		Rotate     int                 `yaml:"rotate"`
	} `yaml:"presets"`
}

// LoadPresets reads presets from a YAML file. A missing file yields no
// presets and no error.
func LoadPresets(path string) (map[string]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Preset{}, nil
		}
		return nil, err
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates a presets document:
//
//	presets:
//	  thumb: {width: 200, height: 200, fit: cover, position: "50% 30%", format: webp, rotate: 90}
//
// fit defaults to fill and position to "50% 50%".
func ParsePresets(data []byte) (map[string]Preset, error) {
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	presets := make(map[string]Preset, len(f.Presets))
	for name, p := range f.Presets {
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("preset %q: width and height must be positive", name)
		}
		if p.Quality < 0 || p.Quality > 100 {
			return nil, fmt.Errorf("preset %q: quality must be 0-100", name)
		}
		if p.Rotate%90 != 0 {
			return nil, fmt.Errorf("preset %q: rotate must be a multiple of 90", name)
		}
		if _, err := ParseColor(p.Background); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		pos := objectfit.DefaultPosition
		if p.Position != nil {
			pos = *p.Position
		}
		presets[name] = Preset{
			Width:      p.Width,
			Height:     p.Height,
			Fit:        p.Fit,
			Position:   pos,
			Format:     p.Format,
			Quality:    p.Quality,
			Background: p.Background,
			Rotate:     p.Rotate,
		}
	}
	return presets, nil
}
