// Package config holds the declarative settings of an estimation run and
// the YAML run files used by the batch CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/area-estimator-mcp/internal/detection"
	"github.com/ironsheep/area-estimator-mcp/internal/montecarlo"
	"gopkg.in/yaml.v3"
)

// Settings are the per-image estimation settings shared by MCP tool
// arguments (JSON) and run files (YAML).
type Settings struct {
	ReferenceArea float64              `json:"reference_area" yaml:"reference_area"`
	Samples       int                  `json:"samples" yaml:"samples"`
	Seed          int64                `json:"seed" yaml:"seed"`
	Policy        detection.PolicySpec `json:"policy" yaml:"policy"`

	// AutoBBox crops to the shape's bounding box grown by Padding.
	AutoBBox bool `json:"auto_bbox" yaml:"auto_bbox"`
	Padding  int  `json:"padding" yaml:"padding"`

	DisplayLimit int `json:"display_limit" yaml:"display_limit"`

	// Binarize switches to the adaptive-threshold mask path; the policy
	// must then be binary_mask or omitted.
	Binarize *detection.BinarizeOptions `json:"binarize,omitempty" yaml:"binarize,omitempty"`

	// Convergence is prefix, resample or none.
	Convergence string `json:"convergence,omitempty" yaml:"convergence,omitempty"`

	// Checkpoints overrides the fixed schedule. LogCheckpoints, when
	// positive, selects a log-spaced schedule with that many points per
	// decade instead; setting both is an error.
	Checkpoints    []int `json:"checkpoints,omitempty" yaml:"checkpoints,omitempty"`
	LogCheckpoints int   `json:"log_checkpoints,omitempty" yaml:"log_checkpoints,omitempty"`

	ChunkSize int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`

	// MaxDimension downscales larger images on load; 0 keeps full size.
	MaxDimension int `json:"max_dimension,omitempty" yaml:"max_dimension,omitempty"`
}

// DefaultSettings returns the defaults applied to omitted fields.
func DefaultSettings() Settings {
	return Settings{
		ReferenceArea: 100,
		Samples:       5000,
		AutoBBox:      true,
		Padding:       5,
		DisplayLimit:  montecarlo.DefaultDisplayLimit,
	}
}

// RunConfig converts the settings into a validated montecarlo.RunConfig.
func (s Settings) RunConfig() (montecarlo.RunConfig, error) {
	var cfg montecarlo.RunConfig

	if s.Binarize == nil || s.Policy.Type != "" {
		p, err := s.Policy.Policy()
		if err != nil {
			return cfg, err
		}
		cfg.Policy = p
	}

	mode, err := montecarlo.ParseMode(s.Convergence)
	if err != nil {
		return cfg, err
	}
	checkpoints := s.Checkpoints
	if s.LogCheckpoints != 0 {
		if s.Checkpoints != nil {
			return cfg, fmt.Errorf("%w: checkpoints and log_checkpoints are mutually exclusive", montecarlo.ErrInvalidArgument)
		}
		checkpoints, err = montecarlo.LogCheckpoints(s.Samples, s.LogCheckpoints)
		if err != nil {
			return cfg, err
		}
	}

	cfg.Binarize = s.Binarize
	cfg.AutoRegion = s.AutoBBox
	cfg.Padding = s.Padding
	cfg.Params = montecarlo.Params{
		ReferenceArea: s.ReferenceArea,
		TotalSamples:  s.Samples,
		Seed:          s.Seed,
		DisplayLimit:  s.DisplayLimit,
		ChunkSize:     s.ChunkSize,
		Convergence:   montecarlo.ConvergenceOptions{Mode: mode, Checkpoints: checkpoints},
	}
	if s.MaxDimension < 0 {
		return cfg, fmt.Errorf("%w: max dimension %d is negative", montecarlo.ErrInvalidArgument, s.MaxDimension)
	}
	return cfg, nil
}

// RunFile is a batch of images estimated with the same settings.
//
//	reference_area: 100
//	samples: 100000
//	seed: 42
//	policy:
//	  type: threshold
//	  threshold: 128
//	images:
//	  - leaf1.png
//	  - leaf2.jpg
type RunFile struct {
	Settings `yaml:",inline"`

	// Images are paths, relative ones resolved against the run file's
	// directory.
	Images []string `yaml:"images"`

	// Workers bounds concurrent runs; 0 means one per physical CPU.
	Workers int `yaml:"workers"`
}

// Load reads a run file. Unknown keys are rejected.
func Load(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}
	rf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, img := range rf.Images {
		if !filepath.IsAbs(img) {
			rf.Images[i] = filepath.Join(dir, img)
		}
	}
	return rf, nil
}

// Parse decodes a run file from YAML on top of DefaultSettings.
func Parse(data []byte) (*RunFile, error) {
	rf := &RunFile{Settings: DefaultSettings()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(rf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	if rf.Workers < 0 {
		return nil, fmt.Errorf("%w: workers %d is negative", montecarlo.ErrInvalidArgument, rf.Workers)
	}
	return rf, nil
}
