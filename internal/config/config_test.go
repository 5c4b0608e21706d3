package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ironsheep/area-estimator-mcp/internal/detection"
	"github.com/ironsheep/area-estimator-mcp/internal/montecarlo"
)

func TestParse_Defaults(t *testing.T) {
	rf, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rf.Settings.ReferenceArea != 100 || rf.Samples != 5000 || !rf.AutoBBox || rf.Padding != 5 {
		t.Errorf("defaults not applied: %+v", rf.Settings)
	}
	if rf.DisplayLimit != montecarlo.DefaultDisplayLimit {
		t.Errorf("DisplayLimit = %d", rf.DisplayLimit)
	}
}

func TestParse(t *testing.T) {
	doc := `
reference_area: 12.5
samples: 20000
seed: 42
auto_bbox: false
policy:
  type: channel_sum
  threshold: 300
  invert: true
convergence: resample
checkpoints: [100, 1000]
workers: 3
images:
  - a.png
  - /abs/b.jpg
`
	rf, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rf.ReferenceArea != 12.5 || rf.Samples != 20000 || rf.Seed != 42 || rf.AutoBBox {
		t.Errorf("settings = %+v", rf.Settings)
	}
	if rf.Padding != 5 {
		t.Errorf("omitted padding should keep its default, got %d", rf.Padding)
	}
	if rf.Workers != 3 || len(rf.Images) != 2 {
		t.Errorf("workers %d images %v", rf.Workers, rf.Images)
	}

	cfg, err := rf.RunConfig()
	if err != nil {
		t.Fatalf("RunConfig failed: %v", err)
	}
	if cfg.Policy != detection.Policy(detection.ChannelSum{Value: 300, Invert: true}) {
		t.Errorf("Policy = %v", cfg.Policy)
	}
	if cfg.Convergence.Mode != montecarlo.ModeResample {
		t.Errorf("Mode = %q", cfg.Convergence.Mode)
	}
	if !slices.Equal(cfg.Convergence.Checkpoints, []int{100, 1000}) {
		t.Errorf("Checkpoints = %v", cfg.Convergence.Checkpoints)
	}
	if cfg.AutoRegion {
		t.Error("AutoRegion should follow auto_bbox")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "samples: 10\nthreshhold: 5\n"},
		{"unknown policy key", "policy:\n  kind: threshold\n"},
		{"wrong type", "samples: many\n"},
		{"negative workers", "workers: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("Parse should fail")
			}
		})
	}
}

func TestSettings_RunConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		want    error
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, nil, false},
		{"binarize without policy", func(s *Settings) { s.Binarize = &detection.BinarizeOptions{} }, nil, false},
		{"bad policy", func(s *Settings) { v := 999; s.Policy.Threshold = &v }, detection.ErrInvalidPolicyParameters, true},
		{"bad mode", func(s *Settings) { s.Convergence = "daily" }, montecarlo.ErrInvalidArgument, true},
		{"both schedules", func(s *Settings) { s.Checkpoints = []int{10}; s.LogCheckpoints = 2 }, montecarlo.ErrInvalidArgument, true},
		{"negative max dimension", func(s *Settings) { s.MaxDimension = -1 }, montecarlo.ErrInvalidArgument, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			_, err := s.RunConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunConfig error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSettings_LogCheckpoints(t *testing.T) {
	s := DefaultSettings()
	s.Samples = 1000
	s.LogCheckpoints = 2

	cfg, err := s.RunConfig()
	if err != nil {
		t.Fatalf("RunConfig failed: %v", err)
	}
	want := []int{10, 32, 100, 316, 1000}
	if !slices.Equal(cfg.Convergence.Checkpoints, want) {
		t.Errorf("Checkpoints = %v, want %v", cfg.Convergence.Checkpoints, want)
	}
}

func TestLoad_ResolvesImagePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	doc := "images:\n  - leaf.png\n  - /data/other.png\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rf, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{filepath.Join(dir, "leaf.png"), "/data/other.png"}
	if !slices.Equal(rf.Images, want) {
		t.Errorf("Images = %v, want %v", rf.Images, want)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}
