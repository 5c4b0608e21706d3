package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/area-estimator-mcp/internal/config"
	"gopkg.in/yaml.v3"
)

func writeSquare(t *testing.T, dir, name string, side int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			v := uint8(255)
			if x < side && y < side {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	rf := &config.RunFile{Settings: config.DefaultSettings()}
	rf.ReferenceArea = 400
	rf.Samples = 20000
	rf.Seed = 3
	rf.AutoBBox = false
	rf.Workers = 2
	rf.Images = []string{
		writeSquare(t, dir, "small.png", 10),
		filepath.Join(dir, "missing.png"),
		writeSquare(t, dir, "large.png", 20),
	}

	reports, err := runBatch(context.Background(), quietLogger(), rf)
	if err != nil {
		t.Fatalf("runBatch failed: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	for i, r := range reports {
		if r.Image != rf.Images[i] {
			t.Errorf("report %d is for %s, want input order", i, r.Image)
		}
	}

	small := reports[0].Result
	if small == nil || small.AreaEstimate < 90 || small.AreaEstimate > 110 {
		t.Errorf("small square estimate = %+v, want about 100", small)
	}
	if reports[1].Error == "" || reports[1].Result != nil {
		t.Errorf("missing file report = %+v, want an error", reports[1])
	}
	if large := reports[2].Result; large == nil || large.AreaEstimate != 400 {
		t.Errorf("full square estimate = %+v, want 400", large)
	}
}

func TestRunBatch_ConfigError(t *testing.T) {
	rf := &config.RunFile{Settings: config.DefaultSettings(), Images: []string{"x.png"}}
	rf.Convergence = "sometimes"
	if _, err := runBatch(context.Background(), quietLogger(), rf); err == nil {
		t.Error("invalid settings should abort the batch")
	}
}

func TestRunBatch_Canceled(t *testing.T) {
	dir := t.TempDir()
	rf := &config.RunFile{Settings: config.DefaultSettings(), Workers: 1}
	rf.Images = []string{writeSquare(t, dir, "a.png", 10)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runBatch(ctx, quietLogger(), rf); err == nil {
		t.Error("canceled batch should fail")
	}
}

func TestWriteReports(t *testing.T) {
	reports := []Report{{Image: "a.png", Error: "no shape detected"}}

	var js bytes.Buffer
	if err := writeReports(&js, "json", reports); err != nil {
		t.Fatalf("json: %v", err)
	}
	var fromJSON []Report
	if err := json.Unmarshal(js.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if len(fromJSON) != 1 || fromJSON[0].Error != "no shape detected" {
		t.Errorf("json round trip = %+v", fromJSON)
	}

	var ym bytes.Buffer
	if err := writeReports(&ym, "yaml", reports); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(ym.String(), "image: a.png") {
		t.Errorf("yaml output = %q", ym.String())
	}
	var fromYAML []Report
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
}
