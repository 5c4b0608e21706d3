package montecarlo

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModePrefix, false},
		{"prefix", ModePrefix, false},
		{"resample", ModeResample, false},
		{"none", ModeNone, false},
		{"Prefix", "", true},
		{"bootstrap", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogCheckpoints(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		perDecade int
		want      []int
	}{
		{"two per decade", 1000, 2, []int{10, 32, 100, 316, 1000}},
		{"one per decade", 5000, 1, []int{10, 100, 1000, 5000}},
		{"total below start", 5, 3, []int{5}},
		{"total at start", 10, 1, []int{10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LogCheckpoints(tt.total, tt.perDecade)
			if err != nil {
				t.Fatalf("LogCheckpoints failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("LogCheckpoints = %v, want %v", got, tt.want)
			}
		})
	}

	got, err := LogCheckpoints(1_000_000, 5)
	if err != nil {
		t.Fatalf("LogCheckpoints failed: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("schedule not strictly increasing at %d: %v", i, got)
		}
	}
	if got[len(got)-1] != 1_000_000 {
		t.Errorf("schedule ends at %d, want the total", got[len(got)-1])
	}

	if _, err := LogCheckpoints(0, 2); !errors.Is(err, ErrInvalidSampleBudget) {
		t.Errorf("zero total: error = %v", err)
	}
	if _, err := LogCheckpoints(100, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero per decade: error = %v", err)
	}
}

func TestNewTracker(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		checkpoints []int
		total       int
		want        []int
		wantErr     bool
	}{
		{"defaults filtered", ModePrefix, nil, 2_000, []int{100, 500, 1_000, 2_000}, false},
		{"defaults all kept", ModePrefix, nil, 1_000_000, DefaultCheckpoints, false},
		{"total below first", ModePrefix, nil, 50, []int{}, false},
		{"sorted and deduplicated", ModeResample, []int{1_000, 100, 100, 5_000}, 2_000, []int{100, 1_000}, false},
		{"none clears schedule", ModeNone, []int{10, 20}, 100, []int{}, false},
		{"non-positive checkpoint", ModePrefix, []int{100, 0}, 1_000, nil, true},
		{"unknown mode", "weekly", nil, 1_000, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTracker(tt.mode, tt.checkpoints, tt.total, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTracker error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("error %v does not wrap ErrInvalidArgument", err)
				}
				return
			}
			if got := tr.Checkpoints(); !slices.Equal(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("Checkpoints = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_ObservePrefix(t *testing.T) {
	tr, err := NewTracker(ModePrefix, []int{2, 5, 7}, 10, 10)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	inside := []bool{true, false, true, true, false, false, true, false, false, false}

	// Chunk boundaries must not matter for prefix counts.
	tr.Observe(inside[0:3])
	tr.Observe(inside[3:4])
	tr.Observe(inside[4:10])

	c := tr.Curve()
	want := []Point{
		{SampleCount: 2, PartialAreaEstimate: 5},
		{SampleCount: 5, PartialAreaEstimate: 6},
		{SampleCount: 7, PartialAreaEstimate: 40.0 / 7},
	}
	if len(c.Points) != len(want) {
		t.Fatalf("points %v, want %v", c.Points, want)
	}
	for i := range want {
		if c.Points[i].SampleCount != want[i].SampleCount ||
			math.Abs(c.Points[i].PartialAreaEstimate-want[i].PartialAreaEstimate) > 1e-12 {
			t.Errorf("point %d = %+v, want %+v", i, c.Points[i], want[i])
		}
	}
	if c.Mode != ModePrefix {
		t.Errorf("Mode = %q", c.Mode)
	}
	mean := (5 + 6 + 40.0/7) / 3
	if math.Abs(c.Mean-mean) > 1e-12 {
		t.Errorf("Mean = %v, want %v", c.Mean, mean)
	}
	if c.StdDev <= 0 {
		t.Errorf("StdDev = %v, want positive", c.StdDev)
	}
}

func TestTracker_CurveEdges(t *testing.T) {
	none, _ := NewTracker(ModeNone, nil, 1_000, 1)
	none.Observe([]bool{true})
	if none.Curve() != nil {
		t.Error("ModeNone should produce no curve")
	}

	empty, _ := NewTracker(ModePrefix, nil, 50, 1)
	c := empty.Curve()
	if c == nil || c.Points == nil || len(c.Points) != 0 {
		t.Errorf("short run curve = %+v, want empty points", c)
	}

	one, _ := NewTracker(ModePrefix, []int{4}, 4, 8)
	one.Observe([]bool{true, true, false, false})
	c = one.Curve()
	if c.Mean != 4 || c.StdDev != 0 {
		t.Errorf("single point summary = %v/%v, want 4/0", c.Mean, c.StdDev)
	}
}

func TestEstimate_PrefixCurve(t *testing.T) {
	img := halfDark(t)
	res, err := Estimate(context.Background(), img, imaging.FullRegion(10, 10), darkPolicy, Params{
		ReferenceArea: 100,
		TotalSamples:  5_000,
		Seed:          21,
		ChunkSize:     700,
	})
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	c := res.Convergence
	if c == nil || c.Mode != ModePrefix {
		t.Fatalf("curve = %+v, want prefix curve", c)
	}
	wantCounts := []int{100, 500, 1_000, 2_000, 5_000}
	if len(c.Points) != len(wantCounts) {
		t.Fatalf("points %+v", c.Points)
	}
	for i, k := range wantCounts {
		if c.Points[i].SampleCount != k {
			t.Errorf("point %d at %d samples, want %d", i, c.Points[i].SampleCount, k)
		}
	}
	// The final prefix is the whole run.
	if last := c.Points[len(c.Points)-1]; last.PartialAreaEstimate != res.AreaEstimate {
		t.Errorf("final checkpoint %v != area estimate %v", last.PartialAreaEstimate, res.AreaEstimate)
	}
}

func TestEstimate_ResampleCurve(t *testing.T) {
	img := halfDark(t)
	params := Params{
		ReferenceArea: 100,
		TotalSamples:  2_000,
		Seed:          8,
		Convergence:   ConvergenceOptions{Mode: ModeResample, Checkpoints: []int{100, 1_000, 500, 3_000}},
	}
	a, err := Estimate(context.Background(), img, imaging.FullRegion(10, 10), darkPolicy, params)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	c := a.Convergence
	if c == nil || c.Mode != ModeResample {
		t.Fatalf("curve = %+v, want resample curve", c)
	}
	wantCounts := []int{100, 500, 1_000}
	if len(c.Points) != len(wantCounts) {
		t.Fatalf("points %+v", c.Points)
	}
	for i, k := range wantCounts {
		if c.Points[i].SampleCount != k {
			t.Errorf("point %d at %d samples, want %d", i, c.Points[i].SampleCount, k)
		}
		if p := c.Points[i].PartialAreaEstimate; p < 0 || p > 100 {
			t.Errorf("point %d estimate %v outside [0,100]", i, p)
		}
	}

	// Resampling continues the seeded stream, so it is reproducible and
	// leaves the main estimate untouched.
	b, err := Estimate(context.Background(), img, imaging.FullRegion(10, 10), darkPolicy, params)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	for i := range c.Points {
		if c.Points[i] != b.Convergence.Points[i] {
			t.Errorf("resample point %d not reproducible", i)
		}
	}
	params.Convergence.Mode = ModeNone
	plain, err := Estimate(context.Background(), img, imaging.FullRegion(10, 10), darkPolicy, params)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if plain.InsideCount != a.InsideCount {
		t.Errorf("resampling changed the main estimate: %d vs %d", a.InsideCount, plain.InsideCount)
	}
	if plain.Convergence != nil {
		t.Error("ModeNone result carries a curve")
	}
}
