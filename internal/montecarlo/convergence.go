package montecarlo

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/ironsheep/area-estimator-mcp/internal/detection"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
	"gonum.org/v1/gonum/stat"
)

// Mode selects how partial area estimates are derived. A run uses exactly
// one mode and records it in its Curve.
type Mode string

const (
	// ModePrefix derives the estimate at checkpoint k from the first k
	// samples of the main run. It is computed while the main run streams,
	// so no samples are retained.
	ModePrefix Mode = "prefix"

	// ModeResample draws a fresh batch of k samples at each checkpoint k,
	// continuing the run's random stream after the main estimate. Each
	// point is a separate experiment, so the curve has more
	// point-to-point variance than a prefix curve. That spread is expected.
	ModeResample Mode = "resample"

	// ModeNone disables the convergence curve.
	ModeNone Mode = "none"
)

// ParseMode maps a mode name to a Mode. The empty string selects
// ModePrefix.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModePrefix, nil
	case ModePrefix, ModeResample, ModeNone:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown convergence mode %q", ErrInvalidArgument, s)
}

// DefaultCheckpoints is the fixed checkpoint schedule. Checkpoints larger
// than the run's sample budget are dropped.
var DefaultCheckpoints = []int{100, 500, 1_000, 2_000, 5_000, 10_000, 20_000, 50_000, 100_000}

// LogCheckpoints returns an adaptive schedule of perDecade logarithmically
// spaced checkpoints per power of ten, starting at 10 (or total when total
// is smaller) and always ending with total.
func LogCheckpoints(total, perDecade int) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: %d samples", ErrInvalidSampleBudget, total)
	}
	if perDecade <= 0 {
		return nil, fmt.Errorf("%w: %d checkpoints per decade", ErrInvalidArgument, perDecade)
	}
	var out []int
	step := 1.0 / float64(perDecade)
	for e := 1.0; ; e += step {
		k := int(math.Round(math.Pow(10, e)))
		if k >= total {
			break
		}
		if len(out) == 0 || out[len(out)-1] != k {
			out = append(out, k)
		}
	}
	return append(out, total), nil
}

// Point is one partial estimate on the convergence curve.
type Point struct {
	SampleCount         int     `json:"sample_count" yaml:"sample_count"`
	PartialAreaEstimate float64 `json:"partial_area_estimate" yaml:"partial_area_estimate"`
}

// Curve is a convergence curve. Points are strictly increasing in
// SampleCount.
type Curve struct {
	Mode   Mode    `json:"mode" yaml:"mode"`
	Points []Point `json:"points" yaml:"points"`

	// Mean and StdDev summarise the partial estimates. StdDev is zero for
	// fewer than two points.
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Tracker builds a convergence curve for one run.
type Tracker struct {
	mode        Mode
	checkpoints []int
	reference   float64

	next   int
	seen   int
	inside int
	points []Point
}

// NewTracker prepares a tracker for a run of total samples. Checkpoints
// are sorted, deduplicated and filtered to those <= total; nil selects
// DefaultCheckpoints. A non-positive checkpoint is an error.
func NewTracker(mode Mode, checkpoints []int, total int, referenceArea float64) (*Tracker, error) {
	switch mode {
	case ModePrefix, ModeResample, ModeNone:
	default:
		return nil, fmt.Errorf("%w: unknown convergence mode %q", ErrInvalidArgument, mode)
	}
	if checkpoints == nil {
		checkpoints = DefaultCheckpoints
	}
	cps := make([]int, 0, len(checkpoints))
	for _, k := range checkpoints {
		if k <= 0 {
			return nil, fmt.Errorf("%w: checkpoint %d is not positive", ErrInvalidArgument, k)
		}
		if k <= total {
			cps = append(cps, k)
		}
	}
	slices.Sort(cps)
	cps = slices.Compact(cps)
	if mode == ModeNone {
		cps = nil
	}
	return &Tracker{mode: mode, checkpoints: cps, reference: referenceArea}, nil
}

// Mode returns the tracker's derivation mode.
func (t *Tracker) Mode() Mode {
	return t.mode
}

// Checkpoints returns the effective schedule.
func (t *Tracker) Checkpoints() []int {
	return slices.Clone(t.checkpoints)
}

// Observe feeds the next chunk of the main run's verdicts, in draw order.
// It only has an effect in prefix mode.
func (t *Tracker) Observe(inside []bool) {
	if t.mode != ModePrefix {
		return
	}
	pos := 0
	for pos < len(inside) && t.next < len(t.checkpoints) {
		end := min(pos+t.checkpoints[t.next]-t.seen, len(inside))
		for _, in := range inside[pos:end] {
			if in {
				t.inside++
			}
		}
		t.seen += end - pos
		pos = end
		if t.seen == t.checkpoints[t.next] {
			t.record(t.seen, t.inside)
			t.next++
		}
	}
}

// Resample runs an independent experiment of k samples for every
// checkpoint k, drawing from s. It only has an effect in resample mode.
func (t *Tracker) Resample(ctx context.Context, s *Sampler, img *imaging.Raster, p detection.Policy) error {
	if t.mode != ModeResample {
		return nil
	}
	for _, k := range t.checkpoints {
		inside := 0
		err := s.Run(ctx, k, func(b *Batch) error {
			inside += detection.ClassifyAt(img, p, b.Xs, b.Ys, b.Inside)
			return nil
		}, nil)
		if err != nil {
			return fmt.Errorf("resample at %d samples: %w", k, err)
		}
		t.record(k, inside)
	}
	return nil
}

func (t *Tracker) record(samples, inside int) {
	t.points = append(t.points, Point{
		SampleCount:         samples,
		PartialAreaEstimate: float64(inside) / float64(samples) * t.reference,
	})
}

// Curve returns the curve collected so far, or nil in ModeNone.
func (t *Tracker) Curve() *Curve {
	if t.mode == ModeNone {
		return nil
	}
	c := &Curve{Mode: t.mode, Points: slices.Clone(t.points)}
	if c.Points == nil {
		c.Points = []Point{}
	}
	estimates := make([]float64, len(t.points))
	for i, p := range t.points {
		estimates[i] = p.PartialAreaEstimate
	}
	switch len(estimates) {
	case 0:
	case 1:
		c.Mean = estimates[0]
	default:
		c.Mean, c.StdDev = stat.MeanStdDev(estimates, nil)
	}
	return c
}
