package montecarlo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ironsheep/area-estimator-mcp/internal/detection"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

// DefaultDisplayLimit is the display subsample cap used by the tool
// server and run files when none is given.
const DefaultDisplayLimit = 2000

// ConvergenceOptions configures the convergence curve of a run.
type ConvergenceOptions struct {
	// Mode is the derivation mode; empty means ModePrefix.
	Mode Mode

	// Checkpoints is the schedule; nil means DefaultCheckpoints.
	Checkpoints []int
}

// Params are the numeric inputs of one estimation.
type Params struct {
	// ReferenceArea is the physical area of the sampled rectangle. It must
	// be positive and finite.
	ReferenceArea float64

	// TotalSamples is the sample budget, at least 1.
	TotalSamples int

	// Seed makes the run reproducible when non-zero.
	Seed int64

	// DisplayLimit caps the display subsample; 0 disables it.
	DisplayLimit int

	// ChunkSize caps samples per chunk; 0 means DefaultChunkSize.
	ChunkSize int

	Convergence ConvergenceOptions

	// Progress, when set, is called after every chunk of the main run.
	Progress ProgressFunc
}

// Validate checks the parameters before any sampling happens.
func (p Params) Validate() error {
	if p.TotalSamples <= 0 {
		return fmt.Errorf("%w: %d samples requested, need at least 1", ErrInvalidSampleBudget, p.TotalSamples)
	}
	if math.IsNaN(p.ReferenceArea) || math.IsInf(p.ReferenceArea, 0) || p.ReferenceArea <= 0 {
		return fmt.Errorf("%w: %g is not a positive finite area", ErrInvalidReferenceArea, p.ReferenceArea)
	}
	if p.DisplayLimit < 0 {
		return fmt.Errorf("%w: display limit %d is negative", ErrInvalidArgument, p.DisplayLimit)
	}
	if p.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk size %d is negative", ErrInvalidArgument, p.ChunkSize)
	}
	if _, err := p.tracker(); err != nil {
		return err
	}
	return nil
}

func (p Params) tracker() (*Tracker, error) {
	mode := p.Convergence.Mode
	if mode == "" {
		mode = ModePrefix
	}
	return NewTracker(mode, p.Convergence.Checkpoints, p.TotalSamples, p.ReferenceArea)
}

// Result is the outcome of one estimation run.
type Result struct {
	InsideCount  int     `json:"inside_count" yaml:"inside_count"`
	TotalSamples int     `json:"total_samples" yaml:"total_samples"`
	AreaEstimate float64 `json:"area_estimate" yaml:"area_estimate"`

	// InsideFraction is InsideCount / TotalSamples.
	InsideFraction float64 `json:"inside_fraction" yaml:"inside_fraction"`

	// StandardError is the binomial standard error of AreaEstimate,
	// ReferenceArea * sqrt(p(1-p)/n).
	StandardError float64 `json:"standard_error" yaml:"standard_error"`

	ReferenceArea float64 `json:"reference_area" yaml:"reference_area"`

	// Region is the sampled rectangle in original-image coordinates.
	Region imaging.Region `json:"region" yaml:"region"`

	// AutoRegion records whether Region came from region reduction.
	AutoRegion bool `json:"auto_bbox" yaml:"auto_bbox"`

	// Scale is set when the image was downscaled before sampling.
	Scale *imaging.Scale `json:"scale,omitempty" yaml:"scale,omitempty"`

	Policy string `json:"policy" yaml:"policy"`
	Seed   int64  `json:"seed" yaml:"seed"`
	Chunks int    `json:"chunks" yaml:"chunks"`

	// Display is an evenly spread subsample of the run in original-image
	// coordinates.
	Display Batch `json:"display_samples" yaml:"-"`

	Convergence *Curve `json:"convergence,omitempty" yaml:"convergence,omitempty"`

	ElapsedSeconds float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Estimate samples img, the working image located at region in the
// original image, and returns the area estimate.
//
// All inputs are checked before sampling starts. On any error no partial
// result is returned. Cancellation is honoured between chunks.
func Estimate(ctx context.Context, img *imaging.Raster, region imaging.Region, policy detection.Policy, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if img.Empty() {
		return nil, fmt.Errorf("%w: working image is empty", detection.ErrEmptyWorkingRegion)
	}
	if region.Width != img.Width || region.Height != img.Height {
		return nil, fmt.Errorf("%w: region %dx%d does not match working image %dx%d",
			ErrInvalidArgument, region.Width, region.Height, img.Width, img.Height)
	}
	if region.XMin < 0 || region.YMin < 0 {
		return nil, fmt.Errorf("%w: region origin (%d,%d) is negative", ErrInvalidArgument, region.XMin, region.YMin)
	}
	if err := detection.CheckCompatible(policy, img); err != nil {
		return nil, err
	}
	policy, err := detection.ResolvePolicy(policy, img)
	if err != nil {
		return nil, err
	}

	tracker, err := p.tracker()
	if err != nil {
		return nil, err
	}
	sampler, err := NewSampler(img.Width, img.Height, NewRand(p.Seed), p.ChunkSize)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	display := newDisplaySelector(min(p.DisplayLimit, p.TotalSamples), p.TotalSamples, region)
	inside, done, chunks := 0, 0, 0

	err = sampler.Run(ctx, p.TotalSamples, func(b *Batch) error {
		inside += detection.ClassifyAt(img, policy, b.Xs, b.Ys, b.Inside)
		done += b.Len()
		chunks++
		tracker.Observe(b.Inside)
		display.add(b, done)
		return nil
	}, p.Progress)
	if err != nil {
		return nil, err
	}

	if err := tracker.Resample(ctx, sampler, img, policy); err != nil {
		return nil, err
	}

	frac := float64(inside) / float64(p.TotalSamples)
	return &Result{
		InsideCount:    inside,
		TotalSamples:   p.TotalSamples,
		AreaEstimate:   frac * p.ReferenceArea,
		InsideFraction: frac,
		StandardError:  p.ReferenceArea * math.Sqrt(frac*(1-frac)/float64(p.TotalSamples)),
		ReferenceArea:  p.ReferenceArea,
		Region:         region,
		Policy:         policy.String(),
		Seed:           p.Seed,
		Chunks:         chunks,
		Display:        display.out,
		Convergence:    tracker.Curve(),
		ElapsedSeconds: time.Since(start).Seconds(),
	}, nil
}

// displaySelector keeps a subsample of at most limit samples spread over
// the whole run. After done samples it holds limit*done/total of them, and
// within a chunk its picks are evenly spaced indices.
type displaySelector struct {
	limit  int
	total  int
	region imaging.Region
	out    Batch
}

func newDisplaySelector(limit, total int, region imaging.Region) *displaySelector {
	d := &displaySelector{limit: limit, total: total, region: region}
	d.out = Batch{Xs: make([]int, 0, limit), Ys: make([]int, 0, limit), Inside: make([]bool, 0, limit)}
	return d
}

func (d *displaySelector) add(b *Batch, done int) {
	n := b.Len()
	target := int(int64(d.limit) * int64(done) / int64(d.total))
	quota := min(target-d.out.Len(), n)
	for i := 0; i < quota; i++ {
		idx := 0
		if quota > 1 {
			idx = int(float64(i) * float64(n-1) / float64(quota-1))
		}
		x, y := d.region.ToOriginal(b.Xs[idx], b.Ys[idx])
		d.out.Append(x, y, b.Inside[idx])
	}
}
