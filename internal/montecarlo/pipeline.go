package montecarlo

import (
	"context"
	"fmt"

	"github.com/ironsheep/area-estimator-mcp/internal/detection"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

// RunConfig describes a complete estimation: how the working image is
// derived from the source image and how it is sampled.
type RunConfig struct {
	// Policy classifies working-image pixels. It may be nil when Binarize
	// is set, in which case BinaryMask is used.
	Policy detection.Policy

	// Binarize, when set, replaces the source with an adaptive-threshold
	// mask before region reduction and sampling. The policy must then be
	// BinaryMask.
	Binarize *detection.BinarizeOptions

	// AutoRegion crops the working image to the shape's bounding box
	// grown by Padding pixels. ReferenceArea must then describe the
	// cropped extent.
	AutoRegion bool
	Padding    int

	// Scale maps the source raster back to the image file it was
	// downscaled from. The zero value means src is at full resolution.
	Scale imaging.Scale

	Params
}

// Run derives the working image from src and estimates the shape's area.
//
// The source is converted to the channel count the policy reads (RGB to
// BT.601 luma, or gray replicated to RGB), optionally binarized, optionally
// reduced to the shape's bounding box, and then sampled. Every parameter is
// checked before any of that work starts. src is never modified. The
// result's region and display samples are reported on the grid of the
// image file, undoing any downscale described by cfg.Scale.
func Run(ctx context.Context, src *imaging.Raster, cfg RunConfig) (*Result, error) {
	policy, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if src.Empty() {
		return nil, fmt.Errorf("%w: source image is empty", detection.ErrEmptyWorkingRegion)
	}
	if !cfg.Scale.Identity() && (cfg.Scale.Width != src.Width || cfg.Scale.Height != src.Height) {
		return nil, fmt.Errorf("%w: scale is for a %dx%d raster, source is %dx%d",
			ErrInvalidArgument, cfg.Scale.Width, cfg.Scale.Height, src.Width, src.Height)
	}

	working := src
	switch {
	case policy.Channels() == imaging.GrayChannels && src.Channels == imaging.RGBChannels:
		working = src.ToGray()
	case policy.Channels() == imaging.RGBChannels && src.Channels == imaging.GrayChannels:
		working = src.ToRGB()
	}

	if policy, err = detection.ResolvePolicy(policy, working); err != nil {
		return nil, err
	}

	if cfg.Binarize != nil {
		working, err = detection.Binarize(working, *cfg.Binarize)
		if err != nil {
			return nil, err
		}
	}

	region := imaging.FullRegion(working.Width, working.Height)
	if cfg.AutoRegion {
		working, region, err = detection.ReduceRegion(working, policy, cfg.Padding)
		if err != nil {
			return nil, err
		}
	}

	res, err := Estimate(ctx, working, region, policy, cfg.Params)
	if err != nil {
		return nil, err
	}
	res.AutoRegion = cfg.AutoRegion
	if !cfg.Scale.Identity() {
		res.Region = cfg.Scale.Region(res.Region)
		for i := range res.Display.Xs {
			res.Display.Xs[i], res.Display.Ys[i] = cfg.Scale.Point(res.Display.Xs[i], res.Display.Ys[i])
		}
		scale := cfg.Scale
		res.Scale = &scale
	}
	return res, nil
}

// SourceChannels is the channel count a source image should be decoded to
// so that Run needs no conversion.
func (cfg RunConfig) SourceChannels() int {
	if cfg.Binarize != nil || cfg.Policy == nil {
		return imaging.GrayChannels
	}
	return cfg.Policy.Channels()
}

func (cfg RunConfig) validate() (detection.Policy, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}

	policy := cfg.Policy
	if cfg.Binarize != nil {
		if policy == nil {
			policy = detection.BinaryMask{}
		}
		if _, ok := policy.(detection.BinaryMask); !ok {
			return nil, fmt.Errorf("%w: binarized input is sampled with %s, got %s",
				detection.ErrInvalidPolicyParameters, detection.BinaryMask{}, policy)
		}
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: no policy", detection.ErrInvalidPolicyParameters)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if cfg.AutoRegion && cfg.Padding < 0 {
		return nil, fmt.Errorf("%w: %d is negative", detection.ErrInvalidPadding, cfg.Padding)
	}
	return policy, nil
}
