package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Foreground and Background are the two values of a binary mask produced
// by Binarize. BinaryMask classifies Foreground as inside.
const (
	Foreground uint8 = 255
	Background uint8 = 0
)

// Policy decides whether a single pixel belongs to the shape.
//
// The set of policies is closed: only the types in this package implement
// Policy. Every comparison against a threshold is strict, so a pixel whose
// value equals the threshold is always outside.
type Policy interface {
	// Inside reports whether the pixel belongs to the shape. px holds
	// Channels() values.
	Inside(px []uint8) bool

	// Channels is the number of channels the policy reads per pixel.
	Channels() int

	// Validate checks the policy parameters against their domain.
	Validate() error

	// String names the policy and its parameters for reports.
	String() string

	policy()
}

// Threshold classifies grayscale pixels darker than Value as inside, or
// lighter than Value when Invert is set (light shape on dark background).
type Threshold struct {
	Value  int
	Invert bool
}

func (Threshold) policy() {}

// Inside implements Policy.
func (t Threshold) Inside(px []uint8) bool {
	if t.Invert {
		return int(px[0]) > t.Value
	}
	return int(px[0]) < t.Value
}

// Channels implements Policy.
func (Threshold) Channels() int { return imaging.GrayChannels }

// Validate implements Policy. Value must lie in [0,255].
func (t Threshold) Validate() error {
	if t.Value < 0 || t.Value > 255 {
		return fmt.Errorf("%w: threshold %d outside [0,255]", ErrInvalidPolicyParameters, t.Value)
	}
	return nil
}

func (t Threshold) String() string {
	return fmt.Sprintf("threshold(%d, invert=%t)", t.Value, t.Invert)
}

// ChannelSum classifies RGB pixels whose R+G+B is below Value as inside, or
// above Value when Invert is set.
type ChannelSum struct {
	Value  int
	Invert bool
}

func (ChannelSum) policy() {}

// Inside implements Policy.
func (c ChannelSum) Inside(px []uint8) bool {
	sum := int(px[0]) + int(px[1]) + int(px[2])
	if c.Invert {
		return sum > c.Value
	}
	return sum < c.Value
}

// Channels implements Policy.
func (ChannelSum) Channels() int { return imaging.RGBChannels }

// Validate implements Policy. Value must lie in [0,765].
func (c ChannelSum) Validate() error {
	if c.Value < 0 || c.Value > 3*255 {
		return fmt.Errorf("%w: channel sum threshold %d outside [0,765]", ErrInvalidPolicyParameters, c.Value)
	}
	return nil
}

func (c ChannelSum) String() string {
	return fmt.Sprintf("channel_sum(%d, invert=%t)", c.Value, c.Invert)
}

// NearWhiteExclusion classifies an RGB pixel as inside unless all three
// channels exceed ChannelThreshold.
type NearWhiteExclusion struct {
	ChannelThreshold int
}

func (NearWhiteExclusion) policy() {}

// Inside implements Policy.
func (n NearWhiteExclusion) Inside(px []uint8) bool {
	t := n.ChannelThreshold
	return !(int(px[0]) > t && int(px[1]) > t && int(px[2]) > t)
}

// Channels implements Policy.
func (NearWhiteExclusion) Channels() int { return imaging.RGBChannels }

// Validate implements Policy. ChannelThreshold must lie in [0,255].
func (n NearWhiteExclusion) Validate() error {
	if n.ChannelThreshold < 0 || n.ChannelThreshold > 255 {
		return fmt.Errorf("%w: channel threshold %d outside [0,255]", ErrInvalidPolicyParameters, n.ChannelThreshold)
	}
	return nil
}

func (n NearWhiteExclusion) String() string {
	return fmt.Sprintf("near_white(%d)", n.ChannelThreshold)
}

// BackgroundDistance classifies an RGB pixel as inside when its CIE L*a*b*
// distance from Background is strictly greater than Tolerance. Use it for
// photographs on a coloured, roughly uniform backdrop.
//
// With Auto set the backdrop is estimated from the image border by
// ResolvePolicy before any pixel is classified.
type BackgroundDistance struct {
	Background colorful.Color
	Tolerance  float64
	Auto       bool
}

func (BackgroundDistance) policy() {}

// Inside implements Policy.
func (b BackgroundDistance) Inside(px []uint8) bool {
	c := colorful.Color{
		R: float64(px[0]) / 255.0,
		G: float64(px[1]) / 255.0,
		B: float64(px[2]) / 255.0,
	}
	return c.DistanceLab(b.Background) > b.Tolerance
}

// Channels implements Policy.
func (BackgroundDistance) Channels() int { return imaging.RGBChannels }

// Validate implements Policy. The background must be a valid sRGB colour
// and Tolerance must lie in (0, MaxLabTolerance].
func (b BackgroundDistance) Validate() error {
	if !b.Auto && !b.Background.IsValid() {
		return fmt.Errorf("%w: background colour outside sRGB gamut", ErrInvalidPolicyParameters)
	}
	if math.IsNaN(b.Tolerance) || b.Tolerance <= 0 || b.Tolerance > MaxLabTolerance {
		return fmt.Errorf("%w: tolerance %g outside (0,%g]", ErrInvalidPolicyParameters, b.Tolerance, MaxLabTolerance)
	}
	return nil
}

func (b BackgroundDistance) String() string {
	if b.Auto {
		return fmt.Sprintf("background_distance(auto, %g)", b.Tolerance)
	}
	return fmt.Sprintf("background_distance(%s, %g)", b.Background.Hex(), b.Tolerance)
}

// ResolvePolicy fixes any parameter p derives from the image itself. An
// automatic BackgroundDistance takes the border colour of img as its
// backdrop; every other policy is returned unchanged.
func ResolvePolicy(p Policy, img *imaging.Raster) (Policy, error) {
	b, ok := p.(BackgroundDistance)
	if !ok || !b.Auto {
		return p, nil
	}
	c, err := imaging.BorderColor(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyWorkingRegion, err)
	}
	b.Background, _ = colorful.MakeColor(c)
	b.Auto = false
	return b, nil
}

// MaxLabTolerance bounds BackgroundDistance.Tolerance. It exceeds the
// largest L*a*b* distance between two sRGB colours in go-colorful's scale
// (L in [0,1]).
const MaxLabTolerance = 3.0

// BinaryMask reads a mask produced by Binarize: a pixel is inside iff it
// equals Foreground.
type BinaryMask struct{}

func (BinaryMask) policy() {}

// Inside implements Policy.
func (BinaryMask) Inside(px []uint8) bool { return px[0] == Foreground }

// Channels implements Policy.
func (BinaryMask) Channels() int { return imaging.GrayChannels }

// Validate implements Policy.
func (BinaryMask) Validate() error { return nil }

func (BinaryMask) String() string { return "binary_mask" }

// Classify applies p to a single pixel.
func Classify(p Policy, px []uint8) bool {
	return p.Inside(px)
}

// CheckCompatible validates p and checks that r carries the channel count
// p reads.
func CheckCompatible(p Policy, r *imaging.Raster) error {
	if p == nil {
		return fmt.Errorf("%w: no policy", ErrInvalidPolicyParameters)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if r.Channels != p.Channels() {
		return fmt.Errorf("%w: %s reads %d channel(s), image has %d",
			ErrInvalidPolicyParameters, p, p.Channels(), r.Channels)
	}
	return nil
}

// ClassifyAt gathers the pixels at the coordinate pairs (xs[i], ys[i]),
// writes each verdict into inside[i] and returns the inside count.
// The three slices must have equal length and every coordinate must lie
// inside r. r should have passed CheckCompatible for p; a policy reading
// fewer channels than r holds sees the leading channels of each pixel.
func ClassifyAt(r *imaging.Raster, p Policy, xs, ys []int, inside []bool) int {
	count := 0
	ch := r.Channels
	if pol, ok := p.(Threshold); ok && ch == imaging.GrayChannels {
		// Hot path: avoid the interface call and slice header per sample.
		for i := range xs {
			v := int(r.Pix[ys[i]*r.Width+xs[i]])
			in := v < pol.Value
			if pol.Invert {
				in = v > pol.Value
			}
			inside[i] = in
			if in {
				count++
			}
		}
		return count
	}
	for i := range xs {
		o := (ys[i]*r.Width + xs[i]) * ch
		in := p.Inside(r.Pix[o : o+ch])
		inside[i] = in
		if in {
			count++
		}
	}
	return count
}
