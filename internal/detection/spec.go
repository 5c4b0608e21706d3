package detection

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Policy type names accepted by PolicySpec.Type.
const (
	TypeThreshold          = "threshold"
	TypeChannelSum         = "channel_sum"
	TypeNearWhite          = "near_white"
	TypeBackgroundDistance = "background_distance"
	TypeBinaryMask         = "binary_mask"
)

// Defaults applied by PolicySpec for omitted parameters.
const (
	DefaultThreshold          = 128
	DefaultChannelSum         = 3 * DefaultThreshold
	DefaultNearWhiteThreshold = 240
	DefaultBackground         = "#ffffff"
	BackgroundAuto            = "auto"
	DefaultTolerance          = 0.1
)

// PolicySpec is the declarative form of a Policy as it appears in tool
// arguments and run files.
//
// Omitted parameters take the package defaults. Parameters that are present
// but out of range are rejected by Policy; they are never clamped.
type PolicySpec struct {
	// Type is one of threshold, channel_sum, near_white,
	// background_distance or binary_mask. Empty means threshold.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Threshold is the grayscale threshold (threshold) or the summed
	// channel threshold (channel_sum).
	Threshold *int `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Invert selects light-shape-on-dark-background for threshold and
	// channel_sum.
	Invert bool `json:"invert,omitempty" yaml:"invert,omitempty"`

	// ChannelThreshold is the per-channel bound for near_white.
	ChannelThreshold *int `json:"channel_threshold,omitempty" yaml:"channel_threshold,omitempty"`

	// Background is the backdrop colour as "#rrggbb" for
	// background_distance, or "auto" to take it from the image border.
	Background string `json:"background,omitempty" yaml:"background,omitempty"`

	// Tolerance is the L*a*b* distance bound for background_distance.
	Tolerance *float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// Policy builds and validates the policy described by s.
func (s PolicySpec) Policy() (Policy, error) {
	var p Policy
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "", TypeThreshold:
		p = Threshold{Value: intOr(s.Threshold, DefaultThreshold), Invert: s.Invert}
	case TypeChannelSum:
		p = ChannelSum{Value: intOr(s.Threshold, DefaultChannelSum), Invert: s.Invert}
	case TypeNearWhite:
		p = NearWhiteExclusion{ChannelThreshold: intOr(s.ChannelThreshold, DefaultNearWhiteThreshold)}
	case TypeBackgroundDistance:
		tol := DefaultTolerance
		if s.Tolerance != nil {
			tol = *s.Tolerance
		}
		hex := strings.TrimSpace(s.Background)
		if strings.EqualFold(hex, BackgroundAuto) {
			p = BackgroundDistance{Tolerance: tol, Auto: true}
			break
		}
		if hex == "" {
			hex = DefaultBackground
		}
		bg, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("%w: background %q: %v", ErrInvalidPolicyParameters, s.Background, err)
		}
		p = BackgroundDistance{Background: bg, Tolerance: tol}
	case TypeBinaryMask:
		p = BinaryMask{}
	default:
		return nil, fmt.Errorf("%w: unknown policy type %q", ErrInvalidPolicyParameters, s.Type)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
