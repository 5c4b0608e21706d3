package imaging

import (
	"fmt"
	"image"
)

// Region is an axis-aligned rectangle in original-image coordinates.
//
// XMin and YMin are inclusive; the rectangle spans Width columns and
// Height rows. A Region produced by region reduction always satisfies
// 0 <= XMin, XMin+Width <= original width (likewise for Y), and is used to
// translate working-image sample coordinates back to the original image.
type Region struct {
	XMin   int `json:"x_min" yaml:"x_min"`
	YMin   int `json:"y_min" yaml:"y_min"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// FullRegion returns the region covering a whole width x height image.
func FullRegion(width, height int) Region {
	return Region{Width: width, Height: height}
}

// Validate checks that the region is non-negative and fits inside an image
// of the given size. Zero-area regions are accepted here; callers that
// sample from a region reject them separately.
func (r Region) Validate(width, height int) error {
	if r.XMin < 0 || r.YMin < 0 || r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("region (%d,%d) %dx%d has negative components", r.XMin, r.YMin, r.Width, r.Height)
	}
	if r.XMin+r.Width > width || r.YMin+r.Height > height {
		return fmt.Errorf("region (%d,%d) %dx%d outside image bounds %dx%d",
			r.XMin, r.YMin, r.Width, r.Height, width, height)
	}
	return nil
}

// Area returns Width * Height in pixels.
func (r Region) Area() int {
	return r.Width * r.Height
}

// Rect returns the region as an image.Rectangle (max exclusive).
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.XMin, r.YMin, r.XMin+r.Width, r.YMin+r.Height)
}

// ToOriginal translates working-image coordinates inside r to
// original-image coordinates.
func (r Region) ToOriginal(x, y int) (int, int) {
	return x + r.XMin, y + r.YMin
}

// Scale relates the pixel grid of a downscaled raster to the grid of the
// source image it was decoded from. The zero value is the identity.
type Scale struct {
	SourceWidth  int `json:"source_width" yaml:"source_width"`
	SourceHeight int `json:"source_height" yaml:"source_height"`
	Width        int `json:"width" yaml:"width"`
	Height       int `json:"height" yaml:"height"`
}

// Identity reports whether s leaves coordinates unchanged.
func (s Scale) Identity() bool {
	return s.Width == 0 || s.Height == 0 ||
		(s.SourceWidth == s.Width && s.SourceHeight == s.Height)
}

// Point maps raster pixel (x, y) to the source pixel under its centre.
func (s Scale) Point(x, y int) (int, int) {
	if s.Identity() {
		return x, y
	}
	return (2*x + 1) * s.SourceWidth / (2 * s.Width), (2*y + 1) * s.SourceHeight / (2 * s.Height)
}

// Region maps a raster region to the smallest source region covering it.
func (s Scale) Region(r Region) Region {
	if s.Identity() {
		return r
	}
	x0 := r.XMin * s.SourceWidth / s.Width
	y0 := r.YMin * s.SourceHeight / s.Height
	x1 := ceilDiv((r.XMin+r.Width)*s.SourceWidth, s.Width)
	y1 := ceilDiv((r.YMin+r.Height)*s.SourceHeight, s.Height)
	return Region{XMin: x0, YMin: y0, Width: x1 - x0, Height: y1 - y0}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
