package detection

import (
	"fmt"

	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

// ShapeBounds contains the tight bounding box of every pixel a policy
// classifies as inside.
type ShapeBounds struct {
	// Box is the tight bounding box, without padding.
	Box imaging.Region `json:"box"`

	// InsidePixels is the number of pixels classified as inside.
	InsidePixels int `json:"inside_pixels"`

	// TotalPixels is the number of pixels examined.
	TotalPixels int `json:"total_pixels"`
}

// FindShapeBounds scans every pixel of r with p and returns the tight
// bounding box of the inside pixels.
//
// Returns ErrNoShapeDetected when no pixel is inside, ErrEmptyWorkingRegion
// for an empty raster and ErrInvalidPolicyParameters when p is invalid or
// reads a different channel count than r holds.
func FindShapeBounds(r *imaging.Raster, p Policy) (*ShapeBounds, error) {
	if r.Empty() {
		return nil, fmt.Errorf("%w: image is empty", ErrEmptyWorkingRegion)
	}
	if err := CheckCompatible(p, r); err != nil {
		return nil, err
	}
	p, err := ResolvePolicy(p, r)
	if err != nil {
		return nil, err
	}

	minX, minY := r.Width, r.Height
	maxX, maxY := -1, -1
	count := 0
	ch := r.Channels

	for y := 0; y < r.Height; y++ {
		row := r.Pix[y*r.Width*ch : (y+1)*r.Width*ch]
		for x := 0; x < r.Width; x++ {
			if !p.Inside(row[x*ch : x*ch+ch]) {
				continue
			}
			count++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("%w: no pixel matches %s", ErrNoShapeDetected, p)
	}

	return &ShapeBounds{
		Box: imaging.Region{
			XMin:   minX,
			YMin:   minY,
			Width:  maxX - minX + 1,
			Height: maxY - minY + 1,
		},
		InsidePixels: count,
		TotalPixels:  r.Width * r.Height,
	}, nil
}

// PadRegion grows box by padding pixels on every side, clamped to a
// width x height image.
func PadRegion(box imaging.Region, padding, width, height int) (imaging.Region, error) {
	if padding < 0 {
		return imaging.Region{}, fmt.Errorf("%w: %d is negative", ErrInvalidPadding, padding)
	}
	x0 := max(box.XMin-padding, 0)
	y0 := max(box.YMin-padding, 0)
	x1 := min(box.XMin+box.Width-1+padding, width-1)
	y1 := min(box.YMin+box.Height-1+padding, height-1)

	out := imaging.Region{XMin: x0, YMin: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}
	if out.Width <= 0 || out.Height <= 0 {
		return imaging.Region{}, fmt.Errorf("%w: padded region %dx%d", ErrEmptyWorkingRegion, out.Width, out.Height)
	}
	return out, nil
}

// ReduceRegion crops r to the bounding box of its shape pixels grown by
// padding pixels on each side (clamped to the image).
//
// The returned raster is a copy and the returned Region locates it in r.
// A reference area used with the cropped raster must describe the cropped
// physical extent, not the whole of r.
func ReduceRegion(r *imaging.Raster, p Policy, padding int) (*imaging.Raster, imaging.Region, error) {
	if padding < 0 {
		return nil, imaging.Region{}, fmt.Errorf("%w: %d is negative", ErrInvalidPadding, padding)
	}
	bounds, err := FindShapeBounds(r, p)
	if err != nil {
		return nil, imaging.Region{}, err
	}
	region, err := PadRegion(bounds.Box, padding, r.Width, r.Height)
	if err != nil {
		return nil, imaging.Region{}, err
	}
	cropped, err := r.Crop(region)
	if err != nil {
		return nil, imaging.Region{}, fmt.Errorf("failed to crop to %+v: %w", region, err)
	}
	return cropped, region, nil
}
