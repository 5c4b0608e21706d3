//go:build !gocv

package detection

import (
	"github.com/anthonynsimon/bild/blur"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

// binarize is the pure Go backend. The Gaussian neighbourhood mean comes
// from bild's separable blur with radius AdaptiveWindow/2, which spans
// exactly AdaptiveWindow pixels per axis.
func binarize(gray *imaging.Raster, opts BinarizeOptions) (*imaging.Raster, error) {
	mean := blur.Gaussian(gray, float64(AdaptiveWindow/2))
	mask := adaptiveMask(gray, func(x, y int) int {
		return int(mean.Pix[y*mean.Stride+x*4])
	}, opts.Invert)
	return closeMask(openMask(mask)), nil
}
