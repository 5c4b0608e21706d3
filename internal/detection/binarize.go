package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

// Adaptive binarization constants. The local mean is Gaussian weighted over
// an AdaptiveWindow x AdaptiveWindow neighbourhood and a pixel must differ
// from it by more than AdaptiveBias to count as shape. Speckle is removed
// with a MorphKernel x MorphKernel square opening followed by a closing.
const (
	AdaptiveWindow = 11
	AdaptiveBias   = 2
	MorphKernel    = 3
)

// BinarizeOptions selects the shape polarity of Binarize.
type BinarizeOptions struct {
	// Invert marks pixels lighter than their neighbourhood as shape
	// (light shape on dark background). By default darker pixels are shape.
	Invert bool `json:"invert,omitempty" yaml:"invert,omitempty"`
}

// Binarize converts a grayscale raster into a Foreground/Background mask of
// the same size by adaptive local thresholding followed by morphological
// opening then closing.
//
// A dark pixel v is Foreground when v < mean - AdaptiveBias, where mean is
// the Gaussian-weighted neighbourhood mean; with Invert a light pixel is
// Foreground when v > mean + AdaptiveBias. Sample the result with the
// BinaryMask policy.
//
// Adaptive thresholding responds to local contrast, so the interior of a
// solid shape much wider than AdaptiveWindow can come out as Background.
// It suits outlines, hatching and photographs with uneven lighting.
func Binarize(gray *imaging.Raster, opts BinarizeOptions) (*imaging.Raster, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("%w: image is empty", ErrEmptyWorkingRegion)
	}
	if gray.Channels != imaging.GrayChannels {
		return nil, fmt.Errorf("binarize needs a grayscale image, got %d channels", gray.Channels)
	}
	return binarize(gray, opts)
}

// adaptiveSigma is the standard deviation of bild's Gaussian blur at radius
// AdaptiveWindow/2. Its kernel is exp(-x*x/4r), so sigma*sigma = 2r.
var adaptiveSigma = math.Sqrt(2 * float64(AdaptiveWindow/2))

// adaptiveMask marks the pixels of gray that differ from their
// neighbourhood mean by more than AdaptiveBias: darker by default, lighter
// with invert. mean(x, y) is the Gaussian-weighted mean around (x, y).
func adaptiveMask(gray *imaging.Raster, mean func(x, y int) int, invert bool) *imaging.Raster {
	mask := &imaging.Raster{Width: gray.Width, Height: gray.Height, Channels: imaging.GrayChannels, Pix: make([]uint8, len(gray.Pix))}
	for y := 0; y < gray.Height; y++ {
		for x := 0; x < gray.Width; x++ {
			v, m := int(gray.Pix[y*gray.Width+x]), mean(x, y)
			in := v < m-AdaptiveBias
			if invert {
				in = v > m+AdaptiveBias
			}
			if in {
				mask.Pix[y*gray.Width+x] = Foreground
			}
		}
	}
	return mask
}

// morphRadius is the bild filter radius spanning a MorphKernel square.
const morphRadius = MorphKernel / 2

// erode sets a pixel to Foreground only when every in-bounds pixel of its
// MorphKernel square neighbourhood is Foreground.
func erode(mask *imaging.Raster) *imaging.Raster {
	return maskFromRGBA(effect.Erode(mask, morphRadius))
}

// dilate sets a pixel to Foreground when any in-bounds pixel of its
// MorphKernel square neighbourhood is Foreground.
func dilate(mask *imaging.Raster) *imaging.Raster {
	return maskFromRGBA(effect.Dilate(mask, morphRadius))
}

// maskFromRGBA reads channel 0 of a filtered mask back into a raster.
func maskFromRGBA(img *image.RGBA) *imaging.Raster {
	b := img.Bounds()
	out := &imaging.Raster{Width: b.Dx(), Height: b.Dy(), Channels: imaging.GrayChannels, Pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Pix[y*out.Width+x] = img.Pix[y*img.Stride+x*4]
		}
	}
	return out
}

// openMask removes foreground features smaller than the kernel.
func openMask(mask *imaging.Raster) *imaging.Raster {
	return dilate(erode(mask))
}

// closeMask fills background gaps smaller than the kernel.
func closeMask(mask *imaging.Raster) *imaging.Raster {
	return erode(dilate(mask))
}
