//go:build gocv

package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
	"gocv.io/x/gocv"
)

// binarize is the OpenCV backend, selected with -tags gocv. It needs the
// OpenCV 4 shared libraries at build and run time.
//
// The mean is an explicit GaussianBlur with bild's sigma and edge
// replication rather than AdaptiveThreshold, whose kernel sigma is fixed
// by the block size and whose comparison is not strict. Both backends
// then share adaptiveMask.
func binarize(gray *imaging.Raster, opts BinarizeOptions) (*imaging.Raster, error) {
	src, err := gocv.NewMatFromBytes(gray.Height, gray.Width, gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap image for OpenCV: %w", err)
	}
	defer src.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(src, &blurred, image.Pt(AdaptiveWindow, AdaptiveWindow), adaptiveSigma, adaptiveSigma, gocv.BorderReplicate)

	mean := blurred.ToBytes()
	if len(mean) != len(gray.Pix) {
		return nil, fmt.Errorf("OpenCV returned %d bytes, want %d", len(mean), len(gray.Pix))
	}
	mask := adaptiveMask(gray, func(x, y int) int {
		return int(mean[y*gray.Width+x])
	}, opts.Invert)

	thresholded, err := gocv.NewMatFromBytes(gray.Height, gray.Width, gocv.MatTypeCV8UC1, mask.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap mask for OpenCV: %w", err)
	}
	defer thresholded.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(MorphKernel, MorphKernel))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(thresholded, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	pix := closed.ToBytes()
	if len(pix) != len(gray.Pix) {
		return nil, fmt.Errorf("OpenCV returned %d bytes, want %d", len(pix), len(gray.Pix))
	}
	return &imaging.Raster{Width: gray.Width, Height: gray.Height, Channels: imaging.GrayChannels, Pix: pix}, nil
}
