// Package detection decides which pixels of an image belong to the shape
// whose area is being estimated.
//
// # Classification Policies
//
// A Policy maps one pixel to an inside/outside verdict:
//
//   - Threshold: grayscale value < t (or > t when inverted)
//   - ChannelSum: R+G+B < t (or > t when inverted), t in [0,765]
//   - NearWhiteExclusion: inside unless all of R, G, B exceed the bound
//   - BackgroundDistance: CIE L*a*b* distance from a backdrop colour > tolerance;
//     the backdrop can be estimated from the image border (ResolvePolicy)
//   - BinaryMask: mask value == Foreground, for masks made by Binarize
//
// All comparisons are strict: a pixel exactly at the threshold is outside
// under both polarities. PolicySpec is the declarative form used by tool
// arguments and run files.
//
// # Region Reduction
//
// ReduceRegion crops an image to the bounding box of its inside pixels,
// grown by a padding margin and clamped to the image. Sampling the reduced
// rectangle concentrates samples on the shape; the reference area must then
// describe the reduced rectangle.
//
// # Binarization
//
// Binarize produces a clean binary mask from noisy or unevenly lit
// photographs: Gaussian adaptive thresholding followed by a 3x3 opening and
// closing. The default backend is pure Go (bild for the Gaussian mean).
// Building with -tags gocv switches to OpenCV.
//
// # Error Handling
//
// Failures are reported with the sentinel errors ErrNoShapeDetected,
// ErrInvalidPolicyParameters, ErrEmptyWorkingRegion and ErrInvalidPadding,
// wrapped with context; match them with errors.Is.
package detection
