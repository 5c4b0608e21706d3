// Package imaging turns decoded images into the working arrays an area
// estimation samples from.
//
// A Raster is a row-major array of 8-bit intensities with either one
// (grayscale) or three (RGB) channels. A Region locates a raster inside the
// image it was cropped from. ImageCache decodes files once and hands out
// fresh rasters on every request so that no run ever aliases another run's
// pixels. BorderColor estimates the backdrop colour of a photograph from
// its outermost pixels.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position, increasing rightward
//   - Y: vertical position, increasing downward
//   - A Region's (XMin, YMin) is inclusive and it spans Width x Height pixels
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Rasters are plain values and must
// not be written while another goroutine reads them.
//
// # Supported Formats
//
// PNG, JPEG and GIF through the standard library, and BMP, TIFF and WebP
// through golang.org/x/image.
package imaging
