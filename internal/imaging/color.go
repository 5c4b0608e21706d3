package imaging

import (
	"fmt"
	"image/color"
)

// backdropQuantum groups border colours into buckets of this many levels
// per channel, so JPEG noise on a uniform backdrop lands in one bucket.
const backdropQuantum = 16

// BorderColor estimates the backdrop colour of r from its outermost rows
// and columns.
//
// Border pixels are quantized to backdropQuantum levels per channel and
// the most frequent bucket wins; the result is the mean of the exact pixel
// values in that bucket. Ties go to the bucket first seen walking the
// border clockwise from the top-left corner. Grayscale rasters are read as
// R = G = B.
func BorderColor(r *Raster) (color.RGBA, error) {
	if r.Empty() {
		return color.RGBA{}, fmt.Errorf("image is empty")
	}

	type bucket struct {
		count   int
		r, g, b int
		order   int
	}
	buckets := make(map[[3]uint8]*bucket)

	add := func(x, y int) {
		px := r.Pixel(x, y)
		cr, cg, cb := px[0], px[0], px[0]
		if r.Channels == RGBChannels {
			cg, cb = px[1], px[2]
		}
		key := [3]uint8{cr / backdropQuantum, cg / backdropQuantum, cb / backdropQuantum}
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{order: len(buckets)}
			buckets[key] = bk
		}
		bk.count++
		bk.r += int(cr)
		bk.g += int(cg)
		bk.b += int(cb)
	}

	for _, p := range borderWalk(r.Width, r.Height) {
		add(p[0], p[1])
	}

	var best *bucket
	for _, bk := range buckets {
		if best == nil || bk.count > best.count || (bk.count == best.count && bk.order < best.order) {
			best = bk
		}
	}
	return color.RGBA{
		R: uint8((best.r + best.count/2) / best.count),
		G: uint8((best.g + best.count/2) / best.count),
		B: uint8((best.b + best.count/2) / best.count),
		A: 255,
	}, nil
}

// borderWalk lists every border pixel once, clockwise from (0, 0).
func borderWalk(width, height int) [][2]int {
	var out [][2]int
	for x := 0; x < width; x++ {
		out = append(out, [2]int{x, 0})
	}
	for y := 1; y < height; y++ {
		out = append(out, [2]int{width - 1, y})
	}
	if height > 1 {
		for x := width - 2; x >= 0; x-- {
			out = append(out, [2]int{x, height - 1})
		}
	}
	if width > 1 {
		for y := height - 2; y >= 1; y-- {
			out = append(out, [2]int{0, y})
		}
	}
	return out
}
