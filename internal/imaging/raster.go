package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Channel counts supported by Raster.
const (
	GrayChannels = 1
	RGBChannels  = 3
)

// Raster is a decoded pixel array of 8-bit intensities.
//
// Pixels are stored row-major, Channels bytes per pixel: a grayscale raster
// holds one luma byte per pixel and an RGB raster holds R, G, B in that
// order. A Raster is the working image of an estimation run; it is never
// mutated once a run has started sampling it.
//
// Raster implements image.Image so it can be handed directly to the image
// processing libraries used by the detection package.
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewRaster allocates a zeroed raster. Channels must be GrayChannels or
// RGBChannels.
func NewRaster(width, height, channels int) (*Raster, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid raster dimensions %dx%d", width, height)
	}
	if channels != GrayChannels && channels != RGBChannels {
		return nil, fmt.Errorf("unsupported channel count %d (want 1 or 3)", channels)
	}
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Width == 0 || r.Height == 0
}

func (r *Raster) offset(x, y int) int {
	return (y*r.Width + x) * r.Channels
}

// Pixel returns the channel values at (x, y) as a view into Pix.
// The caller must keep (x, y) inside the raster.
func (r *Raster) Pixel(x, y int) []uint8 {
	i := r.offset(x, y)
	return r.Pix[i : i+r.Channels : i+r.Channels]
}

// SetPixel writes the channel values at (x, y).
func (r *Raster) SetPixel(x, y int, values ...uint8) {
	copy(r.Pix[r.offset(x, y):r.offset(x, y)+r.Channels], values)
}

// Fill sets every pixel to the given channel values.
func (r *Raster) Fill(values ...uint8) {
	for i := 0; i < len(r.Pix); i += r.Channels {
		copy(r.Pix[i:i+r.Channels], values)
	}
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model {
	if r.Channels == GrayChannels {
		return color.GrayModel
	}
	return color.RGBAModel
}

// Bounds implements image.Image. The origin is always (0, 0).
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At implements image.Image.
func (r *Raster) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		if r.Channels == GrayChannels {
			return color.Gray{}
		}
		return color.RGBA{}
	}
	p := r.Pixel(x, y)
	if r.Channels == GrayChannels {
		return color.Gray{Y: p[0]}
	}
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
}

// Crop copies the pixels inside region into a new raster. The result never
// aliases r.
func (r *Raster) Crop(region Region) (*Raster, error) {
	if err := region.Validate(r.Width, r.Height); err != nil {
		return nil, err
	}
	out, err := NewRaster(region.Width, region.Height, r.Channels)
	if err != nil {
		return nil, err
	}
	rowBytes := region.Width * r.Channels
	for y := 0; y < region.Height; y++ {
		src := r.offset(region.XMin, region.YMin+y)
		copy(out.Pix[y*rowBytes:(y+1)*rowBytes], r.Pix[src:src+rowBytes])
	}
	return out, nil
}

// ToGray returns a single-channel copy using ITU-R BT.601 luma weights.
// A grayscale raster is copied unchanged.
func (r *Raster) ToGray() *Raster {
	if r.Channels == GrayChannels {
		return r.clone()
	}
	out, _ := FromImage(r, GrayChannels)
	return out
}

// ToRGB returns a three-channel copy. Grayscale values are replicated into
// each channel.
func (r *Raster) ToRGB() *Raster {
	if r.Channels == RGBChannels {
		return r.clone()
	}
	out := &Raster{Width: r.Width, Height: r.Height, Channels: RGBChannels, Pix: make([]uint8, r.Width*r.Height*RGBChannels)}
	for i, v := range r.Pix {
		out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = v, v, v
	}
	return out
}

func (r *Raster) clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: pix}
}

// FromImage converts a decoded image into a raster with the requested
// channel count.
//
// Grayscale conversion goes through imaging.Grayscale, which applies the
// BT.601 weights 0.299*R + 0.587*G + 0.114*B. Alpha is discarded: the
// colour channels of non-premultiplied pixels are kept as stored.
func FromImage(img image.Image, channels int) (*Raster, error) {
	var src *image.NRGBA
	switch channels {
	case GrayChannels:
		src = imaging.Grayscale(img)
	case RGBChannels:
		src = imaging.Clone(img)
	default:
		return nil, fmt.Errorf("unsupported channel count %d (want 1 or 3)", channels)
	}

	b := src.Bounds()
	out, err := NewRaster(b.Dx(), b.Dy(), channels)
	if err != nil {
		return nil, err
	}
	for y := 0; y < out.Height; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+out.Width*4]
		for x := 0; x < out.Width; x++ {
			px := row[x*4 : x*4+4]
			if channels == GrayChannels {
				out.Pix[y*out.Width+x] = px[0]
				continue
			}
			o := (y*out.Width + x) * 3
			out.Pix[o], out.Pix[o+1], out.Pix[o+2] = px[0], px[1], px[2]
		}
	}
	return out, nil
}
