package detection

import (
	"errors"
	"testing"

	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
)

// grayWithRect returns a w x h white image with a black filled rectangle.
func grayWithRect(t *testing.T, w, h int, box imaging.Region) *imaging.Raster {
	t.Helper()
	r, err := imaging.NewRaster(w, h, imaging.GrayChannels)
	if err != nil {
		t.Fatalf("NewRaster: %v", err)
	}
	r.Fill(255)
	for y := box.YMin; y < box.YMin+box.Height; y++ {
		for x := box.XMin; x < box.XMin+box.Width; x++ {
			r.SetPixel(x, y, 0)
		}
	}
	return r
}

func TestFindShapeBounds(t *testing.T) {
	box := imaging.Region{XMin: 4, YMin: 6, Width: 5, Height: 3}
	img := grayWithRect(t, 20, 15, box)

	bounds, err := FindShapeBounds(img, Threshold{Value: 128})
	if err != nil {
		t.Fatalf("FindShapeBounds failed: %v", err)
	}
	if bounds.Box != box {
		t.Errorf("Box = %+v, want %+v", bounds.Box, box)
	}
	if bounds.InsidePixels != 15 {
		t.Errorf("InsidePixels = %d, want 15", bounds.InsidePixels)
	}
	if bounds.TotalPixels != 300 {
		t.Errorf("TotalPixels = %d, want 300", bounds.TotalPixels)
	}
}

func TestFindShapeBounds_Errors(t *testing.T) {
	white, _ := imaging.NewRaster(10, 10, imaging.GrayChannels)
	white.Fill(255)
	empty, _ := imaging.NewRaster(0, 0, imaging.GrayChannels)

	tests := []struct {
		name   string
		img    *imaging.Raster
		policy Policy
		want   error
	}{
		{"no shape", white, Threshold{Value: 128}, ErrNoShapeDetected},
		{"empty image", empty, Threshold{Value: 128}, ErrEmptyWorkingRegion},
		{"channel mismatch", white, NearWhiteExclusion{ChannelThreshold: 240}, ErrInvalidPolicyParameters},
		{"invalid threshold", white, Threshold{Value: -3}, ErrInvalidPolicyParameters},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindShapeBounds(tt.img, tt.policy)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPadRegion(t *testing.T) {
	tests := []struct {
		name    string
		box     imaging.Region
		padding int
		want    imaging.Region
	}{
		{"zero padding", imaging.Region{XMin: 3, YMin: 3, Width: 2, Height: 2}, 0, imaging.Region{XMin: 3, YMin: 3, Width: 2, Height: 2}},
		{"inner", imaging.Region{XMin: 3, YMin: 3, Width: 2, Height: 2}, 1, imaging.Region{XMin: 2, YMin: 2, Width: 4, Height: 4}},
		{"clamped top left", imaging.Region{XMin: 1, YMin: 0, Width: 2, Height: 2}, 5, imaging.Region{XMin: 0, YMin: 0, Width: 8, Height: 7}},
		{"clamped bottom right", imaging.Region{XMin: 8, YMin: 8, Width: 2, Height: 2}, 3, imaging.Region{XMin: 5, YMin: 5, Width: 5, Height: 5}},
		{"larger than image", imaging.Region{XMin: 4, YMin: 4, Width: 1, Height: 1}, 100, imaging.Region{Width: 10, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PadRegion(tt.box, tt.padding, 10, 10)
			if err != nil {
				t.Fatalf("PadRegion failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("PadRegion = %+v, want %+v", got, tt.want)
			}
			if err := got.Validate(10, 10); err != nil {
				t.Errorf("padded region out of bounds: %v", err)
			}
		})
	}

	if _, err := PadRegion(imaging.Region{Width: 1, Height: 1}, -1, 10, 10); !errors.Is(err, ErrInvalidPadding) {
		t.Errorf("negative padding: error = %v, want ErrInvalidPadding", err)
	}
}

func TestReduceRegion(t *testing.T) {
	box := imaging.Region{XMin: 10, YMin: 5, Width: 6, Height: 4}
	img := grayWithRect(t, 30, 20, box)

	cropped, region, err := ReduceRegion(img, Threshold{Value: 128}, 2)
	if err != nil {
		t.Fatalf("ReduceRegion failed: %v", err)
	}
	want := imaging.Region{XMin: 8, YMin: 3, Width: 10, Height: 8}
	if region != want {
		t.Errorf("region = %+v, want %+v", region, want)
	}
	if cropped.Width != want.Width || cropped.Height != want.Height {
		t.Fatalf("cropped %dx%d, want %dx%d", cropped.Width, cropped.Height, want.Width, want.Height)
	}
	// The shape keeps its pixels; the padding ring is background.
	if cropped.Pixel(2, 2)[0] != 0 {
		t.Error("shape corner missing from crop")
	}
	if cropped.Pixel(0, 0)[0] != 255 {
		t.Error("padding should be background")
	}
}

func TestReduceRegion_Idempotent(t *testing.T) {
	img := grayWithRect(t, 12, 12, imaging.Region{XMin: 3, YMin: 2, Width: 5, Height: 7})
	p := Threshold{Value: 128}

	once, _, err := ReduceRegion(img, p, 0)
	if err != nil {
		t.Fatalf("first ReduceRegion failed: %v", err)
	}
	twice, region, err := ReduceRegion(once, p, 0)
	if err != nil {
		t.Fatalf("second ReduceRegion failed: %v", err)
	}
	if region != imaging.FullRegion(once.Width, once.Height) {
		t.Errorf("tight crop reduced again to %+v", region)
	}
	if twice.Width != once.Width || twice.Height != once.Height {
		t.Errorf("size changed from %dx%d to %dx%d", once.Width, once.Height, twice.Width, twice.Height)
	}
}

func TestReduceRegion_Errors(t *testing.T) {
	white, _ := imaging.NewRaster(8, 8, imaging.GrayChannels)
	white.Fill(255)

	if _, _, err := ReduceRegion(white, Threshold{Value: 128}, 5); !errors.Is(err, ErrNoShapeDetected) {
		t.Errorf("all-white: error = %v, want ErrNoShapeDetected", err)
	}
	dark := grayWithRect(t, 8, 8, imaging.Region{Width: 8, Height: 8})
	if _, _, err := ReduceRegion(dark, Threshold{Value: 128}, -2); !errors.Is(err, ErrInvalidPadding) {
		t.Errorf("negative padding: error = %v, want ErrInvalidPadding", err)
	}
}
