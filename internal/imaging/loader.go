package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageCache provides thread-safe caching of decoded images to avoid
// redundant disk reads when several estimations run against the same file.
//
// The cache stores the decoded image.Image together with the format name
// reported by the decoder, keyed by the exact path string. Rasters derived
// from a cached image are always fresh copies, so a run can never mutate
// the cached original.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	img    image.Image
	format string
}

// NewImageCache creates an empty image cache ready for concurrent use.
func NewImageCache() *ImageCache {
	return &ImageCache{
		entries: make(map[string]cacheEntry),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (cacheEntry, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("failed to decode image: %w", err)
	}

	e := cacheEntry{img: img, format: format}
	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()

	return e, nil
}

// LoadRaster decodes path (through the cache) and converts it to a raster
// with the requested channel count.
//
// When maxDimension is positive and either side of the image exceeds it,
// the image is downscaled with imaging.Fit (aspect ratio preserved,
// Lanczos filter) before conversion. Downscaling changes the pixel grid
// only; the physical extent a reference area describes is unchanged. The
// returned Scale maps raster coordinates back to the source image.
func (c *ImageCache) LoadRaster(path string, channels, maxDimension int) (*Raster, Scale, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, Scale{}, err
	}
	if maxDimension < 0 {
		return nil, Scale{}, fmt.Errorf("invalid max dimension %d", maxDimension)
	}
	b := img.Bounds()
	if maxDimension > 0 && (b.Dx() > maxDimension || b.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	r, err := FromImage(img, channels)
	if err != nil {
		return nil, Scale{}, err
	}
	return r, Scale{SourceWidth: b.Dx(), SourceHeight: b.Dy(), Width: r.Width, Height: r.Height}, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not cached, Evict does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ImageInfo describes a decoded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that accepted the file ("png", "jpeg", ...).
	Format string `json:"format"`

	// Grayscale is true when the decoded colour model is already single
	// channel, in which case threshold policies see the stored values
	// unchanged.
	Grayscale bool `json:"grayscale"`

	// PixelCount is Width * Height, the size of the full sampling frame.
	PixelCount int `json:"pixel_count"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	gray := false
	switch e.img.(type) {
	case *image.Gray, *image.Gray16:
		gray = true
	}

	b := e.img.Bounds()
	return &ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        e.format,
		Grayscale:     gray,
		PixelCount:    b.Dx() * b.Dy(),
		FileSizeBytes: stat.Size(),
	}, nil
}
