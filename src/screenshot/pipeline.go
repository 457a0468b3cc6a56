package screenshot

import (
	"fmt"
	"log"
	"time"
)

// PixelSource is the surface a confirmed selection is read back from.
type PixelSource interface {
	// Bounds is the full readable area.
	Bounds() Region
	// Clear restores the surface to its background, removing any outline.
	Clear() error
	// ReadPixels returns the native pixel block under region.
	ReadPixels(region Region) ([]byte, error)
}

// CaptureOptions controls how a selection is turned into a file.
type CaptureOptions struct {
	Layout  PixelLayout
	Pattern string
	Now     time.Time
}

// CaptureAndSave clears the surface, reads back the pixels under region,
// converts them to RGB and writes a PNG. It returns the written path.
func CaptureAndSave(src PixelSource, region Region, opts CaptureOptions) (string, error) {
	if err := src.Clear(); err != nil {
		return "", fmt.Errorf("failed to clear overlay: %w", err)
	}

	area := region.CaptureBounds(src.Bounds())
	if area.Empty() {
		return "", fmt.Errorf("nothing to capture in region %+v", region)
	}
	if area != region {
		log.Printf("Capture area adjusted from %+v to %+v", region, area)
	}

	data, err := src.ReadPixels(area)
	if err != nil {
		return "", fmt.Errorf("failed to read pixels: %w", err)
	}

	rgb, err := DecodeRGB(data, area.Width, area.Height, opts.Layout)
	if err != nil {
		return "", fmt.Errorf("failed to decode pixels: %w", err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	path, err := ResolveOutputPath(opts.Pattern, now)
	if err != nil {
		return "", err
	}

	if err := SavePNG(path, rgb, area.Width, area.Height); err != nil {
		return "", err
	}
	log.Printf("Saved %dx%d selection to %s", area.Width, area.Height, path)
	return path, nil
}
