package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/lestrrat-go/strftime"
)

const (
	// DefaultOutputPattern names the file when no output argument is given.
	DefaultOutputPattern = "sleek-%Y-%m-%d:%H:%M:%S"

	pngExt = ".png"
)

// ResolveOutputPath expands strftime verbs in pattern using local time and
// normalizes the result to carry exactly one ".png" extension.
func ResolveOutputPath(pattern string, now time.Time) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultOutputPattern
	}

	formatted, err := strftime.Format(pattern, now.Local())
	if err != nil {
		return "", fmt.Errorf("invalid output pattern %q: %w", pattern, err)
	}

	name := strings.TrimSpace(formatted)
	for strings.HasSuffix(strings.ToLower(name), pngExt) {
		name = strings.TrimSpace(name[:len(name)-len(pngExt)])
	}
	if name == "" {
		return "", fmt.Errorf("output pattern %q resolves to an empty file name", pattern)
	}
	return name + pngExt, nil
}

// SavePNG writes interleaved RGB bytes as an 8-bit RGB PNG. The file is
// written to a temporary sibling and renamed into place.
func SavePNG(path string, rgb []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image dimensions: width=%d, height=%d", width, height)
	}
	if len(rgb) < width*height*3 {
		return errors.New("pixel buffer smaller than image dimensions")
	}

	// An opaque RGBA image is written by image/png as colour type 2 (RGB).
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < width*height*3; i, j = i+3, j+4 {
		img.Pix[j] = rgb[i]
		img.Pix[j+1] = rgb[i+1]
		img.Pix[j+2] = rgb[i+2]
		img.Pix[j+3] = 0xff
	}

	pf, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer pf.Cleanup()

	if err := png.Encode(pf, img); err != nil {
		return fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
