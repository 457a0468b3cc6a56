package overlay

import (
	"encoding/binary"
	"fmt"

	"github.com/jezek/xgb/xproto"

	"sleek/src/screenshot"
)

// layoutFor derives the ZPixmap layout of the root visual from the
// connection setup.
func layoutFor(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (screenshot.PixelLayout, error) {
	visual, err := rootVisual(screen)
	if err != nil {
		return screenshot.PixelLayout{}, err
	}

	var format *xproto.Format
	for i := range setup.PixmapFormats {
		if setup.PixmapFormats[i].Depth == screen.RootDepth {
			format = &setup.PixmapFormats[i]
			break
		}
	}
	if format == nil {
		return screenshot.PixelLayout{}, fmt.Errorf("no pixmap format for depth %d", screen.RootDepth)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if setup.ImageByteOrder == xproto.ImageOrderMSBFirst {
		order = binary.BigEndian
	}

	layout := screenshot.PixelLayout{
		Format: screenshot.PixelFormat{
			RedMask:   visual.RedMask,
			GreenMask: visual.GreenMask,
			BlueMask:  visual.BlueMask,
		},
		BitsPerPixel: int(format.BitsPerPixel),
		ScanlinePad:  int(format.ScanlinePad),
		ByteOrder:    order,
	}
	if err := layout.Validate(); err != nil {
		return screenshot.PixelLayout{}, fmt.Errorf("unsupported display format: %w", err)
	}
	return layout, nil
}

func rootVisual(screen *xproto.ScreenInfo) (xproto.VisualInfo, error) {
	for _, depth := range screen.AllowedDepths {
		if depth.Depth != screen.RootDepth {
			continue
		}
		for _, v := range depth.Visuals {
			if v.VisualId != screen.RootVisual {
				continue
			}
			if v.Class != xproto.VisualClassTrueColor && v.Class != xproto.VisualClassDirectColor {
				return v, fmt.Errorf("root visual %d is not true color (class %d)", v.VisualId, v.Class)
			}
			return v, nil
		}
	}
	return xproto.VisualInfo{}, fmt.Errorf("root visual %d not found at depth %d", screen.RootVisual, screen.RootDepth)
}
