package screenshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"
)

// PixelFormat describes how a native pixel word encodes its channels.
type PixelFormat struct {
	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
}

// Validate checks that every mask is a non-empty contiguous run of bits and
// that no two masks overlap.
func (f PixelFormat) Validate() error {
	masks := []struct {
		name string
		mask uint32
	}{
		{"red", f.RedMask},
		{"green", f.GreenMask},
		{"blue", f.BlueMask},
	}
	for _, m := range masks {
		if m.mask == 0 {
			return fmt.Errorf("%s mask is empty", m.name)
		}
		shifted := m.mask >> bits.TrailingZeros32(m.mask)
		if shifted&(shifted+1) != 0 {
			return fmt.Errorf("%s mask %#x is not contiguous", m.name, m.mask)
		}
	}
	if f.RedMask&f.GreenMask != 0 || f.RedMask&f.BlueMask != 0 || f.GreenMask&f.BlueMask != 0 {
		return errors.New("channel masks overlap")
	}
	return nil
}

// Channels extracts 8-bit red, green and blue values from a native word.
func (f PixelFormat) Channels(word uint32) (r, g, b uint8) {
	return channel(word, f.RedMask), channel(word, f.GreenMask), channel(word, f.BlueMask)
}

// Pixel packs an 8-bit colour into a native word. Alpha is ignored.
func (f PixelFormat) Pixel(c color.RGBA) uint32 {
	return place(c.R, f.RedMask) | place(c.G, f.GreenMask) | place(c.B, f.BlueMask)
}

// channel masks then right-shifts by the mask's trailing zero count. Channels
// that are not 8 bits wide are rescaled so callers always see 0..255.
func channel(word, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	v := (word & mask) >> shift
	switch {
	case width == 8:
		return uint8(v)
	case width > 8:
		return uint8(v >> (width - 8))
	default:
		top := uint32(1)<<width - 1
		return uint8(v * 255 / top)
	}
}

func place(v uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	var raw uint32
	switch {
	case width == 8:
		raw = uint32(v)
	case width > 8:
		raw = uint32(v) << (width - 8)
	default:
		top := uint32(1)<<width - 1
		raw = (uint32(v)*top + 127) / 255
	}
	return (raw << shift) & mask
}

// PixelLayout is the in-memory shape of a ZPixmap image on the display.
type PixelLayout struct {
	Format       PixelFormat
	BitsPerPixel int // 16, 24 or 32
	ScanlinePad  int // in bits; rows are padded to a multiple of this
	ByteOrder    binary.ByteOrder
}

func (l PixelLayout) bytesPerPixel() int { return l.BitsPerPixel / 8 }

func (l PixelLayout) order() binary.ByteOrder {
	if l.ByteOrder == nil {
		return binary.LittleEndian
	}
	return l.ByteOrder
}

// Validate rejects layouts the decoder cannot handle.
func (l PixelLayout) Validate() error {
	switch l.BitsPerPixel {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bits per pixel: %d", l.BitsPerPixel)
	}
	if l.ScanlinePad < 0 || l.ScanlinePad%8 != 0 {
		return fmt.Errorf("unsupported scanline pad: %d", l.ScanlinePad)
	}
	return l.Format.Validate()
}

// Stride is the number of bytes in one padded row of width pixels.
func (l PixelLayout) Stride(width int) int {
	pad := l.ScanlinePad
	if pad <= 0 {
		pad = 8
	}
	rowBits := width * l.BitsPerPixel
	return (rowBits + pad - 1) / pad * pad / 8
}

func (l PixelLayout) word(b []byte) uint32 {
	order := l.order()
	switch l.bytesPerPixel() {
	case 4:
		return order.Uint32(b)
	case 3:
		if order == binary.BigEndian {
			return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		}
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	default:
		return uint32(order.Uint16(b))
	}
}

func (l PixelLayout) putWord(b []byte, w uint32) {
	order := l.order()
	switch l.bytesPerPixel() {
	case 4:
		order.PutUint32(b, w)
	case 3:
		if order == binary.BigEndian {
			b[0], b[1], b[2] = byte(w>>16), byte(w>>8), byte(w)
			return
		}
		b[0], b[1], b[2] = byte(w), byte(w>>8), byte(w>>16)
	default:
		order.PutUint16(b, uint16(w))
	}
}

// DecodeRGB converts a native pixel block into interleaved row-major RGB
// bytes (width*height*3). It never reads past the end of data.
func DecodeRGB(data []byte, width, height int, layout PixelLayout) ([]byte, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", width, height)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, width*height*3)
	if width == 0 || height == 0 {
		return out, nil
	}

	bpp := layout.bytesPerPixel()
	stride := layout.Stride(width)
	need := stride*(height-1) + width*bpp
	if len(data) < need {
		return nil, fmt.Errorf("pixel data too short: have %d bytes, need %d", len(data), need)
	}

	i := 0
	for y := 0; y < height; y++ {
		row := data[y*stride:]
		for x := 0; x < width; x++ {
			r, g, b := layout.Format.Channels(layout.word(row[x*bpp:]))
			out[i], out[i+1], out[i+2] = r, g, b
			i += 3
		}
	}
	return out, nil
}

// EncodeRows packs rows [y0, y1) of img into native pixel data.
func EncodeRows(img *image.RGBA, y0, y1 int, layout PixelLayout) []byte {
	b := img.Bounds()
	width := b.Dx()
	bpp := layout.bytesPerPixel()
	stride := layout.Stride(width)
	out := make([]byte, stride*(y1-y0))
	for y := y0; y < y1; y++ {
		row := out[(y-y0)*stride:]
		for x := 0; x < width; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			layout.putWord(row[x*bpp:], layout.Format.Pixel(c))
		}
	}
	return out
}
