// Package overlay owns the fullscreen X11 window the selection is drawn on.
//
// The window shows a frozen snapshot of the screen as its background pixmap,
// so clearing it restores the snapshot and reading it back after a clear
// yields the frozen screen pixels.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"sleek/src/render"
	"sleek/src/screenshot"
	"sleek/src/selection"
)

// ErrClosed is returned by NextEvent once the display connection is gone.
var ErrClosed = errors.New("overlay closed")

// SnapshotFunc grabs the pixels the overlay freezes on screen.
type SnapshotFunc func(bounds image.Rectangle) (*image.RGBA, error)

// Options configures Open.
type Options struct {
	// Snapshot defaults to screenshot.Capture.
	Snapshot SnapshotFunc
	// Style is applied to the GC up front; DrawRectangle may change it.
	Style render.Style
}

// Overlay is an open override-redirect window covering the default screen.
type Overlay struct {
	conn   *xgb.Conn
	window xproto.Window
	pixmap xproto.Pixmap
	gc     xproto.Gcontext
	depth  byte
	layout screenshot.PixelLayout
	width  int
	height int
	keys   keymap

	closeOnce sync.Once
}

const eventMask = xproto.EventMaskKeyPress |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion

// Open connects to the display, snapshots the screen and maps the overlay on
// top of everything with input focus. Anything acquired before a failure is
// released again.
func Open(opts Options) (*Overlay, error) {
	snapshot := opts.Snapshot
	if snapshot == nil {
		snapshot = screenshot.Capture
	}
	style := opts.Style
	if style.LineWidth <= 0 {
		style = render.DefaultStyle
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X display: %w", err)
	}
	o := &Overlay{conn: conn}
	ok := false
	defer func() {
		if !ok {
			o.Close()
		}
	}()

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	o.depth = screen.RootDepth
	o.width = int(screen.WidthInPixels)
	o.height = int(screen.HeightInPixels)

	o.layout, err = layoutFor(setup, screen)
	if err != nil {
		return nil, err
	}
	log.Printf("OVERLAY: screen %dx%d depth %d, %d bpp, masks r=%#x g=%#x b=%#x",
		o.width, o.height, o.depth, o.layout.BitsPerPixel,
		o.layout.Format.RedMask, o.layout.Format.GreenMask, o.layout.Format.BlueMask)

	// The snapshot must be taken before the overlay covers the screen.
	img, err := snapshot(image.Rect(0, 0, o.width, o.height))
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != o.width || b.Dy() != o.height {
		return nil, fmt.Errorf("snapshot is %dx%d, screen is %dx%d", b.Dx(), b.Dy(), o.width, o.height)
	}

	if err := o.createPixmap(screen); err != nil {
		return nil, err
	}
	if err := o.createWindow(screen); err != nil {
		return nil, err
	}
	if err := o.createGC(style); err != nil {
		return nil, err
	}
	if err := o.upload(img, int(setup.MaximumRequestLength)); err != nil {
		return nil, err
	}

	o.keys, err = loadKeymap(conn, setup)
	if err != nil {
		return nil, err
	}

	if err := xproto.MapWindowChecked(conn, o.window).Check(); err != nil {
		return nil, fmt.Errorf("failed to map overlay: %w", err)
	}
	if err := o.raiseAndFocus(); err != nil {
		return nil, err
	}

	ok = true
	log.Printf("OVERLAY: mapped window %d", o.window)
	return o, nil
}

// raiseAndFocus stacks the overlay on top and takes keyboard focus. Without
// focus Enter and Escape never reach the overlay.
func (o *Overlay) raiseAndFocus() error {
	err := xproto.ConfigureWindowChecked(o.conn, o.window, xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("failed to raise overlay: %w", err)
	}
	err = xproto.SetInputFocusChecked(o.conn, xproto.InputFocusNone, o.window, xproto.TimeCurrentTime).Check()
	if err != nil {
		return fmt.Errorf("failed to focus overlay: %w", err)
	}
	return nil
}

func (o *Overlay) createPixmap(screen *xproto.ScreenInfo) error {
	pid, err := xproto.NewPixmapId(o.conn)
	if err != nil {
		return fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	err = xproto.CreatePixmapChecked(o.conn, o.depth, pid, xproto.Drawable(screen.Root),
		uint16(o.width), uint16(o.height)).Check()
	if err != nil {
		return fmt.Errorf("failed to create background pixmap: %w", err)
	}
	o.pixmap = pid
	return nil
}

func (o *Overlay) createWindow(screen *xproto.ScreenInfo) error {
	wid, err := xproto.NewWindowId(o.conn)
	if err != nil {
		return fmt.Errorf("failed to allocate window id: %w", err)
	}
	// Values follow the bit order of the mask.
	mask := uint32(xproto.CwBackPixmap | xproto.CwOverrideRedirect | xproto.CwEventMask)
	values := []uint32{uint32(o.pixmap), 1, eventMask}
	err = xproto.CreateWindowChecked(o.conn, o.depth, wid, screen.Root,
		0, 0, uint16(o.width), uint16(o.height), 0,
		xproto.WindowClassInputOutput, screen.RootVisual, mask, values).Check()
	if err != nil {
		return fmt.Errorf("failed to create overlay window: %w", err)
	}
	o.window = wid
	return nil
}

func (o *Overlay) createGC(style render.Style) error {
	gc, err := xproto.NewGcontextId(o.conn)
	if err != nil {
		return fmt.Errorf("failed to allocate gc id: %w", err)
	}
	err = xproto.CreateGCChecked(o.conn, gc, xproto.Drawable(o.window),
		xproto.GcForeground|xproto.GcLineWidth,
		[]uint32{o.layout.Format.Pixel(style.Color), uint32(style.LineWidth)}).Check()
	if err != nil {
		return fmt.Errorf("failed to create graphics context: %w", err)
	}
	o.gc = gc
	return nil
}

// upload copies the snapshot into the background pixmap in row chunks that
// fit a single request.
func (o *Overlay) upload(img *image.RGBA, maxRequestLen int) error {
	stride := o.layout.Stride(o.width)
	rows, err := chunkRows(maxRequestLen, stride, o.height)
	if err != nil {
		return err
	}
	for y0 := 0; y0 < o.height; y0 += rows {
		y1 := min(y0+rows, o.height)
		data := screenshot.EncodeRows(img, y0, y1, o.layout)
		err := xproto.PutImageChecked(o.conn, xproto.ImageFormatZPixmap, xproto.Drawable(o.pixmap), o.gc,
			uint16(o.width), uint16(y1-y0), 0, int16(y0), 0, o.depth, data).Check()
		if err != nil {
			return fmt.Errorf("failed to upload snapshot rows %d-%d: %w", y0, y1, err)
		}
	}
	return nil
}

// putImageHeader is the fixed size of a PutImage request in bytes.
const putImageHeader = 24

// chunkRows returns how many rows of stride bytes fit in one request of at
// most maxRequestLen 4-byte units.
func chunkRows(maxRequestLen, stride, height int) (int, error) {
	if stride <= 0 {
		return 0, fmt.Errorf("invalid row stride %d", stride)
	}
	rows := (maxRequestLen*4 - putImageHeader) / stride
	if rows < 1 {
		return 0, fmt.Errorf("a %d byte row does not fit a %d unit request", stride, maxRequestLen)
	}
	return min(rows, max(height, 1)), nil
}

// NextEvent blocks until an event the selection cares about arrives.
func (o *Overlay) NextEvent() (selection.Event, error) {
	for {
		ev, xerr := o.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return nil, ErrClosed
		}
		if xerr != nil {
			return nil, fmt.Errorf("X error: %w", xerr)
		}
		if sev, ok := translate(ev, o.keys); ok {
			return sev, nil
		}
	}
}

// Clear repaints the whole window with its background pixmap.
func (o *Overlay) Clear() error {
	if err := xproto.ClearAreaChecked(o.conn, false, o.window, 0, 0, 0, 0).Check(); err != nil {
		return fmt.Errorf("failed to clear overlay: %w", err)
	}
	return nil
}

// DrawRectangle strokes region with style.
func (o *Overlay) DrawRectangle(region screenshot.Region, style render.Style) error {
	xproto.ChangeGC(o.conn, o.gc, xproto.GcForeground|xproto.GcLineWidth,
		[]uint32{o.layout.Format.Pixel(style.Color), uint32(style.LineWidth)})
	rect := xproto.Rectangle{
		X:      int16(region.X),
		Y:      int16(region.Y),
		Width:  uint16(region.Width),
		Height: uint16(region.Height),
	}
	err := xproto.PolyRectangleChecked(o.conn, xproto.Drawable(o.window), o.gc, []xproto.Rectangle{rect}).Check()
	if err != nil {
		return fmt.Errorf("failed to draw rectangle: %w", err)
	}
	return nil
}

// ReadPixels returns the ZPixmap data under region in the window.
func (o *Overlay) ReadPixels(region screenshot.Region) ([]byte, error) {
	reply, err := xproto.GetImage(o.conn, xproto.ImageFormatZPixmap, xproto.Drawable(o.window),
		int16(region.X), int16(region.Y), uint16(region.Width), uint16(region.Height),
		0xffffffff).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay pixels: %w", err)
	}
	return reply.Data, nil
}

// Bounds is the full screen.
func (o *Overlay) Bounds() screenshot.Region {
	return screenshot.Region{Width: o.width, Height: o.height}
}

// Layout describes the pixel data ReadPixels returns.
func (o *Overlay) Layout() screenshot.PixelLayout { return o.layout }

// Close releases the GC, window, pixmap and connection in reverse order of
// acquisition. It is safe to call more than once.
func (o *Overlay) Close() error {
	o.closeOnce.Do(func() {
		if o.gc != 0 {
			xproto.FreeGC(o.conn, o.gc)
		}
		if o.window != 0 {
			xproto.DestroyWindow(o.conn, o.window)
		}
		if o.pixmap != 0 {
			xproto.FreePixmap(o.conn, o.pixmap)
		}
		o.conn.Close()
		log.Printf("OVERLAY: closed")
	})
	return nil
}
