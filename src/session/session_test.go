package session

import (
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleek/src/eventloop"
	"sleek/src/render"
	"sleek/src/screenshot"
	"sleek/src/selection"
)

var testLayout = screenshot.PixelLayout{
	Format:       screenshot.PixelFormat{RedMask: 0xff0000, GreenMask: 0x00ff00, BlueMask: 0x0000ff},
	BitsPerPixel: 32,
	ScanlinePad:  32,
	ByteOrder:    binary.LittleEndian,
}

// fakeScreen is a 200x100 surface whose pixel (x, y) is RGB(x, y, 7).
type fakeScreen struct {
	clears int
	rects  []screenshot.Region
}

func (f *fakeScreen) Bounds() screenshot.Region {
	return screenshot.Region{Width: 200, Height: 100}
}

func (f *fakeScreen) Clear() error {
	f.clears++
	return nil
}

func (f *fakeScreen) DrawRectangle(r screenshot.Region, _ render.Style) error {
	f.rects = append(f.rects, r)
	return nil
}

func (f *fakeScreen) ReadPixels(r screenshot.Region) ([]byte, error) {
	data := make([]byte, 0, r.Width*r.Height*4)
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			data = binary.LittleEndian.AppendUint32(data, uint32(x)<<16|uint32(y)<<8|7)
		}
	}
	return data, nil
}

type scripted []selection.Event

func (s *scripted) NextEvent() (selection.Event, error) {
	if len(*s) == 0 {
		return nil, errors.New("out of events")
	}
	ev := (*s)[0]
	*s = (*s)[1:]
	return ev, nil
}

type recordingTarget struct {
	paths    []string
	failures []error
}

func (r *recordingTarget) OnSuccess(path string) error {
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingTarget) OnFailure(err error) error {
	r.failures = append(r.failures, err)
	return nil
}

func pt(x, y int) screenshot.Point { return screenshot.Point{X: x, Y: y} }

func runSession(t *testing.T, events ...selection.Event) (Result, *recordingTarget, string, error) {
	t.Helper()
	dir := t.TempDir()
	screen := &fakeScreen{}
	src := scripted(events)
	loop := eventloop.New(&src, selection.NewMachine(200, 100), render.New(screen, render.DefaultStyle))
	target := &recordingTarget{}

	res, err := Execute(context.Background(), Options{
		Select:  loop.Run,
		Pixels:  screen,
		Layout:  testLayout,
		Pattern: filepath.Join(dir, "shot"),
		Now:     func() time.Time { return time.Date(2026, 10, 19, 8, 30, 5, 0, time.Local) },
		Target:  target,
	})
	return res, target, dir, err
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestDragConfirmWritesSelection(t *testing.T) {
	res, target, dir, err := runSession(t,
		selection.Press{Pos: pt(10, 10), Button: selection.PrimaryButton},
		selection.Release{Pos: pt(110, 60), Button: selection.PrimaryButton},
		selection.Key{Action: selection.KeyConfirm},
	)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "shot.png"), res.Path)
	assert.Equal(t, []string{res.Path}, target.paths)
	assert.Empty(t, target.failures)

	img := readPNG(t, res.Path)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())
	r, g, b, _ := img.At(5, 3).RGBA()
	assert.Equal(t, []uint32{15, 13, 7}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestCancelWritesNothing(t *testing.T) {
	_, target, dir, err := runSession(t,
		selection.Press{Pos: pt(10, 10), Button: selection.PrimaryButton},
		selection.Key{Action: selection.KeyCancel},
	)
	require.ErrorIs(t, err, ErrSelectionCancelled)
	assert.Empty(t, target.paths)
	require.Len(t, target.failures, 1)
	assert.ErrorIs(t, target.failures[0], ErrSelectionCancelled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClickConfirmWritesOnePixel(t *testing.T) {
	res, _, _, err := runSession(t,
		selection.Press{Pos: pt(40, 20), Button: selection.PrimaryButton},
		selection.Release{Pos: pt(40, 20), Button: selection.PrimaryButton},
		selection.Key{Action: selection.KeyConfirm},
	)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), readPNG(t, res.Path).Bounds())
}

func TestConfirmWithoutDragWritesFullScreen(t *testing.T) {
	res, _, _, err := runSession(t, selection.Key{Action: selection.KeyConfirm})
	require.NoError(t, err)
	assert.Equal(t, screenshot.Region{Width: 200, Height: 100}, res.Region)
	assert.Equal(t, image.Rect(0, 0, 200, 100), readPNG(t, res.Path).Bounds())
}

func TestSelectErrorReachesTarget(t *testing.T) {
	boom := errors.New("display gone")
	target := &recordingTarget{}
	_, err := Execute(context.Background(), Options{
		Select: func(context.Context) (selection.Outcome, error) { return selection.Outcome{}, boom },
		Pixels: &fakeScreen{},
		Target: target,
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []error{boom}, target.failures)
}

func TestExecuteRequiresSelectAndPixels(t *testing.T) {
	_, err := Execute(context.Background(), Options{Pixels: &fakeScreen{}})
	assert.Error(t, err)
	_, err = Execute(context.Background(), Options{
		Select: func(context.Context) (selection.Outcome, error) { return selection.Outcome{}, nil },
	})
	assert.Error(t, err)
}

func TestLogTarget(t *testing.T) {
	assert.NoError(t, LogTarget{}.OnSuccess("x.png"))
	assert.NoError(t, LogTarget{}.OnFailure(ErrSelectionCancelled))
}

func TestClipboardTargetPassesOwnershipThrough(t *testing.T) {
	changed := make(chan struct{})
	var copied []string
	target := &ClipboardTarget{
		Hold: time.Minute,
		Write: func(text string) (<-chan struct{}, error) {
			copied = append(copied, text)
			return changed, nil
		},
	}

	require.NoError(t, target.OnSuccess("/tmp/shot.png"))
	assert.Equal(t, []string{"/tmp/shot.png"}, copied)

	done := make(chan struct{})
	go func() {
		target.Wait(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while the clipboard is still owned")
	case <-time.After(20 * time.Millisecond):
	}

	close(changed)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after ownership changed")
	}
}

func TestClipboardTargetHoldElapses(t *testing.T) {
	target := &ClipboardTarget{
		Hold:  10 * time.Millisecond,
		Write: func(string) (<-chan struct{}, error) { return make(chan struct{}), nil },
	}
	require.NoError(t, target.OnSuccess("shot.png"))

	start := time.Now()
	target.Wait(context.Background())
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestClipboardTargetWaitReturnsEarly(t *testing.T) {
	// Nothing copied.
	(&ClipboardTarget{Hold: time.Hour}).Wait(context.Background())

	target := &ClipboardTarget{
		Hold:  time.Hour,
		Write: func(string) (<-chan struct{}, error) { return make(chan struct{}), nil },
	}
	require.NoError(t, target.OnSuccess("shot.png"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	target.Wait(ctx)
}

func TestClipboardTargetWriteError(t *testing.T) {
	boom := errors.New("no owner")
	target := &ClipboardTarget{Write: func(string) (<-chan struct{}, error) { return nil, boom }}
	assert.ErrorIs(t, target.OnSuccess("shot.png"), boom)
}
