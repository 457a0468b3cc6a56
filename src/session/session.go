package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"sleek/src/clipboard"
	"sleek/src/screenshot"
	"sleek/src/selection"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

// SelectFunc runs an interactive selection to completion.
type SelectFunc func(ctx context.Context) (selection.Outcome, error)

// ResultTarget receives the saved path, or the reason nothing was saved.
type ResultTarget interface {
	OnSuccess(path string) error
	OnFailure(err error) error
}

type Options struct {
	Select  SelectFunc
	Pixels  screenshot.PixelSource
	Layout  screenshot.PixelLayout
	Pattern string
	Now     func() time.Time
	Target  ResultTarget
}

type Result struct {
	Path   string
	Region screenshot.Region
}

// Execute runs select, then capture, then delivery. A cancel returns
// ErrSelectionCancelled and writes nothing.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Select == nil {
		return Result{}, errors.New("Select is required")
	}
	if opts.Pixels == nil {
		return Result{}, errors.New("Pixels is required")
	}
	target := opts.Target
	if target == nil {
		target = LogTarget{}
	}

	out, err := opts.Select(ctx)
	if err != nil {
		_ = target.OnFailure(err)
		return Result{}, err
	}
	if out.Action != selection.Confirm {
		_ = target.OnFailure(ErrSelectionCancelled)
		return Result{}, ErrSelectionCancelled
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	path, err := screenshot.CaptureAndSave(opts.Pixels, out.Region, screenshot.CaptureOptions{
		Layout:  opts.Layout,
		Pattern: opts.Pattern,
		Now:     now(),
	})
	if err != nil {
		_ = target.OnFailure(err)
		return Result{}, err
	}

	if err := target.OnSuccess(path); err != nil {
		_ = target.OnFailure(err)
		return Result{}, err
	}
	return Result{Path: path, Region: out.Region}, nil
}

// ClipboardTarget copies the saved path to the clipboard. The copy only
// survives while this process owns the selection, so callers Wait before
// exiting.
type ClipboardTarget struct {
	// Hold bounds Wait. Zero means do not wait.
	Hold time.Duration
	// Write defaults to clipboard.Write.
	Write func(text string) (<-chan struct{}, error)

	changed <-chan struct{}
}

func (t *ClipboardTarget) OnSuccess(path string) error {
	write := t.Write
	if write == nil {
		write = clipboard.Write
	}
	changed, err := write(path)
	if err != nil {
		return fmt.Errorf("clipboard error: %w", err)
	}
	t.changed = changed
	log.Printf("Copied %s to clipboard", path)
	return nil
}

func (t *ClipboardTarget) OnFailure(err error) error {
	return nil
}

// Wait keeps the clipboard served until another client takes it over. Hold
// and ctx bound the wait. It returns at once when nothing was copied.
func (t *ClipboardTarget) Wait(ctx context.Context) {
	if t.changed == nil || t.Hold <= 0 {
		return
	}
	timer := time.NewTimer(t.Hold)
	defer timer.Stop()

	select {
	case <-t.changed:
		log.Printf("Clipboard taken over by another client")
	case <-timer.C:
		log.Printf("Clipboard hold of %s elapsed", t.Hold)
	case <-ctx.Done():
		log.Printf("Clipboard hold interrupted")
	}
}

// LogTarget only records the outcome in the debug log.
type LogTarget struct{}

func (LogTarget) OnSuccess(path string) error {
	log.Printf("Session finished: %s", path)
	return nil
}

func (LogTarget) OnFailure(err error) error {
	if errors.Is(err, ErrSelectionCancelled) {
		log.Printf("Session cancelled")
		return nil
	}
	log.Printf("Session failed: %v", err)
	return nil
}
