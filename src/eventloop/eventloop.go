package eventloop

import (
	"context"
	"fmt"
	"io"
	"log"

	"sleek/src/screenshot"
	"sleek/src/selection"
)

// EventSource delivers input events one at a time. NextEvent blocks.
type EventSource interface {
	NextEvent() (selection.Event, error)
}

// Drawer repaints the overlay for a region.
type Drawer interface {
	Draw(region screenshot.Region) error
}

// Loop is the single-threaded coordinator between input, the selection
// machine and the renderer.
type Loop struct {
	source  EventSource
	machine *selection.Machine
	drawer  Drawer
}

// New creates a loop. All three collaborators are used only from Run's
// goroutine.
func New(source EventSource, machine *selection.Machine, drawer Drawer) *Loop {
	return &Loop{source: source, machine: machine, drawer: drawer}
}

// Run processes events until the selection is confirmed or cancelled, or
// ctx ends. When the source is an io.Closer it is closed on cancellation so
// a blocked NextEvent returns.
func (l *Loop) Run(ctx context.Context) (selection.Outcome, error) {
	if c, ok := l.source.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return selection.Outcome{}, err
		}

		ev, err := l.source.NextEvent()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return selection.Outcome{}, ctxErr
			}
			return selection.Outcome{}, fmt.Errorf("failed to read event: %w", err)
		}

		out := l.machine.Handle(ev)
		switch out.Action {
		case selection.Redraw:
			if err := l.drawer.Draw(out.Region); err != nil {
				return selection.Outcome{}, err
			}
			frames++
		case selection.Confirm, selection.Cancel:
			log.Printf("Event loop finished with %s after %d frames", out.Action, frames)
			return out, nil
		}
	}
}
