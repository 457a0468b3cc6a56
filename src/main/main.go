package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sleek/src/config"
	"sleek/src/eventloop"
	"sleek/src/logutil"
	"sleek/src/overlay"
	"sleek/src/render"
	"sleek/src/runtimeinit"
	"sleek/src/screenshot"
	"sleek/src/selection"
	"sleek/src/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(os.Args, defaultApp())
}

// app holds the side-effecting steps so the command can be driven in tests.
type app struct {
	bootstrap func() (*runtimeinit.Runtime, error)
	capture   func(ctx context.Context, pattern string, target session.ResultTarget) error
	// target defaults to resultTarget.
	target    func(cfg *config.Config) session.ResultTarget
}

// holder is a result target that must keep the process alive after the
// overlay is gone, such as a clipboard copy on X11.
type holder interface {
	Wait(ctx context.Context)
}

func defaultApp() app {
	return app{
		bootstrap: func() (*runtimeinit.Runtime, error) {
			return runtimeinit.Bootstrap(runtimeinit.Options{SetupLogging: logutil.Setup})
		},
		capture: captureSelection,
		target:  resultTarget,
	}
}

func runWithArgs(args []string, a app) error {
	if len(args) == 0 {
		args = []string{"sleek"}
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args[1:])
	return cmd.ExecuteContext(context.Background())
}

func newRootCmd(a app) *cobra.Command {
	return &cobra.Command{
		Use:   "sleek [output]",
		Short: "Select a screen region and save it as PNG",
		Long: "Freezes the screen, lets you drag a rectangle with the left mouse button and\n" +
			"saves it on Enter. Escape quits without saving. Enter without a drag saves the\n" +
			"whole screen. The output name is a strftime pattern; .png is appended.\n" +
			"Default: " + screenshot.DefaultOutputPattern,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.bootstrap()
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			newTarget := a.target
			if newTarget == nil {
				newTarget = resultTarget
			}
			target := newTarget(rt.Config)
			err = a.capture(ctx, outputPattern(args, rt.Config), target)
			if err == nil {
				if h, ok := target.(holder); ok {
					h.Wait(ctx)
				}
			}
			switch {
			case errors.Is(err, session.ErrSelectionCancelled):
				return nil
			case errors.Is(err, context.Canceled):
				log.Printf("Main: interrupted, nothing saved")
				return nil
			}
			return err
		},
	}
}

// outputPattern picks the positional argument, then SLEEK_OUTPUT, then the
// built-in default.
func outputPattern(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg != nil && cfg.OutputPattern != "" {
		return cfg.OutputPattern
	}
	return screenshot.DefaultOutputPattern
}

// captureSelection runs one overlay session. The overlay is closed before it
// returns.
func captureSelection(ctx context.Context, pattern string, target session.ResultTarget) error {
	ov, err := overlay.Open(overlay.Options{Style: render.DefaultStyle})
	if err != nil {
		return err
	}
	defer ov.Close()

	bounds := ov.Bounds()
	loop := eventloop.New(ov,
		selection.NewMachine(bounds.Width, bounds.Height),
		render.New(ov, render.DefaultStyle))

	res, err := session.Execute(ctx, session.Options{
		Select:  loop.Run,
		Pixels:  ov,
		Layout:  ov.Layout(),
		Pattern: pattern,
		Target:  target,
	})
	if err != nil {
		return err
	}
	log.Printf("Main: saved %+v to %s", res.Region, res.Path)
	return nil
}

func resultTarget(cfg *config.Config) session.ResultTarget {
	if cfg != nil && cfg.CopyPathToClipboard {
		return &session.ClipboardTarget{Hold: cfg.ClipboardHold}
	}
	return session.LogTarget{}
}
