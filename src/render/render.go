// Package render draws the selection outline on top of the frozen screen.
package render

import (
	"fmt"
	"image/color"

	"sleek/src/screenshot"
)

// Style is the outline appearance.
type Style struct {
	LineWidth int
	Color     color.RGBA
}

// DefaultStyle is a 5px purple stroke.
var DefaultStyle = Style{LineWidth: 5, Color: color.RGBA{R: 128, G: 0, B: 128, A: 0xff}}

// Canvas is the drawing surface. Clear must restore the background so that
// no earlier outline survives.
type Canvas interface {
	Clear() error
	DrawRectangle(region screenshot.Region, style Style) error
}

// Renderer repaints the overlay for a region.
type Renderer struct {
	canvas Canvas
	style  Style
}

// New returns a renderer for canvas. A zero style falls back to DefaultStyle.
func New(canvas Canvas, style Style) *Renderer {
	if style.LineWidth <= 0 {
		style.LineWidth = DefaultStyle.LineWidth
	}
	if style.Color == (color.RGBA{}) {
		style.Color = DefaultStyle.Color
	}
	return &Renderer{canvas: canvas, style: style}
}

// Style returns the effective outline style.
func (r *Renderer) Style() Style { return r.style }

// Draw clears the canvas and strokes region. Every frame fully replaces the
// previous one.
func (r *Renderer) Draw(region screenshot.Region) error {
	if err := r.canvas.Clear(); err != nil {
		return fmt.Errorf("clear overlay: %w", err)
	}
	if err := r.canvas.DrawRectangle(region, r.style); err != nil {
		return fmt.Errorf("draw outline: %w", err)
	}
	return nil
}
