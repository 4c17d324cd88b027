// Package chart renders the dashboard trend and comparison charts as inline SVG.
package chart

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Viewport defaults.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 5
)

var (
	errEmpty    = errors.New("chart: no data points")
	errViewport = errors.New("chart: viewport too small")
)

// Point is one labelled value of a line chart.
type Point struct {
	Label string
	Value float64
}

// Pair is one labelled group of a two-series bar chart.
type Pair struct {
	Label string
	A     float64
	B     float64
}

// LineOpts customises Line.
type LineOpts struct {
	Title       string
	Description string
	Stroke      string
	Fill        string
	ShowDots    bool
	Style
}

// BarOpts customises Bars.
type BarOpts struct {
	Title       string
	Description string
	LabelA      string
	LabelB      string
	ColorA      string
	ColorB      string
	Style
}

// Style is shared by every chart kind.
type Style struct {
	Width     int
	Height    int
	Padding   float64
	Ticks     int
	AxisColor string
	GridColor string
}

// frame maps values onto the drawable area of the viewport.
type frame struct {
	width, height int
	pad           float64
	w, h          float64
	min, max      float64
	ticks         int
	axis, grid    string
}

func newFrame(style Style, lo, hi float64) (frame, error) {
	f := frame{
		width:  style.Width,
		height: style.Height,
		pad:    style.Padding,
		ticks:  style.Ticks,
		axis:   or(style.AxisColor, "#475569"),
		grid:   or(style.GridColor, "#cbd5e1"),
	}
	if f.width <= 0 {
		f.width = DefaultWidth
	}
	if f.height <= 0 {
		f.height = DefaultHeight
	}
	if f.pad <= 0 {
		f.pad = DefaultPadding
	}
	if f.ticks <= 0 {
		f.ticks = DefaultTicks
	}
	f.w = float64(f.width) - 2*f.pad
	f.h = float64(f.height) - 2*f.pad
	if f.w <= 0 || f.h <= 0 {
		return frame{}, errViewport
	}
	// the zero line is always visible
	f.min = math.Min(lo, 0)
	f.max = math.Max(hi, 0)
	if math.Abs(f.max-f.min) < 1e-9 {
		f.max = f.min + 1
	}
	return f, nil
}

func (f frame) y(v float64) float64 {
	return f.pad + f.h - (v-f.min)*f.h/(f.max-f.min)
}

func (f frame) bottom() float64 { return f.pad + f.h }

func (f frame) open(b *strings.Builder, kind, title, desc, defaultTitle string) {
	titleID := elementID(title, kind+"-title")
	descID := elementID(title, kind+"-desc")
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, f.width, f.height, titleID, descID)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(or(title, defaultTitle)))
	fmt.Fprintf(b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(desc))
}

func (f frame) gridlines(b *strings.Builder) {
	for i := 0; i <= f.ticks; i++ {
		ratio := float64(i) / float64(f.ticks)
		y := f.bottom() - ratio*f.h
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, f.pad, y, f.pad+f.w, y, f.grid)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, f.pad-6, y+4, f.axis, tick(f.min+(f.max-f.min)*ratio))
	}
	fmt.Fprintf(b, `<g stroke="%s" aria-label="Axis">`, f.axis)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.pad, f.pad, f.bottom())
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.y(0), f.pad+f.w, f.y(0))
	b.WriteString("</g>")
}

func (f frame) label(b *strings.Builder, x float64, text string) {
	fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x, f.bottom()+14, f.axis, template.HTMLEscapeString(text))
}

func or(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func elementID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

func tick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case math.Abs(v-math.Round(v)) < 1e-9:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
