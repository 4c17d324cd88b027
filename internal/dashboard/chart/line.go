package chart

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders points as a line chart with a shaded area.
func Line(points []Point, opts LineOpts) (template.HTML, error) {
	if len(points) == 0 {
		return "", errEmpty
	}
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		lo, hi = min(lo, p.Value), max(hi, p.Value)
	}
	f, err := newFrame(opts.Style, lo, hi)
	if err != nil {
		return "", err
	}
	stroke := or(opts.Stroke, "#2563eb")
	fill := or(opts.Fill, "rgba(37,99,235,0.12)")

	xs := make([]float64, len(points))
	for i := range points {
		xs[i] = f.pad + f.w/2
		if len(points) > 1 {
			xs[i] = f.pad + float64(i)*f.w/float64(len(points)-1)
		}
	}

	var path strings.Builder
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		} else {
			path.WriteByte(' ')
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, xs[i], f.y(p.Value))
	}

	var b strings.Builder
	f.open(&b, "line", opts.Title, or(opts.Description, "Trend"), "Line chart")
	f.gridlines(&b)
	fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`, path.String(), xs[len(xs)-1], f.bottom(), xs[0], f.bottom(), fill)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path.String(), stroke)
	for i, p := range points {
		if opts.ShowDots {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, xs[i], f.y(p.Value), stroke)
		}
		f.label(&b, xs[i], p.Label)
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
