package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders pairs as a grouped bar chart with a legend.
func Bars(pairs []Pair, opts BarOpts) (template.HTML, error) {
	if len(pairs) == 0 {
		return "", errEmpty
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pairs {
		lo = min(lo, p.A, p.B)
		hi = max(hi, p.A, p.B)
	}
	f, err := newFrame(opts.Style, lo, hi)
	if err != nil {
		return "", err
	}
	colorA := or(opts.ColorA, "#0ea5e9")
	colorB := or(opts.ColorB, "#f97316")
	labelA := template.HTMLEscapeString(or(opts.LabelA, "Series A"))
	labelB := template.HTMLEscapeString(or(opts.LabelB, "Series B"))

	group := f.w / float64(len(pairs))
	width := group / 3

	var b strings.Builder
	f.open(&b, "bar", opts.Title, or(opts.Description, "Comparison"), "Bar chart")
	f.gridlines(&b)
	for i, p := range pairs {
		x := f.pad + float64(i)*group
		name := template.HTMLEscapeString(p.Label)
		y, h := f.bar(p.A)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s %s"></rect>`, x+width*0.3, y, width, h, colorA, labelA, name)
		y, h = f.bar(p.B)
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s %s"></rect>`, x+width*1.4, y, width, h, colorB, labelB, name)
		f.label(&b, x+group/2, p.Label)
	}

	legendY := math.Max(f.pad-12, 12)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, f.pad, legendY-8, colorA)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, f.pad+14, legendY, f.axis, labelA)
	fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, f.pad+90, legendY-8, colorB)
	fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, f.pad+104, legendY, f.axis, labelB)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// bar returns the top and height of a bar rising from (or hanging below) zero.
func (f frame) bar(v float64) (float64, float64) {
	zero := f.y(0)
	top := f.y(v)
	if v < 0 {
		return zero, math.Max(math.Min(top, f.bottom())-zero, 0)
	}
	top = math.Max(top, f.pad)
	return top, math.Max(zero-top, 0)
}
