package dashboard

import (
	"html/template"

	"github.com/sellapp/sellapp/internal/dashboard/chart"
)

// maxBarGroups bounds the daily bar chart to the most recent days.
const maxBarGroups = 14

// ChartSVG holds the server rendered charts of a dashboard page.
type ChartSVG struct {
	Revenue template.HTML
	Profit  template.HTML
}

// RenderCharts draws the manager charts from data. Empty data yields empty
// markup.
func RenderCharts(data ChartData) (ChartSVG, error) {
	if len(data.Trend) == 0 {
		return ChartSVG{}, nil
	}
	points := make([]chart.Point, 0, len(data.Trend))
	for _, p := range data.Trend {
		points = append(points, chart.Point{Label: p.Date.Format("Jan 2"), Value: p.Revenue.InexactFloat64()})
	}
	revenue, err := chart.Line(points, chart.LineOpts{
		Title:       "Revenue",
		Description: "Daily revenue for " + data.Range.Key(),
		ShowDots:    len(points) <= 31,
	})
	if err != nil {
		return ChartSVG{}, err
	}

	recent := data.Trend
	if len(recent) > maxBarGroups {
		recent = recent[len(recent)-maxBarGroups:]
	}
	pairs := make([]chart.Pair, 0, len(recent))
	for _, p := range recent {
		pairs = append(pairs, chart.Pair{Label: p.Date.Format("Jan 2"), A: p.Revenue.InexactFloat64(), B: p.Profit.InexactFloat64()})
	}
	profit, err := chart.Bars(pairs, chart.BarOpts{
		Title:  "Revenue and profit",
		LabelA: "Revenue",
		LabelB: "Profit",
	})
	if err != nil {
		return ChartSVG{}, err
	}
	return ChartSVG{Revenue: revenue, Profit: profit}, nil
}

// RenderPerformance draws revenue against profit per company.
func RenderPerformance(rows []CompanyPerformance) (template.HTML, error) {
	if len(rows) == 0 {
		return "", nil
	}
	pairs := make([]chart.Pair, 0, len(rows))
	for _, r := range rows {
		pairs = append(pairs, chart.Pair{Label: r.CompanyName, A: r.Revenue.InexactFloat64(), B: r.Profit.InexactFloat64()})
	}
	return chart.Bars(pairs, chart.BarOpts{
		Title:  "Company performance",
		LabelA: "Revenue",
		LabelB: "Profit",
	})
}
