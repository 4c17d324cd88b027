package chart

import (
	"strings"
	"testing"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line([]Point{{"Mon", 1200}, {"Tue", 800}, {"Wed", 1500}}, LineOpts{
		Title:    "Weekly revenue",
		ShowDots: true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	out := string(html)
	if !strings.HasPrefix(out, "<svg") {
		t.Fatalf("expected svg output, got %s", out)
	}
	if !strings.Contains(out, `id="weekly-revenue-line-title"`) {
		t.Fatalf("expected accessible title id: %s", out)
	}
	if strings.Count(out, "<circle") != 3 {
		t.Fatalf("expected a dot per point")
	}
	if !strings.Contains(out, ">Wed</text>") {
		t.Fatalf("expected x axis label")
	}
}

func TestLineSinglePoint(t *testing.T) {
	html, err := Line([]Point{{"Today", 0}}, LineOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(html), "Line chart") {
		t.Fatalf("expected default title")
	}
}

func TestLineRejectsEmpty(t *testing.T) {
	if _, err := Line(nil, LineOpts{}); err == nil {
		t.Fatalf("expected error for empty series")
	}
}

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars([]Pair{{"Acme", 500, 120}, {"Globex", 300, -40}}, BarOpts{
		Title:  "Company performance",
		LabelA: "Revenue",
		LabelB: "Profit",
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	out := string(html)
	if strings.Count(out, "<rect") != 6 {
		t.Fatalf("expected four bars and two legend swatches, got %d", strings.Count(out, "<rect"))
	}
	if !strings.Contains(out, `aria-label="Profit Globex"`) {
		t.Fatalf("expected labelled bar")
	}
}

func TestBarsEscapesLabels(t *testing.T) {
	html, err := Bars([]Pair{{"<b>", 1, 1}}, BarOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(html), "<b>") {
		t.Fatalf("label must be escaped")
	}
}

func TestViewportTooSmall(t *testing.T) {
	_, err := Line([]Point{{"a", 1}}, LineOpts{Style: Style{Width: 10, Height: 10, Padding: 24}})
	if err == nil {
		t.Fatalf("expected viewport error")
	}
}

func TestTick(t *testing.T) {
	cases := map[float64]string{0: "0", 1500: "1.5k", 2500000: "2.5M", 0.5: "0.50"}
	for in, want := range cases {
		if got := tick(in); got != want {
			t.Fatalf("tick(%v) = %q, want %q", in, got, want)
		}
	}
}
