// Package export renders a dashboard report as CSV, XLSX or PDF.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sellapp/sellapp/internal/dashboard"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Formats accepted by Write.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Renderer converts an HTML document into a PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Exporter writes reports in every supported format.
type Exporter struct {
	pdf Renderer
}

// New builds an Exporter. A nil renderer disables PDF output.
func New(pdf Renderer) *Exporter {
	return &Exporter{pdf: pdf}
}

// File describes an encoded report.
type File struct {
	Name        string
	ContentType string
}

// Describe validates format and returns the file metadata for report.
func Describe(format string, report dashboard.Report) (File, error) {
	base := "dashboard-" + slug(report.CompanyName) + "-" + report.Range.Key()
	switch strings.ToLower(format) {
	case FormatCSV:
		return File{Name: base + ".csv", ContentType: "text/csv; charset=utf-8"}, nil
	case FormatXLSX:
		return File{Name: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, nil
	case FormatPDF:
		return File{Name: base + ".pdf", ContentType: "application/pdf"}, nil
	default:
		return File{}, fmt.Errorf("%w: format must be csv, xlsx or pdf", httpx.ErrValidation)
	}
}

// Write encodes report as format into w.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format string, report dashboard.Report) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, report)
	case FormatXLSX:
		return WriteXLSX(w, report)
	case FormatPDF:
		if e == nil || e.pdf == nil {
			return fmt.Errorf("export: pdf renderer not configured")
		}
		pdf, err := e.pdf.RenderHTML(ctx, BuildHTML(report))
		if err != nil {
			return fmt.Errorf("export: render pdf: %w", err)
		}
		_, err = w.Write(pdf)
		return err
	default:
		return fmt.Errorf("%w: format must be csv, xlsx or pdf", httpx.ErrValidation)
	}
}

// summaryRows is the metric table shared by every format.
func summaryRows(r dashboard.Report) [][]string {
	m := r.Metrics
	return [][]string{
		{"Company", r.CompanyName},
		{"Period", r.Range.From.Format("2006-01-02") + " to " + r.Range.To.AddDate(0, 0, -1).Format("2006-01-02")},
		{"Revenue", m.Revenue.StringFixed(2)},
		{"Profit", m.Profit.StringFixed(2)},
		{"Sales", strconv.FormatInt(m.SalesCount, 10)},
		{"Average sale", m.AverageSale.StringFixed(2)},
		{"Outstanding", m.Outstanding.StringFixed(2)},
		{"Open repairs", strconv.FormatInt(m.OpenRepairs, 10)},
		{"Swaps in stock", strconv.FormatInt(m.SwapsInStock, 10)},
		{"Products", strconv.FormatInt(m.ProductsCount, 10)},
		{"Low stock", strconv.FormatInt(m.LowStockCount, 10)},
	}
}

func slug(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, strings.TrimSpace(s))
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "company"
	}
	return s
}
