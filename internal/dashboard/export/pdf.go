package export

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/sellapp/sellapp/internal/dashboard"
)

const pdfStyle = `body{font-family:sans-serif;margin:24px;color:#0f172a}h1{font-size:20px}h2{font-size:15px;margin-top:24px}
table{width:100%;border-collapse:collapse;margin-bottom:16px}th,td{border:1px solid #e2e8f0;padding:6px;text-align:right}
th{background:#f1f5f9;text-align:left}td.label{text-align:left}figure{margin:0 0 16px}`

// BuildHTML renders report as a standalone HTML document for PDF conversion.
func BuildHTML(report dashboard.Report) string {
	var b strings.Builder
	esc := template.HTMLEscapeString

	b.WriteString(`<html><head><meta charset="utf-8"><style>` + pdfStyle + `</style></head><body>`)
	b.WriteString("<h1>" + esc(report.CompanyName) + " dashboard</h1>")
	b.WriteString("<p>Generated " + esc(report.GeneratedAt.Format("02 Jan 2006 15:04 MST")) + "</p>")

	b.WriteString("<h2>Summary</h2><table><tbody>")
	for _, row := range summaryRows(report) {
		b.WriteString(`<tr><td class="label">` + esc(row[0]) + "</td><td>" + esc(row[1]) + "</td></tr>")
	}
	b.WriteString("</tbody></table>")

	if svg, err := dashboard.RenderCharts(dashboard.ChartData{Range: report.Range, Trend: report.Trend}); err == nil && svg.Revenue != "" {
		b.WriteString("<h2>Revenue</h2><figure>" + string(svg.Revenue) + "</figure>")
		b.WriteString("<figure>" + string(svg.Profit) + "</figure>")
	}

	if len(report.Methods) > 0 {
		b.WriteString("<h2>Payment methods</h2><table><thead><tr><th>Method</th><th>Sales</th><th>Amount</th></tr></thead><tbody>")
		for _, m := range report.Methods {
			b.WriteString(`<tr><td class="label">` + esc(m.Method) + "</td><td>" + strconv.FormatInt(m.Count, 10) + "</td><td>" + m.Amount.StringFixed(2) + "</td></tr>")
		}
		b.WriteString("</tbody></table>")
	}

	if len(report.RecentSales) > 0 {
		b.WriteString("<h2>Recent sales</h2><table><thead><tr><th>Sale</th><th>Customer</th><th>Amount</th><th>Status</th><th>Created</th></tr></thead><tbody>")
		for _, s := range report.RecentSales {
			b.WriteString(`<tr><td class="label">` + esc(s.UniqueID) + `</td><td class="label">` + esc(s.CustomerName) + "</td><td>" +
				s.FinalAmount.StringFixed(2) + "</td><td>" + esc(s.PaymentStatus) + "</td><td>" + esc(s.CreatedAt.Format("2006-01-02 15:04")) + "</td></tr>")
		}
		b.WriteString("</tbody></table>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
