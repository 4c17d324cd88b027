package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sellapp/sellapp/internal/dashboard"
)

// WriteCSV emits the summary, the daily trend, the payment method split and
// the recent sales as blank-line separated sections.
func WriteCSV(w io.Writer, report dashboard.Report) error {
	writer := csv.NewWriter(w)
	section := func(header []string, rows [][]string) {
		_ = writer.Write(header)
		_ = writer.WriteAll(rows)
		_ = writer.Write(nil)
	}

	section([]string{"Metric", "Value"}, summaryRows(report))

	trend := make([][]string, 0, len(report.Trend))
	for _, p := range report.Trend {
		trend = append(trend, []string{p.Date.Format("2006-01-02"), strconv.FormatInt(p.Sales, 10), p.Revenue.StringFixed(2), p.Profit.StringFixed(2)})
	}
	section([]string{"Date", "Sales", "Revenue", "Profit"}, trend)

	methods := make([][]string, 0, len(report.Methods))
	for _, m := range report.Methods {
		methods = append(methods, []string{m.Method, strconv.FormatInt(m.Count, 10), m.Amount.StringFixed(2)})
	}
	section([]string{"Payment method", "Sales", "Amount"}, methods)

	if err := writer.Write([]string{"Sale", "Customer", "Amount", "Status", "Method", "Created"}); err != nil {
		return err
	}
	for _, s := range report.RecentSales {
		if err := writer.Write([]string{s.UniqueID, s.CustomerName, s.FinalAmount.StringFixed(2), s.PaymentStatus, s.PaymentMethod, s.CreatedAt.Format("2006-01-02 15:04")}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
