package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sellapp/sellapp/internal/dashboard"
)

// WriteXLSX writes one worksheet per report section.
func WriteXLSX(w io.Writer, report dashboard.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := make([][]any, 0, 12)
	for _, row := range summaryRows(report) {
		summary = append(summary, []any{row[0], row[1]})
	}

	trend := make([][]any, 0, len(report.Trend))
	for _, p := range report.Trend {
		trend = append(trend, []any{p.Date.Format("2006-01-02"), p.Sales, p.Revenue.InexactFloat64(), p.Profit.InexactFloat64()})
	}

	methods := make([][]any, 0, len(report.Methods))
	for _, m := range report.Methods {
		methods = append(methods, []any{m.Method, m.Count, m.Amount.InexactFloat64()})
	}

	sales := make([][]any, 0, len(report.RecentSales))
	for _, s := range report.RecentSales {
		sales = append(sales, []any{s.UniqueID, s.CustomerName, s.FinalAmount.InexactFloat64(), s.PaymentStatus, s.PaymentMethod, s.CreatedAt.Format("2006-01-02 15:04")})
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{"Summary", []any{"Metric", "Value"}, summary},
		{"Trend", []any{"Date", "Sales", "Revenue", "Profit"}, trend},
		{"Payment methods", []any{"Method", "Sales", "Amount"}, methods},
		{"Recent sales", []any{"Sale", "Customer", "Amount", "Status", "Method", "Created"}, sales},
	}
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return err
		}
		if err := writeRows(f, sheet.name, header, sheet.header, sheet.rows); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, headerStyle int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}
