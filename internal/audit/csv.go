package audit

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// CSVHeader is the first line of an audit export.
var CSVHeader = []string{"Type", "ID", "Company", "Reference", "Customer", "Amount", "Status", "Date"}

// WriteRecordsCSV writes a header and one line per record. Every field is
// quoted so commas and quotes inside values survive.
func WriteRecordsCSV(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	writeQuotedLine(bw, CSVHeader)
	for _, rec := range records {
		writeQuotedLine(bw, []string{
			string(rec.Kind),
			strconv.FormatInt(rec.ID, 10),
			rec.CompanyName,
			rec.Reference,
			rec.CustomerName,
			rec.Amount.StringFixed(2),
			rec.Status,
			rec.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return bw.Flush()
}

func writeQuotedLine(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
