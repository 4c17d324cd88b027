package audit

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWriteRecordsCSVQuotesEveryField(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	records := []Record{
		{Kind: KindSale, ID: 1, CompanyName: "Acme", Reference: "S-1", CustomerName: "Doe, Jane", Amount: decimal.NewFromInt(120), Status: "PAID", CreatedAt: at},
		{Kind: KindRepair, ID: 2, CompanyName: "Acme", Reference: `iPhone 12 "Pro"`, CustomerName: "Kofi", Amount: decimal.RequireFromString("45.5"), Status: "pending", CreatedAt: at},
		{Kind: KindSwap, ID: 3, CompanyName: "Beta", Reference: "SW-9", Status: "completed", CreatedAt: at},
	}

	var buf bytes.Buffer
	if err := WriteRecordsCSV(&buf, records); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != len(records)+1 {
		t.Fatalf("expected %d lines, got %d", len(records)+1, len(lines))
	}
	if lines[1] != `"sale","1","Acme","S-1","Doe, Jane","120.00","PAID","2026-03-02 09:30"` {
		t.Fatalf("unexpected row %s", lines[1])
	}

	parsed, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed[1][4] != "Doe, Jane" {
		t.Fatalf("comma split the customer field: %v", parsed[1])
	}
	if parsed[2][3] != `iPhone 12 "Pro"` {
		t.Fatalf("quotes not preserved: %v", parsed[2])
	}
	if got := len(parsed[0]); got != len(CSVHeader) {
		t.Fatalf("header has %d fields", got)
	}
}

func TestWriteRecordsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordsCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}
