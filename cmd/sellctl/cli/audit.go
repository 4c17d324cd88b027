package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sellapp/sellapp/internal/client"
)

// AuditExportOptions defines the flags of sellctl audit export.
type AuditExportOptions struct {
	Output
	Filter client.AuditFilter
	Page   int
	Limit  int
	// Out receives the CSV; Stdout when nil.
	Out io.Writer
}

// AuditExportCommand loads one page of audit records and writes it as CSV.
func (c *OpsCLI) AuditExportCommand(ctx context.Context, opts AuditExportOptions) int {
	opts.defaults()
	if opts.Out == nil {
		opts.Out = opts.Stdout
	}
	records := client.NewAuditRecords(c.client, opts.Filter, opts.Limit)
	if err := records.List().GoTo(ctx, max(opts.Page, 1)); err != nil {
		return opts.fail("audit export", err)
	}
	snap := records.List().Snapshot()
	if snap.Err != nil {
		return opts.fail("audit export", snap.Err)
	}
	if err := records.ExportCSV(opts.Out); err != nil {
		return opts.fail("audit export", err)
	}
	_, _ = fmt.Fprintf(opts.Stderr, "exported %d of %d record(s)\n", len(snap.Page.Items), snap.Page.Total)
	return 0
}
