package client

import (
	"context"
	"io"

	"github.com/sellapp/sellapp/internal/audit"
	"github.com/sellapp/sellapp/internal/client/listview"
)

// AuditRecords is the admin audit records view.
type AuditRecords struct {
	list *listview.Controller[audit.Record, AuditFilter]
}

// NewAuditRecords builds the view with limit rows per page.
func NewAuditRecords(c *Client, filter AuditFilter, limit int) *AuditRecords {
	fetch := func(ctx context.Context, f AuditFilter, page, limit int) (listview.Page[audit.Record], error) {
		return c.CompanyAudit(ctx, f, page, limit)
	}
	return &AuditRecords{list: listview.New(fetch, func(r audit.Record) int64 { return r.ID }, limit, filter)}
}

// List exposes the list controller.
func (a *AuditRecords) List() *listview.Controller[audit.Record, AuditFilter] {
	return a.list
}

// ExportCSV writes the records already loaded, without another request.
func (a *AuditRecords) ExportCSV(w io.Writer) error {
	return audit.WriteRecordsCSV(w, a.list.Snapshot().Page.Items)
}
