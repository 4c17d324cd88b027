package client

import (
	"context"
	"errors"
	"sync"

	"github.com/sellapp/sellapp/internal/client/listview"
	"github.com/sellapp/sellapp/internal/pos"
)

// SalesHistory is the POS sales history view.
type SalesHistory struct {
	client *Client
	list   *listview.Controller[pos.Sale, SalesFilter]

	mu      sync.Mutex
	message string
	failed  bool
}

// NewSalesHistory builds the view with limit rows per page.
func NewSalesHistory(c *Client, filter SalesFilter, limit int) *SalesHistory {
	fetch := func(ctx context.Context, f SalesFilter, page, limit int) (listview.Page[pos.Sale], error) {
		return c.Sales(ctx, f, page, limit)
	}
	return &SalesHistory{
		client: c,
		list:   listview.New(fetch, func(s pos.Sale) int64 { return s.ID }, limit, filter),
	}
}

// List exposes the list controller.
func (h *SalesHistory) List() *listview.Controller[pos.Sale, SalesFilter] {
	return h.list
}

// Delete removes one sale and reloads the page on success. On failure the
// rows stay and the error becomes the view message.
func (h *SalesHistory) Delete(ctx context.Context, id int64) error {
	if err := h.client.DeleteSale(ctx, id); err != nil {
		h.setMessage("Failed to delete sale: "+errorText(err), true)
		return err
	}
	h.setMessage("Sale deleted", false)
	return h.list.Load(ctx)
}

// DeleteSelected bulk deletes the selected sales.
func (h *SalesHistory) DeleteSelected(ctx context.Context) (int64, error) {
	ids := h.list.Selected()
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := h.client.BulkDeleteSales(ctx, ids)
	if err != nil {
		h.setMessage("Failed to delete sales: "+errorText(err), true)
		return 0, err
	}
	h.setMessage("Sales deleted", false)
	return n, h.list.Load(ctx)
}

// Message returns the last action outcome and whether it was a failure.
func (h *SalesHistory) Message() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message, h.failed
}

func (h *SalesHistory) setMessage(msg string, failed bool) {
	h.mu.Lock()
	h.message, h.failed = msg, failed
	h.mu.Unlock()
}

// errorText prefers the server supplied message.
func errorText(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
