package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/sellapp/sellapp/internal/client"
)

// SalesListOptions defines the flags of sellctl sales list.
type SalesListOptions struct {
	Output
	Filter client.SalesFilter
	Page   int
	Limit  int
}

// SalesListCommand prints one page of the sales history.
func (c *OpsCLI) SalesListCommand(ctx context.Context, opts SalesListOptions) int {
	opts.defaults()
	history := client.NewSalesHistory(c.client, opts.Filter, opts.Limit)
	list := history.List()
	if err := list.GoTo(ctx, max(opts.Page, 1)); err != nil {
		return opts.fail("sales list", err)
	}
	snap := list.Snapshot()
	if snap.Err != nil {
		return opts.fail("sales list", snap.Err)
	}
	if opts.JSONOutput {
		return opts.printJSON("sales list", snap.Page)
	}

	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tREF\tCUSTOMER\tTOTAL\tPAID\tSTATUS\tDATE")
	for _, s := range snap.Page.Items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.UniqueID, s.CustomerName,
			s.FinalAmount.StringFixed(2), s.AmountPaid.StringFixed(2), s.PaymentStatus, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(opts.Stdout, "page %d of %d (%d sales)\n", snap.Page.Page, max(snap.Page.TotalPages, 1), snap.Page.Total)
	return 0
}

// SalesDeleteOptions defines the flags of sellctl sales delete.
type SalesDeleteOptions struct {
	Output
	IDs []int64
}

// SalesDeleteCommand deletes one sale, or several in a single bulk call.
func (c *OpsCLI) SalesDeleteCommand(ctx context.Context, opts SalesDeleteOptions) int {
	opts.defaults()
	switch len(opts.IDs) {
	case 0:
		return opts.fail("sales delete", errors.New("at least one sale id is required"))
	case 1:
		history := client.NewSalesHistory(c.client, client.SalesFilter{}, 0)
		err := history.Delete(ctx, opts.IDs[0])
		msg, failed := history.Message()
		if failed {
			_, _ = fmt.Fprintln(opts.Stderr, msg)
			return 1
		}
		_, _ = fmt.Fprintln(opts.Stdout, msg)
		if err != nil {
			// deleted, but the follow-up reload failed
			return opts.fail("sales delete", err)
		}
		return 0
	default:
		n, err := c.client.BulkDeleteSales(ctx, opts.IDs)
		if err != nil {
			return opts.fail("sales delete", err)
		}
		_, _ = fmt.Fprintf(opts.Stdout, "deleted %d sale(s)\n", n)
		return 0
	}
}
