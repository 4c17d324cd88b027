package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sellapp/sellapp/internal/client"
	"github.com/sellapp/sellapp/internal/dashboard"
)

// DashboardOptions defines the flags of sellctl dashboard watch.
type DashboardOptions struct {
	Output
	Query    client.RangeQuery
	Interval time.Duration
	Once     bool
}

// WatchCommand prints the dashboard headline numbers, refreshing on every
// interval until ctx is cancelled. Without a company the platform stats are
// shown.
func (c *OpsCLI) WatchCommand(ctx context.Context, opts DashboardOptions) int {
	opts.defaults()
	var manager *client.ManagerDashboard
	if opts.Query.CompanyID > 0 {
		manager = client.NewManagerDashboard(c.client, opts.Query)
	}
	stats := c.client.StatsWidget(opts.Query)

	render := func(ctx context.Context) {
		if manager != nil {
			view := manager.Refresh(ctx)
			if opts.JSONOutput {
				_ = opts.printJSON("dashboard", view.Overview)
				return
			}
			renderManager(opts.Stdout, view)
			return
		}
		s, status := stats.Load(ctx, c.client.Logger())
		if opts.JSONOutput {
			_ = opts.printJSON("dashboard", dashboard.StatsView{Stats: s, Status: status})
			return
		}
		renderStats(opts.Stdout, s, status)
	}

	if opts.Once {
		render(ctx)
		return 0
	}
	refresher := &client.Refresher{Interval: opts.Interval, Run: render}
	refresher.Start(ctx)
	<-ctx.Done()
	refresher.Stop()
	return 0
}

func renderStats(out io.Writer, s dashboard.Stats, status dashboard.Status) {
	_, _ = fmt.Fprintf(out, "[%s] platform (%s)\n", time.Now().Format("15:04:05"), status)
	_, _ = fmt.Fprintf(out, "  companies  %d (%d active)\n", s.TotalCompanies, s.ActiveCompanies)
	_, _ = fmt.Fprintf(out, "  users      %d\n", s.TotalUsers)
	_, _ = fmt.Fprintf(out, "  sales      %d  revenue %s  profit %s\n", s.TotalSales, s.TotalRevenue.StringFixed(2), s.TotalProfit.StringFixed(2))
	_, _ = fmt.Fprintf(out, "  repairs    %d (%d pending)\n", s.TotalRepairs, s.PendingRepairs)
	_, _ = fmt.Fprintf(out, "  swaps      %d (%d in stock)\n", s.TotalSwaps, s.SwapsInStock)
	_, _ = fmt.Fprintf(out, "  products   %d (%d low stock)\n", s.TotalProducts, s.LowStock)
}

func renderManager(out io.Writer, view client.ManagerView) {
	m := view.Overview.Metrics
	_, _ = fmt.Fprintf(out, "[%s] %s (%s)\n", time.Now().Format("15:04:05"), m.CompanyName, view.Status)
	_, _ = fmt.Fprintf(out, "  revenue %s  profit %s  sales %d  avg %s\n",
		m.Revenue.StringFixed(2), m.Profit.StringFixed(2), m.SalesCount, m.AverageSale.StringFixed(2))
	_, _ = fmt.Fprintf(out, "  outstanding %s  open repairs %d  swaps in stock %d  low stock %d\n",
		m.Outstanding.StringFixed(2), m.OpenRepairs, m.SwapsInStock, m.LowStockCount)
	if view.ChartsEnabled && view.Overview.Charts != nil {
		_, _ = fmt.Fprintf(out, "  trend points %d\n", len(view.Overview.Charts.Trend))
	}
	for _, a := range view.Overview.InventoryAlerts {
		_, _ = fmt.Fprintf(out, "  low stock: %s (%d left)\n", a.Name, a.Quantity)
	}
}
