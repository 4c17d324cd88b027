package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sellapp/sellapp/internal/dashboard"
)

// ManagerDashboard holds the client side state of a company dashboard.
type ManagerDashboard struct {
	client *Client
	query  RangeQuery

	mu       sync.Mutex
	overview dashboard.ManagerOverview
	status   dashboard.Status
	latest   *dashboard.ChartData
	charts   dashboard.ChartSVG
}

// ManagerView is what a refresh produced.
type ManagerView struct {
	Overview      dashboard.ManagerOverview
	Status        dashboard.Status
	ChartsEnabled bool
	Charts        dashboard.ChartSVG
}

// NewManagerDashboard builds the dashboard for q.
func NewManagerDashboard(c *Client, q RangeQuery) *ManagerDashboard {
	return &ManagerDashboard{client: c, query: q}
}

// Refresh reloads the overview. When the overview endpoint fails the
// company metrics endpoint fills the headline numbers.
func (d *ManagerDashboard) Refresh(ctx context.Context) ManagerView {
	w := Widget[dashboard.ManagerOverview]{
		Name: "manager_overview",
		Primary: func(ctx context.Context) (dashboard.ManagerOverview, error) {
			return d.client.ManagerOverview(ctx, d.query)
		},
		Fallback: func(ctx context.Context) (dashboard.ManagerOverview, error) {
			m, err := d.client.CompanyMetrics(ctx, d.query)
			if err != nil {
				return dashboard.ManagerOverview{}, err
			}
			return dashboard.ManagerOverview{CompanyID: m.CompanyID, Metrics: m}, nil
		},
	}
	overview, status := w.Load(ctx, d.client.Logger())

	d.mu.Lock()
	defer d.mu.Unlock()
	d.overview, d.status = overview, status
	if overview.Charts != nil {
		d.latest = overview.Charts
	}
	d.rebuildLocked()
	return d.viewLocked()
}

// SetCharts persists the charts module flag. Turning charts off drops the
// rendered charts; turning them on redraws from the latest dataset, fetching
// one only when none was ever loaded.
func (d *ManagerDashboard) SetCharts(ctx context.Context, enabled bool) (ManagerView, error) {
	modules, err := d.client.ToggleModule(ctx, d.query.CompanyID, dashboard.ModuleCharts, enabled)
	if err != nil {
		return d.View(), fmt.Errorf("toggle charts: %w", err)
	}

	d.mu.Lock()
	needData := enabled && d.latest == nil
	d.mu.Unlock()

	var fetched *dashboard.ChartData
	if needData {
		if fetched, err = d.client.ChartsData(ctx, d.query); err != nil {
			d.client.Logger().Warn("load chart data", slog.Any("error", err))
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.overview.Modules = modules
	if fetched != nil {
		d.latest = fetched
	}
	if enabled {
		d.overview.Charts = d.latest
	} else {
		d.overview.Charts = nil
	}
	d.rebuildLocked()
	return d.viewLocked(), nil
}

// View returns the current state without fetching.
func (d *ManagerDashboard) View() ManagerView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *ManagerDashboard) chartsEnabledLocked() bool {
	if d.overview.Modules == nil {
		return d.overview.Charts != nil
	}
	return d.overview.Modules.Enabled(dashboard.ModuleCharts)
}

func (d *ManagerDashboard) rebuildLocked() {
	d.charts = dashboard.ChartSVG{}
	if !d.chartsEnabledLocked() || d.latest == nil {
		return
	}
	charts, err := dashboard.RenderCharts(*d.latest)
	if err != nil {
		d.client.Logger().Warn("render charts", slog.Any("error", err))
		return
	}
	d.charts = charts
}

func (d *ManagerDashboard) viewLocked() ManagerView {
	return ManagerView{
		Overview:      d.overview,
		Status:        d.status,
		ChartsEnabled: d.chartsEnabledLocked(),
		Charts:        d.charts,
	}
}
