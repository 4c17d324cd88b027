package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sellapp/sellapp/internal/audit"
	"github.com/sellapp/sellapp/internal/backups"
	"github.com/sellapp/sellapp/internal/client/listview"
	"github.com/sellapp/sellapp/internal/companies"
	"github.com/sellapp/sellapp/internal/dashboard"
	"github.com/sellapp/sellapp/internal/pos"
)

// RangeQuery selects the company and reporting window of dashboard calls.
// From and To are YYYY-MM-DD; Period is today, week, month or year.
type RangeQuery struct {
	CompanyID int64
	Period    string
	From      string
	To        string
}

func (q RangeQuery) values() url.Values {
	v := url.Values{}
	if q.CompanyID > 0 {
		v.Set("company_id", strconv.FormatInt(q.CompanyID, 10))
	}
	setIf(v, "period", q.Period)
	setIf(v, "from", q.From)
	setIf(v, "to", q.To)
	return v
}

// SalesFilter narrows the POS sales history.
type SalesFilter struct {
	CompanyID     int64
	From          string
	To            string
	PaymentStatus string
	PaymentMethod string
	Search        string
}

// AuditFilter narrows the company audit records.
type AuditFilter struct {
	CompanyID int64
	Kind      string
	Search    string
	From      string
	To        string
}

// User is the authenticated account returned by login and me.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID *int64 `json:"company_id"`
}

type loginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login exchanges credentials for a bearer token and keeps it.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out loginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return User{}, err
	}
	c.SetToken(out.Token)
	return out.User, nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.doJSON(ctx, "me", http.MethodGet, "/api/auth/me", nil, nil, &out)
	return out, err
}

// AdminStats calls GET /api/admin/stats.
func (c *Client) AdminStats(ctx context.Context, q RangeQuery) (dashboard.StatsView, error) {
	var out dashboard.StatsView
	err := c.doJSON(ctx, "admin stats", http.MethodGet, "/api/admin/stats", q.values(), nil, &out)
	return out, err
}

// PlatformMetrics calls GET /api/admin/platform-metrics.
func (c *Client) PlatformMetrics(ctx context.Context, q RangeQuery) (dashboard.StatsPayload, error) {
	var out dashboard.StatsPayload
	err := c.doJSON(ctx, "platform metrics", http.MethodGet, "/api/admin/platform-metrics", q.values(), nil, &out)
	return out, err
}

// Analytics calls GET /api/admin/analytics.
func (c *Client) Analytics(ctx context.Context, q RangeQuery) (dashboard.Analytics, error) {
	var out dashboard.Analytics
	err := c.doJSON(ctx, "analytics", http.MethodGet, "/api/admin/analytics", q.values(), nil, &out)
	return out, err
}

// CompanyPerformance calls GET /api/admin/company-performance.
func (c *Client) CompanyPerformance(ctx context.Context, q RangeQuery) ([]dashboard.CompanyPerformance, error) {
	var out []dashboard.CompanyPerformance
	err := c.doJSON(ctx, "company performance", http.MethodGet, "/api/admin/company-performance", q.values(), nil, &out)
	return out, err
}

// ManagerOverview calls GET /api/dashboard/manager-overview.
func (c *Client) ManagerOverview(ctx context.Context, q RangeQuery) (dashboard.ManagerOverview, error) {
	var out dashboard.ManagerOverview
	err := c.doJSON(ctx, "manager overview", http.MethodGet, "/api/dashboard/manager-overview", q.values(), nil, &out)
	return out, err
}

// CompanyMetrics calls GET /api/dashboard/company-metrics.
func (c *Client) CompanyMetrics(ctx context.Context, q RangeQuery) (dashboard.CompanyMetrics, error) {
	var out dashboard.CompanyMetrics
	err := c.doJSON(ctx, "company metrics", http.MethodGet, "/api/dashboard/company-metrics", q.values(), nil, &out)
	return out, err
}

// ManagerStats calls GET /api/dashboard/stats.
func (c *Client) ManagerStats(ctx context.Context, q RangeQuery) (dashboard.StatsView, error) {
	var out dashboard.StatsView
	err := c.doJSON(ctx, "manager stats", http.MethodGet, "/api/dashboard/stats", q.values(), nil, &out)
	return out, err
}

// ChartsData calls GET /api/dashboard/charts-data. A nil result means the
// charts module is off.
func (c *Client) ChartsData(ctx context.Context, q RangeQuery) (*dashboard.ChartData, error) {
	var out struct {
		Enabled bool                 `json:"enabled"`
		Charts  *dashboard.ChartData `json:"charts"`
	}
	if err := c.doJSON(ctx, "charts data", http.MethodGet, "/api/dashboard/charts-data", q.values(), nil, &out); err != nil {
		return nil, err
	}
	if !out.Enabled {
		return nil, nil
	}
	return out.Charts, nil
}

// RecentSales calls GET /api/dashboard/recent-sales.
func (c *Client) RecentSales(ctx context.Context, q RangeQuery) ([]dashboard.RecentSale, error) {
	var out []dashboard.RecentSale
	err := c.doJSON(ctx, "recent sales", http.MethodGet, "/api/dashboard/recent-sales", q.values(), nil, &out)
	return out, err
}

// InventoryAlerts calls GET /api/dashboard/inventory-alerts.
func (c *Client) InventoryAlerts(ctx context.Context, q RangeQuery) ([]dashboard.InventoryAlert, error) {
	var out []dashboard.InventoryAlert
	err := c.doJSON(ctx, "inventory alerts", http.MethodGet, "/api/dashboard/inventory-alerts", q.values(), nil, &out)
	return out, err
}

// Modules calls GET /api/dashboard/modules.
func (c *Client) Modules(ctx context.Context, companyID int64) (dashboard.ModuleSet, error) {
	var out dashboard.ModuleSet
	err := c.doJSON(ctx, "modules", http.MethodGet, "/api/dashboard/modules", RangeQuery{CompanyID: companyID}.values(), nil, &out)
	return out, err
}

// ToggleModule calls POST /api/dashboard/toggle-module and returns the
// stored flags.
func (c *Client) ToggleModule(ctx context.Context, companyID int64, module dashboard.Module, enabled bool) (dashboard.ModuleSet, error) {
	body := dashboard.ToggleInput{CompanyID: companyID, Module: string(module), Enabled: &enabled}
	var out dashboard.ModuleSet
	err := c.doJSON(ctx, "toggle module", http.MethodPost, "/api/dashboard/toggle-module", nil, body, &out)
	return out, err
}

// ExportDashboard downloads the dashboard report as csv, xlsx or pdf.
func (c *Client) ExportDashboard(ctx context.Context, q RangeQuery, format string) ([]byte, string, error) {
	v := q.values()
	v.Set("format", format)
	return c.download(ctx, "export dashboard", "/api/dashboard/export", v)
}

// Sales calls GET /api/pos/sales.
func (c *Client) Sales(ctx context.Context, f SalesFilter, page, limit int) (listview.Page[pos.Sale], error) {
	v := pageValues(page, limit)
	if f.CompanyID > 0 {
		v.Set("company_id", strconv.FormatInt(f.CompanyID, 10))
	}
	setIf(v, "from", f.From)
	setIf(v, "to", f.To)
	setIf(v, "payment_status", f.PaymentStatus)
	setIf(v, "payment_method", f.PaymentMethod)
	setIf(v, "search", f.Search)
	return listPage[pos.Sale](ctx, c, "list sales", "/api/pos/sales", v)
}

// Sale calls GET /api/pos/sale/{id}.
func (c *Client) Sale(ctx context.Context, id int64) (pos.Sale, error) {
	var out pos.Sale
	err := c.doJSON(ctx, "get sale", http.MethodGet, "/api/pos/sale/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

type deleted struct {
	Deleted int64 `json:"deleted"`
}

// DeleteSale calls POST /api/pos/sale/{id}/delete.
func (c *Client) DeleteSale(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete sale", http.MethodPost, "/api/pos/sale/"+strconv.FormatInt(id, 10)+"/delete", nil, nil, nil)
}

// BulkDeleteSales calls POST /api/pos/sales/bulk-delete.
func (c *Client) BulkDeleteSales(ctx context.Context, ids []int64) (int64, error) {
	var out deleted
	err := c.doJSON(ctx, "bulk delete sales", http.MethodPost, "/api/pos/sales/bulk-delete", nil, map[string][]int64{"ids": ids}, &out)
	return out.Deleted, err
}

// CompanyAudit calls GET /api/admin/company-audit.
func (c *Client) CompanyAudit(ctx context.Context, f AuditFilter, page, limit int) (listview.Page[audit.Record], error) {
	v := pageValues(page, limit)
	if f.CompanyID > 0 {
		v.Set("company_id", strconv.FormatInt(f.CompanyID, 10))
	}
	setIf(v, "type", f.Kind)
	setIf(v, "search", f.Search)
	setIf(v, "from", f.From)
	setIf(v, "to", f.To)
	return listPage[audit.Record](ctx, c, "company audit", "/api/admin/company-audit", v)
}

// Backups calls GET /api/backups, or the company scoped route when
// companyID is set.
func (c *Client) Backups(ctx context.Context, companyID int64, page, limit int) (listview.Page[backups.Backup], error) {
	path := "/api/backups"
	if companyID > 0 {
		path = "/api/company/" + strconv.FormatInt(companyID, 10) + "/backups"
	}
	return listPage[backups.Backup](ctx, c, "list backups", path, pageValues(page, limit))
}

// BackupStats calls GET /api/backups/stats.
func (c *Client) BackupStats(ctx context.Context) (backups.Stats, error) {
	var out backups.Stats
	err := c.doJSON(ctx, "backup stats", http.MethodGet, "/api/backups/stats", nil, nil, &out)
	return out, err
}

// CreateBackup starts a manual backup. Zero companyID means system wide.
func (c *Client) CreateBackup(ctx context.Context, companyID int64) (backups.Backup, error) {
	var out backups.Backup
	err := c.doJSON(ctx, "create backup", http.MethodPost, "/api/backups", nil, map[string]int64{"company_id": companyID}, &out)
	return out, err
}

// RunScheduledBackups calls POST /api/admin/backups/run-scheduled.
func (c *Client) RunScheduledBackups(ctx context.Context) (backups.ScheduleResult, error) {
	var out backups.ScheduleResult
	err := c.doJSON(ctx, "run scheduled backups", http.MethodPost, "/api/admin/backups/run-scheduled", nil, nil, &out)
	return out, err
}

// Companies calls GET /api/admin/companies.
func (c *Client) Companies(ctx context.Context, search string, page, limit int) (listview.Page[companies.Company], error) {
	v := pageValues(page, limit)
	setIf(v, "search", search)
	return listPage[companies.Company](ctx, c, "list companies", "/api/admin/companies", v)
}

func listPage[T any](ctx context.Context, c *Client, op, path string, v url.Values) (listview.Page[T], error) {
	env, err := c.call(ctx, op, http.MethodGet, path, v, nil)
	if err != nil {
		return listview.Page[T]{}, err
	}
	var items []T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return listview.Page[T]{}, &DecodeError{Op: op, Err: err}
		}
	}
	return listview.Page[T]{Items: items, Total: env.Total, Page: env.Page, Limit: env.Limit, TotalPages: env.TotalPages}, nil
}

func pageValues(page, limit int) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
