package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository runs the aggregate queries behind the dashboards. A nil scope
// covers every company.
type Repository interface {
	Stats(ctx context.Context, scope *int64, r Range, lowStock int) (StatsPayload, error)
	PlatformMetrics(ctx context.Context, scope *int64, r Range, lowStock int) (StatsPayload, error)
	Trend(ctx context.Context, scope *int64, r Range) ([]TrendPoint, error)
	PaymentMethods(ctx context.Context, scope *int64, r Range) ([]MethodTotal, error)
	CompanyPerformance(ctx context.Context, r Range, limit int) ([]CompanyPerformance, error)
	CompanyName(ctx context.Context, id int64) (string, error)
	RecentSales(ctx context.Context, companyID int64, limit int) ([]RecentSale, error)
	Modules(ctx context.Context, companyID int64) (ModuleSet, error)
	SetModule(ctx context.Context, companyID int64, module Module, enabled bool) error
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	db db.DBTX
}

// NewRepository builds a PGRepository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// salesProfit exposes each sale with the margin over its items' cost.
const salesProfit = `(SELECT s.id, s.company_id, s.final_amount, s.amount_paid, s.payment_method, s.created_at,
	s.final_amount - COALESCE((SELECT SUM(si.quantity * COALESCE(p.cost_price, 0))
		FROM sale_items si LEFT JOIN products p ON p.id = si.product_id
		WHERE si.sale_id = s.id), 0) AS profit
	FROM sales s)`

// Stats returns flat totals in one round trip. $1 scope, $2/$3 range, $4 low stock threshold.
func (r *PGRepository) Stats(ctx context.Context, scope *int64, rng Range, lowStock int) (StatsPayload, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM companies c WHERE ($1::bigint IS NULL OR c.id = $1)),
	(SELECT COUNT(*) FROM companies c WHERE c.is_active AND ($1::bigint IS NULL OR c.id = $1)),
	(SELECT COUNT(*) FROM users u WHERE ($1::bigint IS NULL OR u.company_id = $1)),
	COUNT(sp.id),
	COALESCE(SUM(sp.final_amount), 0),
	COALESCE(SUM(sp.profit), 0),
	COALESCE(SUM(GREATEST(sp.final_amount - sp.amount_paid, 0)), 0),
	(SELECT COUNT(*) FROM repairs rp WHERE ($1::bigint IS NULL OR rp.company_id = $1) AND rp.created_at >= $2 AND rp.created_at < $3),
	(SELECT COUNT(*) FROM repairs rp WHERE ($1::bigint IS NULL OR rp.company_id = $1) AND rp.status IN ('pending', 'in_progress')),
	(SELECT COUNT(*) FROM swaps w WHERE ($1::bigint IS NULL OR w.company_id = $1) AND w.created_at >= $2 AND w.created_at < $3),
	(SELECT COUNT(*) FROM swaps w WHERE ($1::bigint IS NULL OR w.company_id = $1) AND w.resale_status = 'in_stock'),
	(SELECT COUNT(*) FROM products p WHERE ($1::bigint IS NULL OR p.company_id = $1)),
	(SELECT COUNT(*) FROM products p WHERE ($1::bigint IS NULL OR p.company_id = $1) AND p.quantity <= $4)
FROM ` + salesProfit + ` sp
WHERE ($1::bigint IS NULL OR sp.company_id = $1) AND sp.created_at >= $2 AND sp.created_at < $3`

	var (
		companies, active, users, sales  int64
		repairs, pending, swaps, inStock int64
		products, low                    int64
		revenue, profit, outstanding     decimal.Decimal
	)
	err := r.db.QueryRow(ctx, query, scope, rng.From, rng.To, lowStock).Scan(
		&companies, &active, &users, &sales, &revenue, &profit, &outstanding,
		&repairs, &pending, &swaps, &inStock, &products, &low,
	)
	if err != nil {
		return StatsPayload{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return StatsPayload{
		TotalCompanies:  &companies,
		ActiveCompanies: &active,
		TotalUsers:      &users,
		TotalSales:      &sales,
		TotalRevenue:    &revenue,
		TotalProfit:     &profit,
		Outstanding:     &outstanding,
		TotalRepairs:    &repairs,
		PendingRepairs:  &pending,
		TotalSwaps:      &swaps,
		SwapsInStock:    &inStock,
		TotalProducts:   &products,
		LowStock:        &low,
	}, nil
}

// PlatformMetrics computes the same figures one area at a time.
func (r *PGRepository) PlatformMetrics(ctx context.Context, scope *int64, rng Range, lowStock int) (StatsPayload, error) {
	companies := CompanyBlock{Total: new(int64), Active: new(int64)}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM companies
WHERE ($1::bigint IS NULL OR id = $1)`, scope).Scan(companies.Total, companies.Active); err != nil {
		return StatsPayload{}, fmt.Errorf("platform companies: %w", err)
	}

	users := CountBlock{Total: new(int64)}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE ($1::bigint IS NULL OR company_id = $1)`, scope).
		Scan(users.Total); err != nil {
		return StatsPayload{}, fmt.Errorf("platform users: %w", err)
	}

	sales := SalesBlock{TotalTransactions: new(int64), Revenue: new(decimal.Decimal), Profit: new(decimal.Decimal), Outstanding: new(decimal.Decimal)}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(final_amount), 0), COALESCE(SUM(profit), 0),
	COALESCE(SUM(GREATEST(final_amount - amount_paid, 0)), 0)
FROM `+salesProfit+` sp WHERE ($1::bigint IS NULL OR company_id = $1) AND created_at >= $2 AND created_at < $3`,
		scope, rng.From, rng.To).Scan(sales.TotalTransactions, sales.Revenue, sales.Profit, sales.Outstanding); err != nil {
		return StatsPayload{}, fmt.Errorf("platform sales: %w", err)
	}

	repairs := RepairBlock{Total: new(int64), Pending: new(int64)}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $3),
	COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress'))
FROM repairs WHERE ($1::bigint IS NULL OR company_id = $1)`, scope, rng.From, rng.To).Scan(repairs.Total, repairs.Pending); err != nil {
		return StatsPayload{}, fmt.Errorf("platform repairs: %w", err)
	}

	swaps := SwapBlock{Total: new(int64), InStock: new(int64)}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $3),
	COUNT(*) FILTER (WHERE resale_status = 'in_stock')
FROM swaps WHERE ($1::bigint IS NULL OR company_id = $1)`, scope, rng.From, rng.To).Scan(swaps.Total, swaps.InStock); err != nil {
		return StatsPayload{}, fmt.Errorf("platform swaps: %w", err)
	}

	stock := StockBlock{Products: new(int64), LowStock: new(int64)}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE quantity <= $2)
FROM products WHERE ($1::bigint IS NULL OR company_id = $1)`, scope, lowStock).Scan(stock.Products, stock.LowStock); err != nil {
		return StatsPayload{}, fmt.Errorf("platform inventory: %w", err)
	}

	return StatsPayload{
		Companies: &companies,
		Users:     &users,
		Sales:     &sales,
		Repairs:   &repairs,
		Swaps:     &swaps,
		Inventory: &stock,
	}, nil
}

// Trend returns one point per day of rng, days without sales included.
func (r *PGRepository) Trend(ctx context.Context, scope *int64, rng Range) ([]TrendPoint, error) {
	rows, err := r.db.Query(ctx, `SELECT d::date, COUNT(sp.id), COALESCE(SUM(sp.final_amount), 0), COALESCE(SUM(sp.profit), 0)
FROM generate_series($2::timestamptz, $3::timestamptz - INTERVAL '1 day', INTERVAL '1 day') d
LEFT JOIN `+salesProfit+` sp ON sp.created_at >= d AND sp.created_at < d + INTERVAL '1 day'
	AND ($1::bigint IS NULL OR sp.company_id = $1)
GROUP BY d ORDER BY d`, scope, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("dashboard trend: %w", err)
	}
	defer rows.Close()

	points := make([]TrendPoint, 0, 32)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Sales, &p.Revenue, &p.Profit); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// PaymentMethods groups sales of rng by payment method.
func (r *PGRepository) PaymentMethods(ctx context.Context, scope *int64, rng Range) ([]MethodTotal, error) {
	rows, err := r.db.Query(ctx, `SELECT COALESCE(NULLIF(payment_method, ''), 'unknown'), COUNT(*), COALESCE(SUM(final_amount), 0)
FROM sales WHERE ($1::bigint IS NULL OR company_id = $1) AND created_at >= $2 AND created_at < $3
GROUP BY 1 ORDER BY 3 DESC`, scope, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("dashboard payment methods: %w", err)
	}
	defer rows.Close()

	totals := make([]MethodTotal, 0, 4)
	for rows.Next() {
		var m MethodTotal
		if err := rows.Scan(&m.Method, &m.Count, &m.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, m)
	}
	return totals, rows.Err()
}

// CompanyPerformance ranks companies by revenue over rng.
func (r *PGRepository) CompanyPerformance(ctx context.Context, rng Range, limit int) ([]CompanyPerformance, error) {
	rows, err := r.db.Query(ctx, `SELECT c.id, c.name, c.is_active,
	COALESCE(s.revenue, 0), COALESCE(s.profit, 0), COALESCE(s.cnt, 0),
	(SELECT COUNT(*) FROM repairs rp WHERE rp.company_id = c.id AND rp.created_at >= $1 AND rp.created_at < $2),
	(SELECT COUNT(*) FROM swaps w WHERE w.company_id = c.id AND w.created_at >= $1 AND w.created_at < $2)
FROM companies c
LEFT JOIN (
	SELECT company_id, SUM(final_amount) AS revenue, SUM(profit) AS profit, COUNT(*) AS cnt
	FROM `+salesProfit+` sp WHERE created_at >= $1 AND created_at < $2
	GROUP BY company_id
) s ON s.company_id = c.id
ORDER BY 4 DESC, c.name ASC
LIMIT $3`, rng.From, rng.To, limit)
	if err != nil {
		return nil, fmt.Errorf("company performance: %w", err)
	}
	defer rows.Close()

	out := make([]CompanyPerformance, 0, limit)
	for rows.Next() {
		var c CompanyPerformance
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.IsActive, &c.Revenue, &c.Profit, &c.SalesCount, &c.RepairsCount, &c.SwapsCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CompanyName returns the display name of a company.
func (r *PGRepository) CompanyName(ctx context.Context, id int64) (string, error) {
	var name string
	if err := r.db.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, id).Scan(&name); err != nil {
		if db.IsNoRows(err) {
			return "", fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
		}
		return "", err
	}
	return name, nil
}

// RecentSales returns the latest sales of a company.
func (r *PGRepository) RecentSales(ctx context.Context, companyID int64, limit int) ([]RecentSale, error) {
	rows, err := r.db.Query(ctx, `SELECT id, unique_id, COALESCE(customer_name, ''), final_amount, payment_status, COALESCE(payment_method, ''), created_at
FROM sales WHERE company_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	defer rows.Close()

	sales := make([]RecentSale, 0, limit)
	for rows.Next() {
		var s RecentSale
		if err := rows.Scan(&s.ID, &s.UniqueID, &s.CustomerName, &s.FinalAmount, &s.PaymentStatus, &s.PaymentMethod, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// Modules returns the stored module flags of a company.
func (r *PGRepository) Modules(ctx context.Context, companyID int64) (ModuleSet, error) {
	rows, err := r.db.Query(ctx, `SELECT module, enabled FROM company_modules WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("company modules: %w", err)
	}
	defer rows.Close()

	set := ModuleSet{}
	for rows.Next() {
		var (
			module  string
			enabled bool
		)
		if err := rows.Scan(&module, &enabled); err != nil {
			return nil, err
		}
		set[Module(module)] = enabled
	}
	return set, rows.Err()
}

// SetModule upserts one module flag.
func (r *PGRepository) SetModule(ctx context.Context, companyID int64, module Module, enabled bool) error {
	_, err := r.db.Exec(ctx, `INSERT INTO company_modules (company_id, module, enabled, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (company_id, module) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()`,
		companyID, string(module), enabled)
	if err != nil {
		return fmt.Errorf("set company module: %w", err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
