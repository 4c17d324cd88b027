package swaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository defines swap persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Swap, int, error)
	Get(ctx context.Context, id int64, companyID *int64) (Swap, error)
	Create(ctx context.Context, swap Swap) (Swap, error)
	Delete(ctx context.Context, id int64, companyID *int64) error
	Counts(ctx context.Context, companyID *int64) (Counts, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	LockSwap(ctx context.Context, id int64, companyID *int64) (Swap, error)
	MarkResold(ctx context.Context, id int64, finalProfit decimal.Decimal) error
	DefaultCategory(ctx context.Context) (int64, error)
	InsertProduct(ctx context.Context, product NewProduct) (int64, error)
	LinkProduct(ctx context.Context, swapID, productID int64) error
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PGRepository)(nil)

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const swapColumns = `w.id, w.company_id, c.name, w.transaction_code, w.customer_name, COALESCE(w.customer_phone, ''),
	w.customer_product_brand, w.customer_product_model, w.customer_product_value, COALESCE(w.customer_product_condition, ''),
	w.company_product_name, COALESCE(w.company_product_brand, ''), w.company_product_price, w.cash_difference,
	w.resale_status, w.profit_estimate, w.final_profit, w.status, w.inventory_product_id, w.created_at`

const swapFrom = ` FROM swaps w JOIN companies c ON c.id = w.company_id`

func scanSwap(row pgx.Row) (Swap, error) {
	var (
		s            Swap
		resale       string
		status       string
		finalProfit  decimal.NullDecimal
		inventoryRef *int64
	)
	err := row.Scan(&s.ID, &s.CompanyID, &s.CompanyName, &s.TransactionCode, &s.CustomerName, &s.CustomerPhone,
		&s.CustomerProductBrand, &s.CustomerProductModel, &s.CustomerProductValue, &s.CustomerProductCondition,
		&s.CompanyProductName, &s.CompanyProductBrand, &s.CompanyProductPrice, &s.CashDifference,
		&resale, &s.ProfitEstimate, &finalProfit, &status, &inventoryRef, &s.CreatedAt)
	if err != nil {
		return Swap{}, err
	}
	s.ResaleStatus = ResaleStatus(resale)
	s.Status = Status(status)
	if finalProfit.Valid {
		v := finalProfit.Decimal
		s.FinalProfit = &v
	}
	s.InventoryProductID = inventoryRef
	return s, nil
}

// List returns swaps newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Swap, int, error) {
	where := &db.Where{}
	if filter.CompanyID != nil {
		where.Add("w.company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		where.Add("w.status = ?", string(filter.Status))
	}
	if filter.ResaleStatus != "" {
		where.Add("w.resale_status = ?", string(filter.ResaleStatus))
	}
	if filter.Search != "" {
		like := db.Like(filter.Search)
		where.Add("(w.transaction_code ILIKE ? OR w.customer_name ILIKE ? OR w.customer_product_model ILIKE ?)", like, like, like)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM swaps w`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count swaps: %w", err)
	}
	query := `SELECT ` + swapColumns + swapFrom + where.SQL() + ` ORDER BY w.created_at DESC, w.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}
	defer rows.Close()
	var out []Swap
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func getSwap(ctx context.Context, conn db.DBTX, id int64, companyID *int64, lock bool) (Swap, error) {
	where := &db.Where{}
	where.Add("w.id = ?", id)
	if companyID != nil {
		where.Add("w.company_id = ?", *companyID)
	}
	query := `SELECT ` + swapColumns + swapFrom + where.SQL()
	if lock {
		query += ` FOR UPDATE OF w`
	}
	s, err := scanSwap(conn.QueryRow(ctx, query, where.Args()...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Swap{}, fmt.Errorf("swap %d: %w", id, httpx.ErrNotFound)
		}
		return Swap{}, err
	}
	return s, nil
}

// Get fetches a swap within the optional company scope.
func (r *PGRepository) Get(ctx context.Context, id int64, companyID *int64) (Swap, error) {
	return getSwap(ctx, r.pool, id, companyID, false)
}

// Create inserts a swap.
func (r *PGRepository) Create(ctx context.Context, s Swap) (Swap, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO swaps (company_id, transaction_code, customer_name, customer_phone,
		customer_product_brand, customer_product_model, customer_product_value, customer_product_condition,
		company_product_name, company_product_brand, company_product_price, cash_difference,
		resale_status, profit_estimate, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14, $15)
		RETURNING id, created_at`,
		s.CompanyID, s.TransactionCode, s.CustomerName, s.CustomerPhone,
		s.CustomerProductBrand, s.CustomerProductModel, s.CustomerProductValue, s.CustomerProductCondition,
		s.CompanyProductName, s.CompanyProductBrand, s.CompanyProductPrice, s.CashDifference,
		string(s.ResaleStatus), s.ProfitEstimate, string(s.Status)).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Swap{}, fmt.Errorf("transaction code %s: %w", s.TransactionCode, httpx.ErrConflict)
		}
		return Swap{}, fmt.Errorf("insert swap: %w", err)
	}
	return s, nil
}

// Delete removes a swap within scope.
func (r *PGRepository) Delete(ctx context.Context, id int64, companyID *int64) error {
	where := &db.Where{}
	where.Add("id = ?", id)
	if companyID != nil {
		where.Add("company_id = ?", *companyID)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM swaps`+where.SQL(), where.Args()...)
	if err != nil {
		return fmt.Errorf("delete swap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("swap %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// Counts aggregates swaps for dashboards.
func (r *PGRepository) Counts(ctx context.Context, companyID *int64) (Counts, error) {
	where := &db.Where{}
	if companyID != nil {
		where.Add("company_id = ?", *companyID)
	}
	var c Counts
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE resale_status = 'in_stock'),
		COUNT(*) FILTER (WHERE status = 'resold'),
		COALESCE(SUM(final_profit), 0)
		FROM swaps`+where.SQL(), where.Args()...).Scan(&c.Total, &c.InStock, &c.Resold, &c.Profit)
	if err != nil {
		return Counts{}, fmt.Errorf("count swaps: %w", err)
	}
	return c, nil
}

func (t *txRepo) LockSwap(ctx context.Context, id int64, companyID *int64) (Swap, error) {
	return getSwap(ctx, t.tx, id, companyID, true)
}

func (t *txRepo) MarkResold(ctx context.Context, id int64, finalProfit decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE swaps SET resale_status = 'sold', status = 'resold', final_profit = $1 WHERE id = $2`,
		finalProfit, id)
	if err != nil {
		return fmt.Errorf("mark swap resold: %w", err)
	}
	return nil
}

func (t *txRepo) DefaultCategory(ctx context.Context) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM categories WHERE slug = 'phones' ORDER BY id LIMIT 1`).Scan(&id)
	if err != nil {
		if db.IsNoRows(err) {
			return 0, fmt.Errorf("%w: category_id required, no phones category configured", httpx.ErrValidation)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) InsertProduct(ctx context.Context, p NewProduct) (int64, error) {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return 0, err
	}
	var brandID *int64
	if p.BrandName != "" {
		var id int64
		err := t.tx.QueryRow(ctx, `SELECT id FROM brands WHERE category_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`,
			p.CategoryID, p.BrandName).Scan(&id)
		switch {
		case err == nil:
			brandID = &id
		case !db.IsNoRows(err):
			return 0, fmt.Errorf("resolve brand: %w", err)
		}
	}
	var id int64
	err = t.tx.QueryRow(ctx, `INSERT INTO products (company_id, name, category_id, brand_id, sku, cost_price, selling_price, quantity, specs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8) RETURNING id`,
		p.CompanyID, p.Name, p.CategoryID, brandID, p.SKU, p.CostPrice, p.SellingPrice, specs).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("product sku %s: %w", p.SKU, httpx.ErrConflict)
		}
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

func (t *txRepo) LinkProduct(ctx context.Context, swapID, productID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE swaps SET inventory_product_id = $1 WHERE id = $2`, productID, swapID)
	if err != nil {
		return fmt.Errorf("link swap product: %w", err)
	}
	return nil
}
