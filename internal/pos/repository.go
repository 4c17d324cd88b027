package pos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository defines sales persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Sale, int, error)
	Get(ctx context.Context, id int64, companyID *int64) (Sale, error)
	Payments(ctx context.Context, saleID int64) ([]Payment, error)
	Update(ctx context.Context, id int64, companyID *int64, input UpdateInput) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	LockSale(ctx context.Context, id int64, companyID *int64) (Sale, error)
	InsertPayment(ctx context.Context, payment Payment) (Payment, error)
	UpdatePaymentState(ctx context.Context, id int64, paid decimal.Decimal, status PaymentStatus) error
	DeleteSales(ctx context.Context, ids []int64, companyID *int64) (int64, error)
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

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

const saleColumns = `s.id, s.unique_id, s.company_id, c.name, s.customer_name, COALESCE(s.customer_phone, ''),
	s.total, s.discount, s.final_amount, s.amount_paid, s.payment_status, s.payment_method,
	COALESCE(u.name, ''), COALESCE(u.role, ''), s.has_swapped_items, COALESCE(s.notes, ''), s.created_at`

const saleFrom = ` FROM sales s
	JOIN companies c ON c.id = s.company_id
	LEFT JOIN users u ON u.id = s.cashier_id`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	var status string
	err := row.Scan(&s.ID, &s.UniqueID, &s.CompanyID, &s.CompanyName, &s.CustomerName, &s.CustomerPhone,
		&s.Total, &s.Discount, &s.FinalAmount, &s.AmountPaid, &status, &s.PaymentMethod,
		&s.CashierName, &s.CashierRole, &s.HasSwappedItems, &s.Notes, &s.CreatedAt)
	s.PaymentStatus = PaymentStatus(status)
	return s, err
}

func listWhere(filter ListFilter) *db.Where {
	where := &db.Where{}
	if filter.CompanyID != nil {
		where.Add("s.company_id = ?", *filter.CompanyID)
	}
	if filter.From != nil {
		where.Add("s.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		// inclusive end date
		where.Add("s.created_at < ?", filter.To.AddDate(0, 0, 1))
	}
	if filter.PaymentStatus != "" {
		where.Add("s.payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.PaymentMethod != "" {
		where.Add("s.payment_method = ?", filter.PaymentMethod)
	}
	if filter.Search != "" {
		like := db.Like(filter.Search)
		where.Add("(s.customer_name ILIKE ? OR s.unique_id ILIKE ? OR s.customer_phone ILIKE ?)", like, like, like)
	}
	return where
}

// List returns a page of sales, newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	where := listWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales s`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	query := `SELECT ` + saleColumns + saleFrom + where.SQL() + ` ORDER BY s.created_at DESC, s.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.pool.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]Sale, 0, filter.Limit)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
	}
	return sales, total, rows.Err()
}

// Get loads a sale with its items.
func (r *PGRepository) Get(ctx context.Context, id int64, companyID *int64) (Sale, error) {
	sale, err := getSale(ctx, r.pool, id, companyID, false)
	if err != nil {
		return Sale{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT si.id, si.sale_id, si.product_id, COALESCE(p.name, si.product_name), si.quantity, si.unit_price, si.total_price
FROM sale_items si LEFT JOIN products p ON p.id = si.product_id
WHERE si.sale_id = $1 ORDER BY si.id`, id)
	if err != nil {
		return Sale{}, fmt.Errorf("sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return Sale{}, err
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, rows.Err()
}

func getSale(ctx context.Context, conn db.DBTX, id int64, companyID *int64, lock bool) (Sale, error) {
	where := &db.Where{}
	where.Add("s.id = ?", id)
	if companyID != nil {
		where.Add("s.company_id = ?", *companyID)
	}
	query := `SELECT ` + saleColumns + saleFrom + where.SQL()
	if lock {
		query += ` FOR UPDATE OF s`
	}
	sale, err := scanSale(conn.QueryRow(ctx, query, where.Args()...))
	if err != nil {
		if db.IsNoRows(err) {
			return Sale{}, fmt.Errorf("sale %d: %w", id, httpx.ErrNotFound)
		}
		return Sale{}, err
	}
	return sale, nil
}

// Payments lists the payments of a sale, oldest first.
func (r *PGRepository) Payments(ctx context.Context, saleID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, amount, method, COALESCE(reference, ''), created_by, created_at
FROM sale_payments WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.SaleID, &p.Amount, &p.Method, &p.Reference, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update changes sale metadata.
func (r *PGRepository) Update(ctx context.Context, id int64, companyID *int64, input UpdateInput) error {
	where := &db.Where{}
	sets := ""
	if input.CustomerName != nil {
		sets += ", customer_name = " + where.Next(*input.CustomerName)
	}
	if input.CustomerPhone != nil {
		sets += ", customer_phone = " + where.Next(*input.CustomerPhone)
	}
	if input.Notes != nil {
		sets += ", notes = " + where.Next(*input.Notes)
	}
	where.Add("id = ?", id)
	if companyID != nil {
		where.Add("company_id = ?", *companyID)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE sales SET updated_at = NOW()`+sets+where.SQL(), where.Args()...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (t *txRepo) LockSale(ctx context.Context, id int64, companyID *int64) (Sale, error) {
	return getSale(ctx, t.tx, id, companyID, true)
}

func (t *txRepo) InsertPayment(ctx context.Context, payment Payment) (Payment, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO sale_payments (sale_id, amount, method, reference, created_by, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW()) RETURNING id, created_at`,
		payment.SaleID, payment.Amount, payment.Method, payment.Reference, payment.CreatedBy).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return payment, nil
}

func (t *txRepo) UpdatePaymentState(ctx context.Context, id int64, paid decimal.Decimal, status PaymentStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE sales SET amount_paid = $1, payment_status = $2, updated_at = NOW() WHERE id = $3`, paid, string(status), id)
	return err
}

// DeleteSales removes sales in scope and returns stock of their items.
func (t *txRepo) DeleteSales(ctx context.Context, ids []int64, companyID *int64) (int64, error) {
	where := &db.Where{}
	where.Add("id = ANY(?)", ids)
	if companyID != nil {
		where.Add("company_id = ?", *companyID)
	}
	args := where.Args()
	_, err := t.tx.Exec(ctx, `UPDATE products p SET quantity = p.quantity + si.quantity, updated_at = NOW()
FROM sale_items si WHERE si.product_id = p.id AND si.sale_id IN (SELECT id FROM sales`+where.SQL()+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("restock deleted sales: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales`+where.SQL(), args...)
	if err != nil {
		return 0, fmt.Errorf("delete sales: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
