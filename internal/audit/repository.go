package audit

import (
	"context"
	"fmt"

	"github.com/sellapp/sellapp/internal/platform/db"
)

// Repository reads the unified record view.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Record, int, error)
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs the Postgres repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const recordsCTE = `WITH records AS (
	SELECT 'sale' AS kind, s.id, s.company_id, c.name AS company_name, s.unique_id AS reference,
		COALESCE(s.customer_name, '') AS customer_name, s.final_amount AS amount, s.payment_status AS status, s.created_at
	FROM sales s JOIN companies c ON c.id = s.company_id
	UNION ALL
	SELECT 'repair', r.id, r.company_id, c.name, r.product_name,
		r.customer_name, r.total_cost, r.status, r.created_at
	FROM repairs r JOIN companies c ON c.id = r.company_id
	UNION ALL
	SELECT 'swap', w.id, w.company_id, c.name, w.transaction_code,
		w.customer_name, w.company_product_price, w.status, w.created_at
	FROM swaps w JOIN companies c ON c.id = w.company_id
)`

func listWhere(filter Filter) *db.Where {
	where := &db.Where{}
	if filter.CompanyID != nil {
		where.Add("company_id = ?", *filter.CompanyID)
	}
	if filter.Kind != "" {
		where.Add("kind = ?", string(filter.Kind))
	}
	if filter.From != nil {
		where.Add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		where.Add("created_at < ?", filter.To.AddDate(0, 0, 1))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where.Add("(customer_name ILIKE ? OR reference ILIKE ? OR company_name ILIKE ?)", like, like, like)
	}
	return where
}

// List returns one page of records, newest first, and the total match count.
// A zero Limit returns every match.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Record, int, error) {
	where := listWhere(filter)
	var total int
	if err := r.db.QueryRow(ctx, recordsCTE+` SELECT COUNT(*) FROM records`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}
	query := recordsCTE + ` SELECT kind, id, company_id, company_name, reference, customer_name, amount, status, created_at
		FROM records` + where.SQL() + ` ORDER BY created_at DESC, kind, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec  Record
			kind string
		)
		if err := rows.Scan(&kind, &rec.ID, &rec.CompanyID, &rec.CompanyName, &rec.Reference, &rec.CustomerName, &rec.Amount, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Kind = Kind(kind)
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
