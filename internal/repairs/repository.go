package repairs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository defines repair persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Repair, int, error)
	Get(ctx context.Context, id int64, companyID *int64) (Repair, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
	Counts(ctx context.Context, companyID *int64) (Counts, error)
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	db db.DBTX
}

var _ Repository = (*PGRepository)(nil)

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const repairColumns = `r.id, r.company_id, c.name, r.customer_name, COALESCE(r.customer_contact, ''),
	r.product_name, COALESCE(r.issue_description, ''), r.status, r.total_cost, r.created_at, r.updated_at`

func scanRepair(row pgx.Row) (Repair, error) {
	var rp Repair
	var status string
	err := row.Scan(&rp.ID, &rp.CompanyID, &rp.CompanyName, &rp.CustomerName, &rp.CustomerContact,
		&rp.ProductName, &rp.IssueDescription, &status, &rp.TotalCost, &rp.CreatedAt, &rp.UpdatedAt)
	rp.Status = Status(status)
	return rp, err
}

// List returns repairs newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Repair, int, error) {
	where := &db.Where{}
	if filter.CompanyID != nil {
		where.Add("r.company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		where.Add("r.status = ?", string(filter.Status))
	}
	if filter.Search != "" {
		like := db.Like(filter.Search)
		where.Add("(r.customer_name ILIKE ? OR r.product_name ILIKE ? OR r.customer_contact ILIKE ?)", like, like, like)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM repairs r`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count repairs: %w", err)
	}
	query := `SELECT ` + repairColumns + ` FROM repairs r JOIN companies c ON c.id = r.company_id` +
		where.SQL() + ` ORDER BY r.created_at DESC, r.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list repairs: %w", err)
	}
	defer rows.Close()
	var out []Repair
	for rows.Next() {
		rp, err := scanRepair(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rp)
	}
	return out, total, rows.Err()
}

// Get fetches a repair within the optional company scope.
func (r *PGRepository) Get(ctx context.Context, id int64, companyID *int64) (Repair, error) {
	where := &db.Where{}
	where.Add("r.id = ?", id)
	if companyID != nil {
		where.Add("r.company_id = ?", *companyID)
	}
	row := r.db.QueryRow(ctx, `SELECT `+repairColumns+` FROM repairs r JOIN companies c ON c.id = r.company_id`+where.SQL(), where.Args()...)
	rp, err := scanRepair(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Repair{}, fmt.Errorf("repair %d: %w", id, httpx.ErrNotFound)
		}
		return Repair{}, err
	}
	return rp, nil
}

// UpdateStatus moves a repair from one status to another. The from guard
// makes concurrent updates lose with a conflict.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE repairs SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update repair status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repair %d changed concurrently: %w", id, httpx.ErrConflict)
	}
	return nil
}

// Counts aggregates repairs by status.
func (r *PGRepository) Counts(ctx context.Context, companyID *int64) (Counts, error) {
	where := &db.Where{}
	if companyID != nil {
		where.Add("company_id = ?", *companyID)
	}
	var c Counts
	err := r.db.QueryRow(ctx, `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'in_progress'),
		COUNT(*) FILTER (WHERE status = 'completed'),
		COUNT(*) FILTER (WHERE status = 'delivered')
		FROM repairs`+where.SQL(), where.Args()...).Scan(&c.Total, &c.Pending, &c.InProgress, &c.Completed, &c.Delivered)
	if err != nil {
		return Counts{}, fmt.Errorf("count repairs by status: %w", err)
	}
	return c, nil
}
