package companies

import (
	"context"
	"fmt"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository defines company persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Company, int, error)
	Get(ctx context.Context, id int64) (Company, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const companyColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), is_active, created_at`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Company, int, error) {
	var where db.Where
	if filter.Search != "" {
		where.Add("(name ILIKE ? OR email ILIKE ?)", db.Like(filter.Search), db.Like(filter.Search))
	}
	if filter.ActiveOnly {
		where.Add("is_active = ?", true)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + companyColumns + ` FROM companies` + where.SQL() + ` ORDER BY name ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	companies := make([]Company, 0, filter.Limit)
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Company, error) {
	var c Company
	err := r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return Company{}, fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
		}
		return Company{}, err
	}
	return c, nil
}
