package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository defines catalog persistence.
type Repository interface {
	Categories(ctx context.Context) ([]Category, error)
	Category(ctx context.Context, id int64) (Category, error)
	Brands(ctx context.Context, categoryID int64) ([]Brand, error)
	Subcategories(ctx context.Context, categoryID int64) ([]Subcategory, error)
	BrandSpecs(ctx context.Context, brandID int64) ([]SpecField, error)
	CategorySpecs(ctx context.Context, categoryID int64) ([]SpecField, error)

	ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error)
	GetProduct(ctx context.Context, id int64, companyID *int64) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id int64, companyID *int64) error
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

// Categories lists every category by name.
func (r *PGRepository) Categories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug, kind, requires_brand FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Kind, &c.RequiresBrand); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Category loads one category.
func (r *PGRepository) Category(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, slug, kind, requires_brand FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Kind, &c.RequiresBrand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, fmt.Errorf("category %d: %w", id, httpx.ErrNotFound)
		}
		return Category{}, err
	}
	return c, nil
}

// Brands lists the brands of a category.
func (r *PGRepository) Brands(ctx context.Context, categoryID int64) ([]Brand, error) {
	rows, err := r.db.Query(ctx, `SELECT id, category_id, name FROM brands WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()
	out := []Brand{}
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Subcategories lists the subcategories of a category.
func (r *PGRepository) Subcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, category_id, name FROM subcategories WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()
	out := []Subcategory{}
	for rows.Next() {
		var s Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const specColumns = `id, name, label, type, COALESCE(options, '{}'), required, COALESCE(placeholder, ''), sort_order`

func (r *PGRepository) specs(ctx context.Context, column string, id int64) ([]SpecField, error) {
	rows, err := r.db.Query(ctx, `SELECT `+specColumns+` FROM spec_fields WHERE `+column+` = $1 ORDER BY sort_order, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list spec fields: %w", err)
	}
	defer rows.Close()
	var out []SpecField
	for rows.Next() {
		var f SpecField
		if err := rows.Scan(&f.ID, &f.Name, &f.Label, &f.Type, &f.Options, &f.Required, &f.Placeholder, &f.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// BrandSpecs lists the spec fields defined for a brand.
func (r *PGRepository) BrandSpecs(ctx context.Context, brandID int64) ([]SpecField, error) {
	return r.specs(ctx, "brand_id", brandID)
}

// CategorySpecs lists the category level spec fields.
func (r *PGRepository) CategorySpecs(ctx context.Context, categoryID int64) ([]SpecField, error) {
	return r.specs(ctx, "category_id", categoryID)
}

const productColumns = `p.id, p.company_id, p.name, p.category_id, c.name, p.brand_id, COALESCE(b.name, ''),
	p.subcategory_id, COALESCE(p.sku, ''), p.cost_price, p.selling_price, p.quantity, COALESCE(p.specs, '{}'::jsonb),
	p.created_at, p.updated_at`

const productFrom = ` FROM products p
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var specs []byte
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.CategoryID, &p.CategoryName, &p.BrandID, &p.BrandName,
		&p.SubcategoryID, &p.SKU, &p.CostPrice, &p.SellingPrice, &p.Quantity, &specs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.Specs = map[string]string{}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specs); err != nil {
			return Product{}, fmt.Errorf("decode product %d specs: %w", p.ID, err)
		}
	}
	return p, nil
}

// ListProducts returns a page of products by name.
func (r *PGRepository) ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	where := &db.Where{}
	if filter.CompanyID != nil {
		where.Add("p.company_id = ?", *filter.CompanyID)
	}
	if filter.CategoryID > 0 {
		where.Add("p.category_id = ?", filter.CategoryID)
	}
	if filter.BrandID > 0 {
		where.Add("p.brand_id = ?", filter.BrandID)
	}
	if filter.LowStock > 0 {
		where.Add("p.quantity <= ?", filter.LowStock)
	}
	if filter.Search != "" {
		like := db.Like(filter.Search)
		where.Add("(p.name ILIKE ? OR p.sku ILIKE ?)", like, like)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	order := ` ORDER BY p.name, p.id`
	if filter.LowStock > 0 {
		order = ` ORDER BY p.quantity, p.name`
	}
	query := `SELECT ` + productColumns + productFrom + where.SQL() + order
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProduct loads a product within the optional company scope.
func (r *PGRepository) GetProduct(ctx context.Context, id int64, companyID *int64) (Product, error) {
	where := &db.Where{}
	where.Add("p.id = ?", id)
	if companyID != nil {
		where.Add("p.company_id = ?", *companyID)
	}
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+productFrom+where.SQL(), where.Args()...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

// CreateProduct inserts a product.
func (r *PGRepository) CreateProduct(ctx context.Context, p Product) (Product, error) {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return Product{}, err
	}
	err = r.db.QueryRow(ctx, `INSERT INTO products (company_id, name, category_id, brand_id, subcategory_id, sku,
		cost_price, selling_price, quantity, specs)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		p.CompanyID, p.Name, p.CategoryID, p.BrandID, p.SubcategoryID, p.SKU,
		p.CostPrice, p.SellingPrice, p.Quantity, specs).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, fmt.Errorf("sku %s already exists: %w", p.SKU, httpx.ErrConflict)
		}
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// UpdateProduct overwrites the editable columns.
func (r *PGRepository) UpdateProduct(ctx context.Context, p Product) error {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE products SET name = $1, category_id = $2, brand_id = $3, subcategory_id = $4,
		sku = NULLIF($5, ''), cost_price = $6, selling_price = $7, quantity = $8, specs = $9, updated_at = NOW()
		WHERE id = $10 AND company_id = $11`,
		p.Name, p.CategoryID, p.BrandID, p.SubcategoryID, p.SKU, p.CostPrice, p.SellingPrice, p.Quantity, specs,
		p.ID, p.CompanyID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("sku %s already exists: %w", p.SKU, httpx.ErrConflict)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", p.ID, httpx.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product within scope.
func (r *PGRepository) DeleteProduct(ctx context.Context, id int64, companyID *int64) error {
	where := &db.Where{}
	where.Add("id = ?", id)
	if companyID != nil {
		where.Add("company_id = ?", *companyID)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM products`+where.SQL(), where.Args()...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
