package backups

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sellapp/sellapp/internal/platform/db"
)

// Dumper streams the rows of a scope as JSON objects.
type Dumper interface {
	Dump(ctx context.Context, companyID *int64, emit func(table string, row json.RawMessage) error) error
}

type exportTable struct {
	name string
	// company filters rows to one company via $1; system loads every row.
	company string
	system  string
}

var exportTables = []exportTable{
	{
		name:    "companies",
		company: `SELECT * FROM companies WHERE id = $1`,
		system:  `SELECT * FROM companies`,
	},
	{
		name:    "users",
		company: `SELECT id, email, name, role, company_id, is_active, created_at FROM users WHERE company_id = $1`,
		system:  `SELECT id, email, name, role, company_id, is_active, created_at FROM users`,
	},
	{
		name:    "products",
		company: `SELECT * FROM products WHERE company_id = $1`,
		system:  `SELECT * FROM products`,
	},
	{
		name:    "sales",
		company: `SELECT * FROM sales WHERE company_id = $1`,
		system:  `SELECT * FROM sales`,
	},
	{
		name:    "sale_items",
		company: `SELECT i.* FROM sale_items i JOIN sales s ON s.id = i.sale_id WHERE s.company_id = $1`,
		system:  `SELECT * FROM sale_items`,
	},
	{
		name:    "sale_payments",
		company: `SELECT p.* FROM sale_payments p JOIN sales s ON s.id = p.sale_id WHERE s.company_id = $1`,
		system:  `SELECT * FROM sale_payments`,
	},
	{
		name:    "repairs",
		company: `SELECT * FROM repairs WHERE company_id = $1`,
		system:  `SELECT * FROM repairs`,
	},
	{
		name:    "swaps",
		company: `SELECT * FROM swaps WHERE company_id = $1`,
		system:  `SELECT * FROM swaps`,
	},
	{
		name:    "company_modules",
		company: `SELECT * FROM company_modules WHERE company_id = $1`,
		system:  `SELECT * FROM company_modules`,
	},
}

// PGDumper reads export tables with row_to_json.
type PGDumper struct {
	db db.DBTX
}

// NewDumper constructs a Postgres backed Dumper.
func NewDumper(conn db.DBTX) *PGDumper {
	return &PGDumper{db: conn}
}

// Dump implements Dumper.
func (d *PGDumper) Dump(ctx context.Context, companyID *int64, emit func(string, json.RawMessage) error) error {
	for _, table := range exportTables {
		query := table.system
		var args []any
		if companyID != nil {
			query = table.company
			args = append(args, *companyID)
		}
		if err := d.dumpTable(ctx, table.name, `SELECT row_to_json(t) FROM (`+query+`) t`, args, emit); err != nil {
			return err
		}
	}
	return nil
}

func (d *PGDumper) dumpTable(ctx context.Context, name, query string, args []any, emit func(string, json.RawMessage) error) error {
	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		if err := emit(name, json.RawMessage(raw)); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	return nil
}
