package supplierstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/config"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

const (
	selectSupplier  = `SELECT config FROM suppliers WHERE name = $1`
	selectSuppliers = `SELECT name FROM suppliers ORDER BY name`
)

// querier is the part of *pgxpool.Pool the store uses.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore reads supplier layouts from the suppliers table:
//
//	CREATE TABLE suppliers (
//		name   text PRIMARY KEY,
//		config jsonb NOT NULL
//	)
//
// The store never writes; the table is maintained by the same tool that
// edits supplier layouts.
type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and checks the connection.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, types.ConfigurationError("open supplier database", "%v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &types.Error{Kind: types.ErrIO, Op: "connect supplier database", Err: err}
	}
	return &PostgresStore{db: pool, pool: pool}, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, name string) (*config.SupplierConfig, error) {
	var rec record
	err := s.db.QueryRow(ctx, selectSupplier, name).Scan(&rec)
	if errors.Is(err, pgx.ErrNoRows) {
		if name == DefaultName {
			return config.DefaultSupplier(), nil
		}
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, types.ConfigurationError("decode supplier "+name, "%v", err)
		}
		return nil, &types.Error{Kind: types.ErrIO, Op: "query supplier " + name, Err: err}
	}
	return supplierFromRecord(name, rec)
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, selectSuppliers)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrIO, Op: "list suppliers", Err: err}
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &types.Error{Kind: types.ErrIO, Op: "list suppliers", Err: err}
	}
	return names, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// =============================================================================
// RECORD FORMAT
// =============================================================================

// record is the JSON stored per supplier. Indices are 0-based, as written by
// the desktop tool that shares the table.
//
//	{
//	  "price_list":      {"start_row": 2, "article_col": 0, "price_col": 4, "quantity_col": 9, "sum_col": 10},
//	  "warehouse_order": {"start_row": 2, "article_col": 0, "quantity_col": 9},
//	  "preorders":       {"start_row": 2, "article_col": 2, "article_col2": 5, "quantity_col": 4},
//	  "price_file":      null
//	}
type record struct {
	PriceList      recordLayout `json:"price_list"`
	WarehouseOrder recordLayout `json:"warehouse_order"`
	Preorders      recordLayout `json:"preorders"`
	PriceFile      *string      `json:"price_file"`
}

type recordLayout struct {
	StartRow      *int `json:"start_row"`
	ArticleCol    *int `json:"article_col"`
	ArticleCol2   *int `json:"article_col2"`
	PriceCol      *int `json:"price_col"`
	QuantityCol   *int `json:"quantity_col"`
	SumCol        *int `json:"sum_col"`
	TotalRow      *int `json:"total_row"`
	SheetIndex    int  `json:"sheet_index"`
	TotalQuantity bool `json:"total_quantity"`
}

func (r recordLayout) config() layout.Config {
	orUnset := func(p *int) int {
		if p == nil {
			return layout.Unset
		}
		return *p
	}
	return layout.Config{
		StartRowIndex:       orUnset(r.StartRow),
		CodeColumn:          orUnset(r.ArticleCol),
		QuantityColumn:      orUnset(r.QuantityCol),
		SecondaryCodeColumn: r.ArticleCol2,
		PriceColumn:         r.PriceCol,
		SumColumn:           r.SumCol,
		SheetIndex:          r.SheetIndex,
		TotalRowIndex:       r.TotalRow,
		TotalQuantity:       r.TotalQuantity,
	}
}

// check reports every stored index that is negative, or a column past the
// last sheet column. Absent keys are left for layout validation.
func (r recordLayout) check(role layout.Role) []string {
	var problems []string
	fields := []struct {
		name   string
		value  *int
		column bool
	}{
		{"start_row", r.StartRow, false},
		{"article_col", r.ArticleCol, true},
		{"article_col2", r.ArticleCol2, true},
		{"price_col", r.PriceCol, true},
		{"quantity_col", r.QuantityCol, true},
		{"sum_col", r.SumCol, true},
		{"total_row", r.TotalRow, false},
		{"sheet_index", &r.SheetIndex, false},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value < 0 {
			problems = append(problems, fmt.Sprintf("%s.%s: negative (%d)", role, f.name, *f.value))
			continue
		}
		if f.column {
			if _, err := address.IndexToColumnLetter(*f.value); err != nil {
				problems = append(problems, fmt.Sprintf("%s.%s: %v", role, f.name, err))
			}
		}
	}
	return problems
}

// supplierFromRecord converts one stored document to display form. Invalid
// indices fail here because the display form cannot hold them.
func supplierFromRecord(name string, rec record) (*config.SupplierConfig, error) {
	var problems []string
	problems = append(problems, rec.PriceList.check(layout.RolePriceList)...)
	problems = append(problems, rec.WarehouseOrder.check(layout.RoleWarehouseOrder)...)
	problems = append(problems, rec.Preorders.check(layout.RolePreorders)...)
	if len(problems) > 0 {
		return nil, types.ConfigurationError("decode supplier "+name, "%s", strings.Join(problems, "; "))
	}

	set := layout.Set{
		PriceList:      rec.PriceList.config(),
		WarehouseOrder: rec.WarehouseOrder.config(),
		Preorders:      rec.Preorders.config(),
	}
	template := ""
	if rec.PriceFile != nil {
		template = *rec.PriceFile
	}
	return config.NewSupplierConfig(name, template, set), nil
}
