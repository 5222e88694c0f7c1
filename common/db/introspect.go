package db

import (
	"context"
	"fmt"

	_ "github.com/lib/pq"
)

// ColumnInfo describes one information_schema.columns row, the shape the
// catalogue service (A) needs and GORM's model-driven API can't produce
// without a concrete struct to scan into, so this goes through database/sql
// directly via the lib/pq driver already loaded for its side effects.
type ColumnInfo struct {
	TableName  string
	ColumnName string
	DataType   string
	IsNullable bool
}

// ForeignKeyInfo describes one foreign-key constraint.
type ForeignKeyInfo struct {
	TableName        string
	ColumnName       string
	ForeignTableName string
	ForeignColumn    string
}

// ListTables returns every base table in the public schema.
func (d *DB) ListTables(ctx context.Context) ([]string, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ListColumns returns column metadata for every table in the public schema.
func (d *DB) ListColumns(ctx context.Context) ([]ColumnInfo, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public'
		ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.DataType, &c.IsNullable); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ListForeignKeys returns every FK constraint in the public schema, the
// graph edges the join planner (C) builds its MST over.
func (d *DB) ListForeignKeys(ctx context.Context) ([]ForeignKeyInfo, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	rows, err := sqlDB.QueryContext(ctx, `
		SELECT
			tc.table_name, kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public'`)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKeyInfo
	for rows.Next() {
		var f ForeignKeyInfo
		if err := rows.Scan(&f.TableName, &f.ColumnName, &f.ForeignTableName, &f.ForeignColumn); err != nil {
			return nil, err
		}
		fks = append(fks, f)
	}
	return fks, rows.Err()
}
