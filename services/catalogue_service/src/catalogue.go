// Package catalogue implements the schema catalogue: a thin,
// cached view over information_schema so the planner and semantic indexer
// never issue introspection queries directly.
package catalogue

import (
	"context"
	"sync"

	"github.com/quickdeals/price-intel/common/db"
	"go.uber.org/zap"
)

// Column mirrors db.ColumnInfo but scoped to a single table for callers
// that already know which table they want.
type Column struct {
	Name     string
	DataType string
	Nullable bool
}

// ForeignKey describes an outgoing FK from a table/column pair.
type ForeignKey struct {
	Column        string
	ForeignTable  string
	ForeignColumn string
}

// Catalogue caches the database's structural metadata in memory, refreshed
// on demand rather than per-call.
type Catalogue struct {
	db  *db.DB
	log *zap.Logger

	mu      sync.RWMutex
	tables  []string
	columns map[string][]Column
	fks     map[string][]ForeignKey
}

func New(database *db.DB, log *zap.Logger) *Catalogue {
	return &Catalogue{
		db:      database,
		log:     log,
		columns: make(map[string][]Column),
		fks:     make(map[string][]ForeignKey),
	}
}

// Refresh re-runs introspection and replaces the cached snapshot atomically.
func (c *Catalogue) Refresh(ctx context.Context) error {
	tables, err := c.db.ListTables(ctx)
	if err != nil {
		return err
	}
	rawCols, err := c.db.ListColumns(ctx)
	if err != nil {
		return err
	}
	rawFKs, err := c.db.ListForeignKeys(ctx)
	if err != nil {
		return err
	}

	columns := make(map[string][]Column)
	for _, rc := range rawCols {
		columns[rc.TableName] = append(columns[rc.TableName], Column{
			Name:     rc.ColumnName,
			DataType: rc.DataType,
			Nullable: rc.IsNullable,
		})
	}
	fks := make(map[string][]ForeignKey)
	for _, rf := range rawFKs {
		fks[rf.TableName] = append(fks[rf.TableName], ForeignKey{
			Column:        rf.ColumnName,
			ForeignTable:  rf.ForeignTableName,
			ForeignColumn: rf.ForeignColumn,
		})
	}

	c.mu.Lock()
	c.tables = tables
	c.columns = columns
	c.fks = fks
	c.mu.Unlock()

	c.log.Info("catalogue refreshed", zap.Int("tables", len(tables)))
	return nil
}

// Tables returns every known base table, introspecting once lazily if the
// cache has never been populated.
func (c *Catalogue) Tables(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	cached := c.tables
	c.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables, nil
}

// Columns returns the column list for table, refreshing lazily on first use.
func (c *Catalogue) Columns(ctx context.Context, table string) ([]Column, error) {
	if _, err := c.Tables(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.columns[table], nil
}

// ForeignKeys returns table's outgoing foreign keys.
func (c *Catalogue) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	if _, err := c.Tables(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fks[table], nil
}

// AllForeignKeys returns the full FK map, used by the query planner (C) to
// build its join graph in one call instead of per-table round trips.
func (c *Catalogue) AllForeignKeys(ctx context.Context) (map[string][]ForeignKey, error) {
	if _, err := c.Tables(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]ForeignKey, len(c.fks))
	for k, v := range c.fks {
		out[k] = v
	}
	return out, nil
}
