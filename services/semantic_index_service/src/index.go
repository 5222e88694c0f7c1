package semanticindex

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quickdeals/price-intel/common/cache"
	catalogue "github.com/quickdeals/price-intel/services/catalogue_service/src"
	"go.uber.org/zap"
)

const (
	stalenessHorizon = 24 * time.Hour
	queryCacheTTL    = 30 * time.Minute
	cacheFileVersion = 1
)

// TableEntry is the persisted per-table record: its synthesized
// description and embedding vector.
type TableEntry struct {
	Description string
	Vector      []float64
}

// ColumnEntry is the persisted per-(table,column) record.
type ColumnEntry struct {
	Description string
	Vector      []float64
}

// diskBlob is the single gob-encoded file names: "a version
// stamp, table->vector map, (table,column)->vector map".
type diskBlob struct {
	Version   int
	BuiltAt   time.Time
	Tables    map[string]TableEntry
	Columns   map[string]map[string]ColumnEntry
}

// Index is the semantic table/column index. One instance is constructed at
// startup and held in the Services aggregate.
type Index struct {
	cat      *catalogue.Catalogue
	embedder Embedder
	cache    *cache.Cache
	log      *zap.Logger
	cacheDir string

	mu      sync.RWMutex
	tables  map[string]TableEntry
	columns map[string]map[string]ColumnEntry
	builtAt time.Time

	domainHints map[string]string
}

func New(cat *catalogue.Catalogue, embedder Embedder, c *cache.Cache, log *zap.Logger, cacheDir string, domainHints map[string]string) *Index {
	return &Index{
		cat: cat, embedder: embedder, cache: c, log: log, cacheDir: cacheDir,
		tables: make(map[string]TableEntry), columns: make(map[string]map[string]ColumnEntry),
		domainHints: domainHints,
	}
}

func (idx *Index) blobPath() string {
	return filepath.Join(idx.cacheDir, "table_embeddings.gob")
}

// LoadOrBuild loads the on-disk cache if fresh, else rebuilds and persists
// it, mirroring _load_or_build_embeddings.
func (idx *Index) LoadOrBuild(ctx context.Context) error {
	if idx.isCacheValid() {
		if err := idx.loadCached(); err == nil {
			idx.log.Info("loaded cached embeddings", zap.Int("tables", len(idx.tables)))
			return nil
		}
		idx.log.Warn("embedding cache present but unreadable, rebuilding")
	}
	if err := idx.Build(ctx); err != nil {
		return err
	}
	return idx.save()
}

func (idx *Index) isCacheValid() bool {
	info, err := os.Stat(idx.blobPath())
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < stalenessHorizon
}

func (idx *Index) loadCached() error {
	raw, err := os.ReadFile(idx.blobPath())
	if err != nil {
		return err
	}
	var blob diskBlob
	dec := gob.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&blob); err != nil {
		return err
	}
	if blob.Version != cacheFileVersion {
		return fmt.Errorf("embedding cache version mismatch: got %d want %d", blob.Version, cacheFileVersion)
	}
	idx.mu.Lock()
	idx.tables = blob.Tables
	idx.columns = blob.Columns
	idx.builtAt = blob.BuiltAt
	idx.mu.Unlock()
	return nil
}

func (idx *Index) save() error {
	idx.mu.RLock()
	blob := diskBlob{
		Version: cacheFileVersion, BuiltAt: idx.builtAt,
		Tables: idx.tables, Columns: idx.columns,
	}
	idx.mu.RUnlock()

	if err := os.MkdirAll(idx.cacheDir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blob); err != nil {
		return err
	}
	return os.WriteFile(idx.blobPath(), buf.Bytes(), 0o644)
}

// Build re-synthesizes descriptions and embeddings for every table and
// column in the catalogue, mirroring _build_semantic_embeddings.
func (idx *Index) Build(ctx context.Context) error {
	tables, err := idx.cat.Tables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	allFKs, err := idx.cat.AllForeignKeys(ctx)
	if err != nil {
		return fmt.Errorf("list foreign keys: %w", err)
	}

	newTables := make(map[string]TableEntry, len(tables))
	newColumns := make(map[string]map[string]ColumnEntry, len(tables))

	for _, table := range tables {
		cols, err := idx.cat.Columns(ctx, table)
		if err != nil {
			idx.log.Error("error building embeddings for table", zap.String("table", table), zap.Error(err))
			continue
		}
		desc := idx.describeTable(table, cols, allFKs[table])
		vec, err := idx.embedder.Embed(ctx, desc)
		if err != nil {
			idx.log.Error("embedding failed for table", zap.String("table", table), zap.Error(err))
			continue
		}
		newTables[table] = TableEntry{Description: desc, Vector: normalize(vec)}

		colEntries := make(map[string]ColumnEntry, len(cols))
		for _, col := range cols {
			colDesc := idx.describeColumn(table, col.Name, col.DataType)
			colVec, err := idx.embedder.Embed(ctx, colDesc)
			if err != nil {
				continue
			}
			colEntries[col.Name] = ColumnEntry{Description: colDesc, Vector: normalize(colVec)}
		}
		newColumns[table] = colEntries
	}

	idx.mu.Lock()
	idx.tables = newTables
	idx.columns = newColumns
	idx.builtAt = time.Now().UTC()
	idx.mu.Unlock()

	idx.log.Info("built semantic embeddings", zap.Int("tables", len(newTables)))
	return nil
}

// describeTable synthesizes a sentence from the table name, its column
// semantic-type buckets, its FK relationships, and the domain hint
// dictionary,.
func (idx *Index) describeTable(table string, cols []catalogue.Column, fks []catalogue.ForeignKey) string {
	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(table, "_", " "))

	if hint, ok := idx.domainHints[table]; ok {
		sb.WriteString(": ")
		sb.WriteString(hint)
	}

	buckets := bucketColumns(cols)
	if len(buckets) > 0 {
		sb.WriteString(". Columns: ")
		sb.WriteString(strings.Join(buckets, ", "))
	}

	if len(fks) > 0 {
		var refs []string
		for _, fk := range fks {
			refs = append(refs, fmt.Sprintf("%s references %s", fk.Column, fk.ForeignTable))
		}
		sb.WriteString(". Relationships: ")
		sb.WriteString(strings.Join(refs, ", "))
	}
	return sb.String()
}

func (idx *Index) describeColumn(table, column, dataType string) string {
	return fmt.Sprintf("%s.%s is a %s column", table, column, dataType)
}

// bucketColumns groups columns into semantic-type buckets (identifier,
// monetary, temporal, textual, boolean) by name/type heuristics.
func bucketColumns(cols []catalogue.Column) []string {
	var out []string
	for _, c := range cols {
		name := strings.ToLower(c.Name)
		switch {
		case strings.HasSuffix(name, "_id") || name == "id":
			out = append(out, c.Name+" (identifier)")
		case strings.Contains(name, "price") || strings.Contains(name, "amount") || strings.Contains(name, "percentage"):
			out = append(out, c.Name+" (monetary)")
		case strings.Contains(name, "_at") || strings.Contains(name, "date") || strings.Contains(name, "time"):
			out = append(out, c.Name+" (temporal)")
		case strings.HasPrefix(name, "is_") || strings.HasPrefix(name, "has_"):
			out = append(out, c.Name+" (boolean)")
		default:
			out = append(out, c.Name+" (textual)")
		}
	}
	return out
}

// Match is one ranked relevance result.
type Match struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RelevantTables ranks every indexed table by cosine similarity to query,
// returning the top n, cached for queryCacheTTL per query text.
func (idx *Index) RelevantTables(ctx context.Context, query string, n int) ([]Match, error) {
	cacheKey := fmt.Sprintf("tables:%s:%d", query, n)
	var cached []Match
	if idx.cache != nil && idx.cache.Get(ctx, cache.NamespaceTableEmbedding, cacheKey, &cached) {
		return cached, nil
	}

	qvec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qvec = normalize(qvec)

	idx.mu.RLock()
	matches := make([]Match, 0, len(idx.tables))
	for table, entry := range idx.tables {
		matches = append(matches, Match{Name: table, Score: cosineSimilarity(qvec, entry.Vector)})
	}
	idx.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if n > 0 && n < len(matches) {
		matches = matches[:n]
	}

	if idx.cache != nil {
		idx.cache.SetTTL(ctx, cache.NamespaceTableEmbedding, cacheKey, matches, queryCacheTTL)
	}
	return matches, nil
}

// RelevantColumns ranks table's columns by similarity to query.
func (idx *Index) RelevantColumns(ctx context.Context, table, query string, n int) ([]Match, error) {
	qvec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qvec = normalize(qvec)

	idx.mu.RLock()
	cols := idx.columns[table]
	matches := make([]Match, 0, len(cols))
	for col, entry := range cols {
		matches = append(matches, Match{Name: col, Score: cosineSimilarity(qvec, entry.Vector)})
	}
	idx.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if n > 0 && n < len(matches) {
		matches = matches[:n]
	}
	return matches, nil
}

// JoinSuggestions surfaces the tables whose descriptions mention table as a
// foreign-key target, a cheap hint the planner (C) can combine with its own
// FK-graph analysis.
func (idx *Index) JoinSuggestions(table string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []string
	needle := "references " + table
	for other, entry := range idx.tables {
		if other == table {
			continue
		}
		if strings.Contains(entry.Description, needle) {
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out
}

func (idx *Index) Stale() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return time.Since(idx.builtAt) > stalenessHorizon
}
