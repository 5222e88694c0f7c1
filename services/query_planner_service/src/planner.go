package planner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quickdeals/price-intel/common/cache"
	catalogue "github.com/quickdeals/price-intel/services/catalogue_service/src"
)

// Complexity mirrors QueryComplexity's four levels.
type Complexity string

const (
	ComplexitySimple     Complexity = "simple"
	ComplexityModerate   Complexity = "moderate"
	ComplexityComplex    Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

// JoinPath is one edge of the chosen join plan.
type JoinPath struct {
	FromTable   string  `json:"from_table"`
	ToTable     string  `json:"to_table"`
	Condition   string  `json:"condition"`
	CostEstimate float64 `json:"cost_estimate"`
	Confidence  float64 `json:"confidence"`
}

// ExecutionPlan is the planner's output, cached and consumed by the
// executor (D).
type ExecutionPlan struct {
	Tables                 []string   `json:"tables"`
	JoinOrder              []string   `json:"join_order"`
	JoinPaths              []JoinPath `json:"join_paths"`
	EstimatedCost          float64    `json:"estimated_cost"`
	Complexity             Complexity `json:"complexity"`
	OptimizationSuggestions []string   `json:"optimization_suggestions"`
	IndexRecommendations   []string   `json:"index_recommendations"`
	ExecutionTimeEstimate  float64    `json:"execution_time_estimate"`
}

const (
	baseTableScanCost      = 1.0
	joinCostMultiplier     = 2.0
	indexScanCostReduction = 0.3
)

// Planner builds execution plans from the schema catalogue's FK graph.
type Planner struct {
	cat   *catalogue.Catalogue
	cache *cache.Cache

	mu          sync.RWMutex
	tableSizes  map[string]int64
	indexedCols map[string]map[string]bool
}

func New(cat *catalogue.Catalogue, c *cache.Cache) *Planner {
	return &Planner{
		cat: cat, cache: c,
		tableSizes:  make(map[string]int64),
		indexedCols: make(map[string]map[string]bool),
	}
}

// SetTableSize lets the caller feed row-count estimates (e.g. from
// pg_stat_user_tables); tables with no estimate default to 1000, matching
// the original's `table_sizes.get(table, 1000)`.
func (p *Planner) SetTableSize(table string, rows int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tableSizes[table] = rows
}

func (p *Planner) tableSize(table string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.tableSizes[table]; ok {
		return s
	}
	return 1000
}

// BuildPlan is the planner's main entry point: given the query text and the
// tables it touches (as chosen by the semantic index, B), produce a full
// execution plan.
func (p *Planner) BuildPlan(ctx context.Context, query string, tables []string) (*ExecutionPlan, error) {
	planHash := planCacheKey(query, tables)
	if p.cache != nil {
		var cached ExecutionPlan
		if p.cache.GetExecutionPlan(ctx, planHash, &cached) {
			return &cached, nil
		}
	}

	edges, err := p.buildCandidateEdges(ctx, tables)
	if err != nil {
		return nil, err
	}

	joinPaths := p.findOptimalJoinPaths(tables, edges)
	joinOrder := p.optimizeJoinOrder(tables, joinPaths)

	var totalCost float64
	for _, jp := range joinPaths {
		totalCost += jp.CostEstimate
	}
	if len(tables) > 0 {
		totalCost += baseTableScanCost * float64(len(tables))
	}

	complexity := assessComplexity(len(tables), len(joinPaths), p.totalEstimatedRows(tables))
	suggestions := p.generateOptimizationSuggestions(query, tables, joinPaths, complexity)
	indexRecs := p.generateIndexRecommendations(tables, joinPaths)
	execTime := estimateExecutionTime(totalCost, complexity)

	plan := &ExecutionPlan{
		Tables: tables, JoinOrder: joinOrder, JoinPaths: joinPaths,
		EstimatedCost: totalCost, Complexity: complexity,
		OptimizationSuggestions: suggestions, IndexRecommendations: indexRecs,
		ExecutionTimeEstimate: execTime,
	}

	if p.cache != nil {
		p.cache.CacheExecutionPlan(ctx, planHash, plan)
	}
	return plan, nil
}

func planCacheKey(query string, tables []string) string {
	sorted := append([]string(nil), tables...)
	sort.Strings(sorted)
	return query + "|" + strings.Join(sorted, ",")
}

// buildCandidateEdges builds one Edge per FK relationship among tables,
// with the confidence-0.9 FK-based condition per _convert_edges_to_join_paths.
func (p *Planner) buildCandidateEdges(ctx context.Context, tables []string) ([]Edge, error) {
	allFKs, err := p.cat.AllForeignKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load foreign keys: %w", err)
	}
	tableSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		tableSet[t] = true
	}

	var edges []Edge
	for _, table := range tables {
		for _, fk := range allFKs[table] {
			if !tableSet[fk.ForeignTable] {
				continue
			}
			cost := p.estimateJoinCost(table, fk.ForeignTable)
			edges = append(edges, Edge{
				From: table, To: fk.ForeignTable,
				Cost:       cost,
				Condition:  fmt.Sprintf("%s.%s = %s.%s", table, fk.Column, fk.ForeignTable, fk.ForeignColumn),
				Confidence: 0.9,
			})
		}
	}
	return edges, nil
}

func (p *Planner) estimateJoinCost(a, b string) float64 {
	sizeA, sizeB := p.tableSize(a), p.tableSize(b)
	cost := float64(sizeA*sizeB) / 1_000_000

	reduction := 1.0
	if p.hasIndexedJoinColumn(a) {
		reduction *= indexScanCostReduction
	}
	if p.hasIndexedJoinColumn(b) {
		reduction *= indexScanCostReduction
	}
	cost *= reduction

	if cost < 0.1 {
		cost = 0.1
	}
	return cost
}

func (p *Planner) hasIndexedJoinColumn(table string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.indexedCols[table]) > 0
}

// findOptimalJoinPaths builds an MST per connected component among tables,
// joining components the FK graph leaves disconnected sequentially on
// id=id (confidence 0.5); no common column name is looked for first. Mirrors
// _find_optimal_join_paths/_create_sequential_joins/_find_join_condition.
func (p *Planner) findOptimalJoinPaths(tables []string, edges []Edge) []JoinPath {
	if len(tables) <= 1 {
		return nil
	}

	components := connectedComponents(tables, edges)
	var mst []Edge
	for _, comp := range components {
		if len(comp) <= 1 {
			continue
		}
		compEdges := edgesWithin(edges, comp)
		mst = append(mst, minimumSpanningForest(comp, compEdges)...)
	}

	if len(components) > 1 {
		mst = append(mst, p.bridgeComponents(components)...)
	}

	paths := make([]JoinPath, 0, len(mst))
	for _, e := range mst {
		paths = append(paths, JoinPath{
			FromTable: e.From, ToTable: e.To, Condition: e.Condition,
			CostEstimate: e.Cost, Confidence: e.Confidence,
		})
	}
	return paths
}

func edgesWithin(edges []Edge, nodes []string) []Edge {
	set := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	var out []Edge
	for _, e := range edges {
		if set[e.From] && set[e.To] {
			out = append(out, e)
		}
	}
	return out
}

// bridgeComponents connects every disconnected component sequentially with
// a fallback join condition, since _create_sequential_joins does this for
// the whole table list when no graph-based path exists at all.
func (p *Planner) bridgeComponents(components [][]string) []Edge {
	if len(components) <= 1 {
		return nil
	}
	var bridges []Edge
	for i := 0; i < len(components)-1; i++ {
		t1, t2 := components[i][0], components[i+1][0]
		bridges = append(bridges, Edge{
			From: t1, To: t2,
			Cost:       p.estimateJoinCost(t1, t2),
			Condition:  fallbackJoinCondition(t1, t2),
			Confidence: 0.5,
		})
	}
	return bridges
}

// fallbackJoinCondition is the id=id join condition bridgeComponents uses
// between tables with no FK path; common columns are not checked.
func fallbackJoinCondition(t1, t2 string) string {
	return fmt.Sprintf("%s.id = %s.id", t1, t2)
}

// optimizeJoinOrder greedily orders tables smallest-first, then by lowest
// join cost to the already-ordered set, mirroring _optimize_join_order.
func (p *Planner) optimizeJoinOrder(tables []string, joinPaths []JoinPath) []string {
	if len(tables) <= 2 {
		return tables
	}

	sorted := append([]string(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return p.tableSize(sorted[i]) < p.tableSize(sorted[j]) })

	ordered := []string{sorted[0]}
	remaining := make(map[string]bool)
	for _, t := range sorted[1:] {
		remaining[t] = true
	}

	for len(remaining) > 0 {
		var best string
		bestCost := -1.0
		for t := range remaining {
			minCost := -1.0
			for _, o := range ordered {
				for _, jp := range joinPaths {
					if (jp.FromTable == t && jp.ToTable == o) || (jp.FromTable == o && jp.ToTable == t) {
						if minCost < 0 || jp.CostEstimate < minCost {
							minCost = jp.CostEstimate
						}
					}
				}
			}
			if minCost >= 0 && (bestCost < 0 || minCost < bestCost) {
				bestCost = minCost
				best = t
			}
		}
		if best == "" {
			var rest []string
			for t := range remaining {
				rest = append(rest, t)
			}
			sort.Slice(rest, func(i, j int) bool { return p.tableSize(rest[i]) < p.tableSize(rest[j]) })
			ordered = append(ordered, rest...)
			break
		}
		ordered = append(ordered, best)
		delete(remaining, best)
	}
	return ordered
}

func (p *Planner) totalEstimatedRows(tables []string) int64 {
	var total int64
	for _, t := range tables {
		total += p.tableSize(t)
	}
	return total
}

// assessComplexity scores num tables/joins/rows and maps to a bucket,
// thresholds taken verbatim from _assess_query_complexity.
func assessComplexity(numTables, numJoins int, totalRows int64) Complexity {
	score := 0

	switch {
	case numTables <= 1:
		score += 1
	case numTables <= 2:
		score += 2
	case numTables <= 4:
		score += 3
	case numTables <= 6:
		score += 4
	default:
		score += 5
	}

	switch {
	case numJoins == 0:
		score += 1
	case numJoins <= 2:
		score += 2
	case numJoins <= 4:
		score += 3
	case numJoins <= 6:
		score += 4
	default:
		score += 5
	}

	switch {
	case totalRows <= 10000:
		score += 1
	case totalRows <= 100000:
		score += 2
	case totalRows <= 1000000:
		score += 3
	default:
		score += 4
	}

	switch {
	case score <= 4:
		return ComplexitySimple
	case score <= 7:
		return ComplexityModerate
	case score <= 11:
		return ComplexityComplex
	default:
		return ComplexityVeryComplex
	}
}

func estimateExecutionTime(cost float64, complexity Complexity) float64 {
	base := 0.1
	multiplier := map[Complexity]float64{
		ComplexitySimple: 1.0, ComplexityModerate: 1.5,
		ComplexityComplex: 2.5, ComplexityVeryComplex: 4.0,
	}[complexity]
	return (base + cost*0.01) * multiplier
}

// generateOptimizationSuggestions mirrors _generate_optimization_suggestions,
// capped to 8 entries.
func (p *Planner) generateOptimizationSuggestions(query string, tables []string, joinPaths []JoinPath, complexity Complexity) []string {
	var suggestions []string

	if complexity == ComplexityVeryComplex {
		suggestions = append(suggestions,
			"Consider breaking this query into smaller sub-queries",
			"Use LIMIT clause to restrict result set size")
	}
	if complexity == ComplexityComplex || complexity == ComplexityVeryComplex {
		suggestions = append(suggestions,
			"Consider adding appropriate WHERE clauses to filter data early",
			"Review if all joined tables are necessary for the result")
	}

	var highCost int
	var lowConfidence bool
	for _, jp := range joinPaths {
		if jp.CostEstimate > 10.0 {
			highCost++
		}
		if jp.Confidence < 0.7 {
			lowConfidence = true
		}
	}
	if highCost > 0 {
		suggestions = append(suggestions, fmt.Sprintf("High-cost joins detected on %d table pairs - consider adding indexes", highCost))
	}
	if lowConfidence {
		suggestions = append(suggestions, "Some joins may not be optimal - verify join conditions are correct")
	}

	var largeTables []string
	for _, t := range tables {
		if p.tableSize(t) > 100000 {
			largeTables = append(largeTables, t)
		}
	}
	if len(largeTables) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Large tables detected: %s - ensure proper indexing", strings.Join(largeTables, ", ")))
	}

	lowerQuery := strings.ToLower(query)
	if strings.Contains(lowerQuery, "price") && containsTable(tables, "current_prices") {
		suggestions = append(suggestions, "For price queries, consider filtering by date range to improve performance")
	}
	if strings.Contains(lowerQuery, "discount") {
		suggestions = append(suggestions, "Filter for active discounts only (is_active = true) to reduce result set")
	}
	if len(tables) > 5 {
		suggestions = append(suggestions, "Consider using materialized views for frequently accessed multi-table queries")
	}

	if len(suggestions) > 8 {
		suggestions = suggestions[:8]
	}
	return suggestions
}

func containsTable(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}

// generateIndexRecommendations inspects join conditions for un-indexed
// join columns, mirroring _generate_index_recommendations, capped to 5.
func (p *Planner) generateIndexRecommendations(tables []string, joinPaths []JoinPath) []string {
	joinColumns := make(map[string]map[string]bool)
	for _, jp := range joinPaths {
		for _, side := range strings.Split(jp.Condition, "=") {
			side = strings.TrimSpace(side)
			if !strings.Contains(side, ".") {
				continue
			}
			parts := strings.SplitN(side, ".", 2)
			table, col := parts[0], parts[1]
			if joinColumns[table] == nil {
				joinColumns[table] = make(map[string]bool)
			}
			joinColumns[table][col] = true
		}
	}

	var recs []string
	for table, cols := range joinColumns {
		indexed := p.indexedColumnsFor(table)
		for col := range cols {
			if !indexed[col] {
				recs = append(recs, fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", table, col, table, col))
			}
		}
		if len(cols) > 1 {
			var list []string
			for col := range cols {
				list = append(list, col)
			}
			sort.Strings(list)
			recs = append(recs, fmt.Sprintf("CREATE INDEX idx_%s_composite ON %s(%s)", table, table, strings.Join(list, ", ")))
		}
	}

	sort.Strings(recs)
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}

func (p *Planner) indexedColumnsFor(table string) map[string]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexedCols[table]
}

// SetIndexedColumns lets the caller seed known-indexed columns per table
// (e.g. from pg_indexes), informing both cost estimation and index recs.
func (p *Planner) SetIndexedColumns(table string, columns []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	p.indexedCols[table] = set
}
