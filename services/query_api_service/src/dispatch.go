package queryapi

import (
	"context"
	"regexp"
	"strings"

	executor "github.com/quickdeals/price-intel/services/query_executor_service/src"
	semanticindex "github.com/quickdeals/price-intel/services/semantic_index_service/src"
	"go.uber.org/zap"
)

// samplePattern is one of the four showcase query shapes,
// matched by keyword before anything reaches the multi-step executor.
type samplePattern string

const (
	patternCheapest    samplePattern = "cheapest_product"
	patternDiscount    samplePattern = "discount_search"
	patternComparison  samplePattern = "price_comparison"
	patternBudget      samplePattern = "budget_optimization"
	patternNone        samplePattern = ""
)

var comparisonPattern = regexp.MustCompile(`\bcompare\b|\bbetween\b.*\band\b`)
var budgetPattern = regexp.MustCompile(`₹|rs\.?\s*\d|rupees?|budget|grocery list`)

// matchSamplePattern decides which of the four fast paths, if any, a query
// matches. Comparison and budget keywords are checked first since they are
// the most specific; cheapest and discount share "price"-ish vocabulary.
func matchSamplePattern(query string) samplePattern {
	lower := strings.ToLower(query)
	switch {
	case comparisonPattern.MatchString(lower):
		return patternComparison
	case budgetPattern.MatchString(lower):
		return patternBudget
	case strings.Contains(lower, "discount") || strings.Contains(lower, "% off") || strings.Contains(lower, "percent off"):
		return patternDiscount
	case strings.Contains(lower, "cheapest") || strings.Contains(lower, "which app") || strings.Contains(lower, "which platform"):
		return patternCheapest
	default:
		return patternNone
	}
}

// Dispatcher implements a single precedence table: sample handlers first
// by keyword match, the multi-step executor otherwise, and sample handlers
// again as a fallback when the executor aborts.
type Dispatcher struct {
	samples  *SampleQueryHandlers
	executor *executor.Processor
	index    *semanticindex.Index
	log      *zap.Logger
}

func NewDispatcher(samples *SampleQueryHandlers, exec *executor.Processor, index *semanticindex.Index, log *zap.Logger) *Dispatcher {
	return &Dispatcher{samples: samples, executor: exec, index: index, log: log}
}

// DispatchOutcome carries the dispatched results plus the bookkeeping the
// HTTP layer needs to shape its response.
type DispatchOutcome struct {
	Results        []QueryResult
	RelevantTables []string
	Suggestions    []string
	UsedSamplePath bool
	UsedFallback   bool
}

func (d *Dispatcher) Dispatch(ctx context.Context, query string, queryContext map[string]interface{}) (*DispatchOutcome, error) {
	if pattern := matchSamplePattern(query); pattern != patternNone {
		results, err := d.runSample(ctx, pattern, query)
		if err == nil && results != nil {
			return &DispatchOutcome{Results: results, RelevantTables: d.relevantTables(ctx, query), UsedSamplePath: true}, nil
		}
		d.log.Info("sample handler matched but returned nothing, falling through to executor",
			zap.String("pattern", string(pattern)))
	}

	plan, err := d.executor.CreateExecutionPlan(ctx, query, queryContext)
	if err != nil {
		return d.fallbackToSamples(ctx, query, err)
	}

	result, err := d.executor.Execute(ctx, plan)
	if err != nil || !result.Success {
		return d.fallbackToSamples(ctx, query, err)
	}

	return &DispatchOutcome{
		Results:        extractExecutorResults(result.FinalResult),
		RelevantTables: plan.RelevantTables,
		Suggestions:    result.Suggestions,
	}, nil
}

// fallbackToSamples runs every sample pattern against the query in turn
// when the executor can't produce a usable result, per this service's
// "fallback when the multi-step executor fails" contract.
func (d *Dispatcher) fallbackToSamples(ctx context.Context, query string, cause error) (*DispatchOutcome, error) {
	if cause != nil {
		d.log.Warn("executor failed, falling back to sample handlers", zap.Error(cause))
	}
	for _, pattern := range []samplePattern{patternCheapest, patternDiscount, patternComparison, patternBudget} {
		results, err := d.runSample(ctx, pattern, query)
		if err == nil && len(results) > 0 {
			return &DispatchOutcome{Results: results, RelevantTables: d.relevantTables(ctx, query), UsedSamplePath: true, UsedFallback: true}, nil
		}
	}
	return &DispatchOutcome{Results: nil, UsedFallback: true}, nil
}

// relevantTables best-efforts a table ranking for sample-handler responses
// so callers get the same relevant_tables field the executor path fills in.
// The semantic index is advisory here: a lookup failure never fails the
// request, since the sample handlers already know which tables they hit.
func (d *Dispatcher) relevantTables(ctx context.Context, query string) []string {
	if d.index == nil {
		return nil
	}
	matches, err := d.index.RelevantTables(ctx, query, 3)
	if err != nil {
		return nil
	}
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m.Name)
	}
	return tables
}

func (d *Dispatcher) runSample(ctx context.Context, pattern samplePattern, query string) ([]QueryResult, error) {
	switch pattern {
	case patternCheapest:
		return d.samples.HandleCheapestProduct(ctx, query)
	case patternDiscount:
		return d.samples.HandleDiscountSearch(ctx, query)
	case patternComparison:
		return d.samples.HandlePriceComparison(ctx, query)
	case patternBudget:
		return d.samples.HandleBudgetOptimization(ctx, query)
	default:
		return nil, nil
	}
}

// extractExecutorResults adapts the executor's loosely-typed aggregate
// result into the QueryResult shape the HTTP layer returns. The aggregate is
// either the "formatted_results" rows themselves or a map carrying them
// under that key; the rows come back as maps from a generic SQL scan, so
// fields are pulled defensively.
func extractExecutorResults(final interface{}) []QueryResult {
	rows, ok := final.([]map[string]interface{})
	if !ok {
		m, isMap := final.(map[string]interface{})
		if !isMap {
			return nil
		}
		if rows, ok = m["formatted_results"].([]map[string]interface{}); !ok {
			return nil
		}
	}
	out := make([]QueryResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, QueryResult{
			ProductID:          toUint(r["product_id"]),
			ProductName:        toStr(r["product_name"]),
			PlatformName:       toStr(r["platform_name"]),
			CurrentPrice:       toF64(r["current_price"]),
			OriginalPrice:      toF64Ptr(r["original_price"]),
			DiscountPercentage: toF64Ptr(r["discount_percentage"]),
			IsAvailable:        toBool(r["is_available"]),
		})
	}
	return out
}
