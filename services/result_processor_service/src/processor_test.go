package resultprocessor

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRows(n int) []Row {
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{
			"product_id":    i,
			"product_name":  "onion",
			"platform_name": "blinkit",
			"current_price": float64(20 + i),
			"is_available":  true,
		}
	}
	return rows
}

func TestRequiredSampleSizeWithinPopulation(t *testing.T) {
	cfg := DefaultSamplingConfig()
	assert.Equal(t, 50, cfg.RequiredSampleSize(50))
}

func TestRequiredSampleSizeCapsAtConfiguredMax(t *testing.T) {
	cfg := SamplingConfig{SampleSize: 100, ConfidenceLevel: 0.95, MarginOfError: 0.05}
	got := cfg.RequiredSampleSize(100000)
	assert.LessOrEqual(t, got, 100)
	assert.Greater(t, got, 0)
}

func TestApplySamplingNoopBelowThreshold(t *testing.T) {
	rows := sampleRows(5)
	out, meta := applySampling(rows, DefaultSamplingConfig(), rand.New(rand.NewSource(1)))
	assert.Len(t, out, 5)
	assert.False(t, meta.Sampled)
}

func TestApplySamplingRandomReducesSize(t *testing.T) {
	rows := sampleRows(5000)
	cfg := SamplingConfig{Method: SamplingRandom, SampleSize: 200, ConfidenceLevel: 0.95, MarginOfError: 0.05}
	out, meta := applySampling(rows, cfg, rand.New(rand.NewSource(1)))
	assert.True(t, meta.Sampled)
	assert.LessOrEqual(t, len(out), 200)
}

func TestApplySamplingTopN(t *testing.T) {
	rows := sampleRows(5000)
	cfg := SamplingConfig{Method: SamplingTopN, SampleSize: 10, ConfidenceLevel: 0.95, MarginOfError: 0.05}
	out, _ := applySampling(rows, cfg, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0, out[0]["product_id"])
}

func TestApplySamplingStratifiedRespectsProportions(t *testing.T) {
	rows := make([]Row, 0, 100)
	for i := 0; i < 80; i++ {
		rows = append(rows, Row{"platform_name": "blinkit", "current_price": 10.0})
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, Row{"platform_name": "zepto", "current_price": 10.0})
	}
	cfg := SamplingConfig{Method: SamplingStratified, StratifyBy: "platform_name", SampleSize: 30, ConfidenceLevel: 0.95, MarginOfError: 0.05}
	out, meta := applySampling(rows, cfg, rand.New(rand.NewSource(1)))
	assert.True(t, meta.Sampled)
	assert.NotEmpty(t, out)
}

func TestApplyPaginationComputesWindow(t *testing.T) {
	rows := sampleRows(45)
	page, meta := applyPagination(rows, NewPaginationConfig(2, 20))
	assert.Len(t, page, 20)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrevious)
}

func TestApplyPaginationLastPagePartial(t *testing.T) {
	rows := sampleRows(45)
	page, meta := applyPagination(rows, NewPaginationConfig(3, 20))
	assert.Len(t, page, 5)
	assert.False(t, meta.HasNext)
}

func TestNewPaginationConfigClampsPageSize(t *testing.T) {
	cfg := NewPaginationConfig(0, 500)
	assert.Equal(t, 1, cfg.Page)
	assert.Equal(t, 100, cfg.PageSize)
}

func TestFormatStructuredComputesSavings(t *testing.T) {
	rows := []Row{{
		"product_id": 1, "product_name": "onion", "platform_name": "blinkit",
		"current_price": 18.0, "original_price": 20.0, "is_available": true,
	}}
	out := formatStructured(rows)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Savings)
	assert.InDelta(t, 2.0, *out[0].Savings, 1e-9)
}

func TestFormatSummaryComputesStats(t *testing.T) {
	rows := sampleRows(10)
	out := formatSummary(rows)
	require.Len(t, out, 1)
	assert.Equal(t, 10, out[0].TotalResults)
	assert.Equal(t, 1, out[0].UniquePlatforms)
}

func TestFormatSummaryEmptyResults(t *testing.T) {
	out := formatSummary(nil)
	assert.Equal(t, "No results found", out[0].Summary)
}

func TestFormatComparisonGroupsByProduct(t *testing.T) {
	rows := []Row{
		{"product_name": "onion", "platform_name": "blinkit", "current_price": 25.0, "is_available": true},
		{"product_name": "onion", "platform_name": "zepto", "current_price": 22.0, "is_available": true},
	}
	out := formatComparison(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "zepto", out[0].CheapestPlatform)
	assert.Equal(t, "blinkit", out[0].MostExpensivePlatform)
}

func TestFormatChartDataBucketsPrices(t *testing.T) {
	rows := sampleRows(20)
	out := formatChartData(rows)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].PriceDistribution)
	assert.NotEmpty(t, out[0].PlatformComparison)
}

func TestCalculateDataFreshnessNoTimestamps(t *testing.T) {
	rows := sampleRows(3)
	fresh := calculateDataFreshness(rows)
	assert.Equal(t, "no_timestamps", fresh.Status)
}

func TestCalculateDataFreshnessWithTimestamps(t *testing.T) {
	rows := []Row{{"last_updated": time.Now().UTC().Add(-48 * time.Hour)}}
	fresh := calculateDataFreshness(rows)
	assert.Equal(t, "calculated", fresh.Status)
	assert.Equal(t, 1, fresh.StaleDataCount)
}

func TestCalculateQualityMetrics(t *testing.T) {
	rows := sampleRows(4)
	q := calculateQualityMetrics(rows)
	assert.Equal(t, "calculated", q.Status)
	assert.Equal(t, 100.0, q.AvailabilityRate)
}

func TestProcessResultsEndToEndNoCache(t *testing.T) {
	p := New(nil, zap.NewNop())
	rows := sampleRows(30)
	result, err := p.ProcessResults(
		context.Background(), rows, "cheapest onion",
		NewPaginationConfig(1, 10), DefaultSamplingConfig(),
		CacheConfig{Enabled: false}, FormatStructured, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, 30, result.TotalCount)
	assert.Equal(t, 10, result.Pagination.PageSize)
	assert.False(t, result.Cached)
}

func TestGenerateCacheKeyDeterministic(t *testing.T) {
	pg := NewPaginationConfig(1, 20)
	sc := DefaultSamplingConfig()
	a := generateCacheKey("query_result", "cheapest onion", pg, sc, FormatStructured)
	b := generateCacheKey("query_result", "cheapest onion", pg, sc, FormatStructured)
	assert.Equal(t, a, b)
}
