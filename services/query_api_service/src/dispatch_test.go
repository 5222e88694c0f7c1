package queryapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSamplePatternComparison(t *testing.T) {
	assert.Equal(t, patternComparison, matchSamplePattern("compare onion prices between blinkit and zepto"))
}

func TestMatchSamplePatternBudget(t *testing.T) {
	assert.Equal(t, patternBudget, matchSamplePattern("find best deals for ₹1000 grocery list"))
}

func TestMatchSamplePatternDiscount(t *testing.T) {
	assert.Equal(t, patternDiscount, matchSamplePattern("show products with 30% discount on zepto"))
}

func TestMatchSamplePatternCheapest(t *testing.T) {
	assert.Equal(t, patternCheapest, matchSamplePattern("which app has cheapest onion right now?"))
}

func TestMatchSamplePatternNoneForUnrelatedQuery(t *testing.T) {
	assert.Equal(t, patternNone, matchSamplePattern("list all products in the dairy category"))
}

func TestExtractExecutorResultsParsesFormattedRows(t *testing.T) {
	final := map[string]interface{}{
		"formatted_results": []map[string]interface{}{
			{"product_id": int64(1), "product_name": "onion", "platform_name": "blinkit", "current_price": 25.5, "is_available": true},
		},
	}
	results := extractExecutorResults(final)
	assert.Len(t, results, 1)
	assert.Equal(t, "onion", results[0].ProductName)
	assert.Equal(t, 25.5, results[0].CurrentPrice)
}

func TestExtractExecutorResultsHandlesMissingKey(t *testing.T) {
	assert.Nil(t, extractExecutorResults(map[string]interface{}{"validation_count": int64(0)}))
}
