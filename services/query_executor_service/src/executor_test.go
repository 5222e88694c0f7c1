package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeQueryPatternBuckets(t *testing.T) {
	assert.Equal(t, "price_comparison", analyzeQueryPattern("what is the cheapest onion"))
	assert.Equal(t, "discount_search", analyzeQueryPattern("show me today's discount deals"))
	assert.Equal(t, "product_search", analyzeQueryPattern("find organic apples"))
	assert.Equal(t, "product_search", analyzeQueryPattern("hello there"))
}

func TestCalculateComplexityScoreCapsAtTen(t *testing.T) {
	long := "compare cheapest onion and tomato with discount between blinkit and zepto and instamart and bigbasket 20% off " +
		"more text to push this query past one hundred characters in length for the scoring function"
	score := calculateComplexityScore(long, 5)
	assert.Equal(t, 10, score)
}

func TestCalculateComplexityScoreSimpleQuery(t *testing.T) {
	assert.Equal(t, 1, calculateComplexityScore("milk", 0))
}

func TestExtractProductNameKnownWord(t *testing.T) {
	assert.Equal(t, "onion", extractProductName("what is the cheapest onion right now"))
}

func TestExtractProductNameFallsBackToTrigger(t *testing.T) {
	assert.Equal(t, "ghee", extractProductName("show ghee prices"))
}

func TestExtractProductNameDefaultsToProduct(t *testing.T) {
	assert.Equal(t, "product", extractProductName("hello there"))
}

func TestExtractDiscountPercentage(t *testing.T) {
	assert.Equal(t, 20.0, extractDiscountPercentage("show me 20% discount items"))
	assert.Equal(t, 15.0, extractDiscountPercentage("give me 15 percent off"))
	assert.Equal(t, 0.0, extractDiscountPercentage("no numbers here"))
}

func TestCustomizeValidationQueryFillsPlaceholders(t *testing.T) {
	out := customizeValidationQuery("SELECT COUNT(*) FROM products WHERE name ILIKE '%{product_name}%'", "cheapest onion")
	assert.Contains(t, out, "onion")
	assert.NotContains(t, out, "{product_name}")
}

func TestBuildStepsAddsDependenciesInOrder(t *testing.T) {
	steps := buildSteps("price_comparison", "cheapest onion", []string{"products", "current_prices"}, 3)
	assert.Len(t, steps, 5)
	assert.Empty(t, steps[0].Dependencies)
	assert.Equal(t, []string{steps[0].ID}, steps[1].Dependencies)
}

func TestBuildStepsAddsSamplingStepForHighComplexity(t *testing.T) {
	steps := buildSteps("product_search", "find apples", nil, 9)
	last := steps[len(steps)-1]
	assert.Contains(t, last.ID, "sampling")
	assert.Equal(t, 15e9, float64(last.Timeout))
}

func TestDependenciesSatisfied(t *testing.T) {
	step := &Step{ID: "b", Dependencies: []string{"a"}}
	assert.False(t, dependenciesSatisfied(step, nil))
	assert.True(t, dependenciesSatisfied(step, []StepResult{{StepID: "a", Success: true}}))
	assert.False(t, dependenciesSatisfied(step, []StepResult{{StepID: "a", Success: false}}))
}

func TestAggregateStepResultsPrefersFormattedResults(t *testing.T) {
	results := []StepResult{
		{StepID: "s1", Success: true, Result: map[string]interface{}{"validation_count": int64(3)}},
		{StepID: "s2", Success: true, Result: map[string]interface{}{"formatted_results": []map[string]interface{}{{"id": 1}}}},
	}
	out := aggregateStepResults(results)
	rows, ok := out.([]map[string]interface{})
	assert.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestAggregateStepResultsFallsBackToValidationCount(t *testing.T) {
	results := []StepResult{{StepID: "s1", Success: true, Result: map[string]interface{}{"validation_count": int64(4)}}}
	out := aggregateStepResults(results)
	m, ok := out.(map[string]interface{})
	assert.True(t, ok)
	assert.Contains(t, m["message"], "4")
}

func TestAggregateStepResultsDefaultMessage(t *testing.T) {
	out := aggregateStepResults(nil)
	m := out.(map[string]interface{})
	assert.Equal(t, "Query executed but no results available", m["message"])
}

func TestGenerateExecutionSuggestionsCapsAtFive(t *testing.T) {
	var results []StepResult
	for i := 0; i < 4; i++ {
		results = append(results, StepResult{StepID: "x", Success: false, Suggestions: []string{"a", "b", "c"}})
	}
	plan := &Plan{ComplexityScore: 9, Steps: make([]*Step, 6)}
	suggestions := generateExecutionSuggestions(results, plan)
	assert.LessOrEqual(t, len(suggestions), 5)
}

func TestCriticalStepsAbortOnlyTableSelectionAndDataValidation(t *testing.T) {
	assert.True(t, criticalSteps[StepTableSelection])
	assert.True(t, criticalSteps[StepDataValidation])
	assert.False(t, criticalSteps[StepJoinValidation])
	assert.False(t, criticalSteps[StepFilterApplication])
	assert.False(t, criticalSteps[StepAggregation])
	assert.False(t, criticalSteps[StepResultFormatting])
}
