package queryapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProductNameKnownProduct(t *testing.T) {
	assert.Equal(t, "onion", extractProductName("Which app has cheapest onion right now?"))
}

func TestExtractProductNameTriggerWord(t *testing.T) {
	assert.Equal(t, "turmeric", extractProductName("find turmeric on blinkit"))
}

func TestExtractPlatformName(t *testing.T) {
	assert.Equal(t, "blinkit", extractPlatformName("show deals on grofers"))
	assert.Equal(t, "", extractPlatformName("show deals"))
}

func TestExtractPlatformsForComparison(t *testing.T) {
	platforms := extractPlatformsForComparison("compare onion between blinkit and zepto")
	assert.ElementsMatch(t, []string{"blinkit", "zepto"}, platforms)
}

func TestExtractDiscountPercentage(t *testing.T) {
	assert.Equal(t, 30.0, extractDiscountPercentage("show 30% discount items"))
	assert.Equal(t, 0.0, extractDiscountPercentage("show discounted items"))
}

func TestExtractBudgetAmountRupeeSymbol(t *testing.T) {
	assert.Equal(t, 1000.0, extractBudgetAmount("best deals for ₹1,000 grocery list"))
}

func TestExtractBudgetAmountRupeesWord(t *testing.T) {
	assert.Equal(t, 500.0, extractBudgetAmount("best deals for 500 rupees"))
}

func TestProductVariationsIncludesPlural(t *testing.T) {
	variations := productVariations("banana")
	assert.Contains(t, variations, "bananas")
}

func TestOptimizeGrocerySelectionRespectsBudgetAndCategoryCap(t *testing.T) {
	discount := 20.0
	rows := []sampleRow{
		{ID: 1, Price: 50, DiscountPercentage: &discount, CategoryName: "vegetables"},
		{ID: 2, Price: 50, DiscountPercentage: &discount, CategoryName: "vegetables"},
		{ID: 3, Price: 50, DiscountPercentage: &discount, CategoryName: "vegetables"},
		{ID: 4, Price: 50, DiscountPercentage: &discount, CategoryName: "vegetables"},
	}
	selected := optimizeGrocerySelection(rows, 500)
	assert.LessOrEqual(t, len(selected), 3)
}

func TestOptimizeGrocerySelectionStopsAtBudget(t *testing.T) {
	rows := []sampleRow{
		{ID: 1, Price: 90, CategoryName: "dairy"},
		{ID: 2, Price: 90, CategoryName: "grains"},
	}
	selected := optimizeGrocerySelection(rows, 100)
	assert.Len(t, selected, 1)
}

func TestValueScorePrefersHigherDiscountLowerPrice(t *testing.T) {
	d1, d2 := 40.0, 5.0
	cheap := sampleRow{Price: 10, DiscountPercentage: &d1}
	expensive := sampleRow{Price: 100, DiscountPercentage: &d2}
	assert.Greater(t, valueScore(cheap), valueScore(expensive))
}
