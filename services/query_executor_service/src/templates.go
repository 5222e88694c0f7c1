package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// stepTemplate is the static shape a pattern contributes before the query
// text fills in its SQL fragment and validation query.
type stepTemplate struct {
	stepType           StepType
	description        string
	validationQuery    string
	expectedResultType string
}

var queryPatterns = map[string][]stepTemplate{
	"price_comparison": {
		{StepTableSelection, "Select relevant tables for price comparison",
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ({tables})", "rows"},
		{StepDataValidation, "Validate product exists in database",
			"SELECT COUNT(*) FROM products WHERE name ILIKE '%{product_name}%'", "rows"},
		{StepJoinValidation, "Validate table relationships for price data",
			"SELECT COUNT(*) FROM products p JOIN current_prices cp ON p.id = cp.product_id LIMIT 1", "rows"},
		{StepFilterApplication, "Apply filters for active products and platforms",
			"SELECT COUNT(*) FROM current_prices cp JOIN platforms pl ON cp.platform_id = pl.id WHERE pl.is_active = true", "rows"},
		{StepResultFormatting, "Format results for price comparison display", "", "rows"},
	},
	"discount_search": {
		{StepTableSelection, "Select tables for discount information",
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ('current_prices', 'discounts', 'products', 'platforms')", "rows"},
		{StepDataValidation, "Validate discount data availability",
			"SELECT COUNT(*) FROM current_prices WHERE discount_percentage > 0", "rows"},
		{StepFilterApplication, "Apply discount percentage filters",
			"SELECT COUNT(*) FROM current_prices WHERE discount_percentage >= {min_discount}", "rows"},
		{StepResultFormatting, "Format discount results with savings calculation", "", "rows"},
	},
	"product_search": {
		{StepTableSelection, "Select product catalog tables",
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ('products', 'product_categories', 'product_brands')", "rows"},
		{StepDataValidation, "Validate product search terms",
			"SELECT COUNT(*) FROM products WHERE name ILIKE '%{search_term}%' OR description ILIKE '%{search_term}%'", "rows"},
		{StepResultFormatting, "Format product search results", "", "rows"},
	},
}

// recoveryStrategies names candidate fixes per step type; only
// data_validation and join_validation have an automated retry wired in
// applyErrorRecovery, the rest surface as suggestions only.
var recoveryStrategies = map[StepType][]string{
	StepTableSelection: {
		"Retry with alternative table names",
		"Use semantic similarity to find related tables",
		"Fall back to core tables (products, current_prices, platforms)",
	},
	StepDataValidation: {
		"Broaden search criteria",
		"Try alternative product name variations",
		"Check for typos in product names",
	},
	StepJoinValidation: {
		"Use LEFT JOIN instead of INNER JOIN",
		"Verify foreign key relationships",
		"Try alternative join paths",
	},
	StepFilterApplication: {
		"Relax filter criteria",
		"Remove optional filters",
		"Use broader date ranges",
	},
	StepAggregation: {
		"Use simpler aggregation functions",
		"Remove complex grouping",
		"Apply LIMIT to reduce result set",
	},
	StepResultFormatting: {
		"Use basic column selection",
		"Remove complex formatting",
		"Return raw data if formatting fails",
	},
}

var knownProducts = []string{
	"onion", "onions", "tomato", "tomatoes", "potato", "potatoes",
	"apple", "apples", "banana", "bananas", "milk", "bread", "rice",
	"oil", "sugar", "salt", "flour", "dal", "pulses",
}

// analyzeQueryPattern picks which template family best fits the free-text
// query, defaulting to product_search.
func analyzeQueryPattern(query string) string {
	lower := strings.ToLower(query)
	if containsAny(lower, "cheapest", "compare", "price", "cost") {
		return "price_comparison"
	}
	if containsAny(lower, "discount", "%", "offer", "deal", "sale") {
		return "discount_search"
	}
	if containsAny(lower, "find", "search", "show", "list") {
		return "product_search"
	}
	return "product_search"
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

var conditionWords = []string{"and", "or", "but", "with", "between", "compare"}
var knownPlatforms = []string{"blinkit", "zepto", "instamart", "bigbasket", "swiggy"}

// calculateComplexityScore scores a query 1-10, mirroring
// _calculate_complexity_score's length/condition/platform/numeric factors.
func calculateComplexityScore(query string, contextSize int) int {
	score := 1
	lower := strings.ToLower(query)

	switch {
	case len(query) > 100:
		score += 2
	case len(query) > 50:
		score++
	}

	for _, w := range conditionWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, p := range knownPlatforms {
		if strings.Contains(lower, p) {
			score++
		}
	}
	if strings.ContainsAny(query, "0123456789") || strings.Contains(query, "%") {
		score++
	}
	if contextSize > 3 {
		score++
	}

	if score > 10 {
		score = 10
	}
	return score
}

// extractProductName pulls a product token out of free text, falling back
// to the word following a trigger term, then to "product".
func extractProductName(query string) string {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[strings.Trim(w, "?!.,;:")] = true
	}
	for _, p := range knownProducts {
		if present[p] {
			return p
		}
	}
	triggers := map[string]bool{"cheapest": true, "price": true, "cost": true, "find": true, "show": true}
	for i, w := range words {
		if triggers[w] && i+1 < len(words) {
			return words[i+1]
		}
	}
	return "product"
}

var percentPattern = regexp.MustCompile(`(\d+)\s*%`)
var percentWordPattern = regexp.MustCompile(`(\d+)\s*percent`)

// extractDiscountPercentage finds an explicit "N%" or "N percent" in query.
func extractDiscountPercentage(query string) float64 {
	if m := percentPattern.FindStringSubmatch(query); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	if m := percentWordPattern.FindStringSubmatch(query); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	return 0.0
}

// customizeValidationQuery fills in a template's {placeholder}s from the
// query text.
func customizeValidationQuery(template, query string) string {
	out := template
	if strings.Contains(out, "{product_name}") {
		out = strings.ReplaceAll(out, "{product_name}", extractProductName(query))
	}
	if strings.Contains(out, "{min_discount}") {
		out = strings.ReplaceAll(out, "{min_discount}", fmt.Sprintf("%g", extractDiscountPercentage(query)))
	}
	if strings.Contains(out, "{search_term}") {
		out = strings.ReplaceAll(out, "{search_term}", extractProductName(query))
	}
	if strings.Contains(out, "{tables}") {
		out = strings.ReplaceAll(out, "{tables}", "'products', 'current_prices', 'platforms'")
	}
	return out
}

// generateSQLFragment builds the SQL or comment fragment a step carries,
// mirroring _generate_sql_fragment's per-step-type branches.
func generateSQLFragment(stepType StepType, query string, relevantTables []string) string {
	switch stepType {
	case StepTableSelection:
		n := relevantTables
		if len(n) > 5 {
			n = n[:5]
		}
		return "-- Using tables: " + strings.Join(n, ", ")

	case StepDataValidation:
		return fmt.Sprintf("SELECT COUNT(*) FROM products WHERE name ILIKE '%%%s%%'", extractProductName(query))

	case StepJoinValidation:
		return `SELECT COUNT(*) FROM products p
JOIN current_prices cp ON p.id = cp.product_id
JOIN platforms pl ON cp.platform_id = pl.id
WHERE pl.is_active = true
LIMIT 1`

	case StepFilterApplication:
		lower := strings.ToLower(query)
		var filters []string
		if strings.Contains(lower, "discount") {
			filters = append(filters, "cp.discount_percentage > 0")
		}
		if strings.Contains(lower, "available") {
			filters = append(filters, "cp.is_available = true")
		}
		clause := "1=1"
		if len(filters) > 0 {
			clause = strings.Join(filters, " AND ")
		}
		return "-- Apply filters: " + clause

	case StepAggregation:
		lower := strings.ToLower(query)
		switch {
		case strings.Contains(lower, "cheapest"):
			return "ORDER BY cp.price ASC"
		case strings.Contains(lower, "expensive"):
			return "ORDER BY cp.price DESC"
		default:
			return "ORDER BY p.name ASC"
		}

	case StepResultFormatting:
		return `SELECT
    p.id as product_id,
    p.name as product_name,
    pl.name as platform_name,
    cp.price as current_price,
    cp.original_price,
    cp.discount_percentage,
    cp.is_available,
    cp.last_updated
FROM products p
JOIN current_prices cp ON p.id = cp.product_id
JOIN platforms pl ON cp.platform_id = pl.id`
	}
	return "-- SQL fragment placeholder"
}
