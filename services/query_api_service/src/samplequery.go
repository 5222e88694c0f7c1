package queryapi

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quickdeals/price-intel/common/db"
	"go.uber.org/zap"
)

// commonProducts maps a canonical product to the name variations a shopper
// might type, mirroring SampleQueryHandlers.common_products.
var commonProducts = map[string][]string{
	"onions":   {"onion", "onions", "red onion", "white onion", "yellow onion"},
	"tomatoes": {"tomato", "tomatoes", "cherry tomato", "roma tomato"},
	"potatoes": {"potato", "potatoes", "aloo"},
	"apples":   {"apple", "apples", "red apple", "green apple"},
	"bananas":  {"banana", "bananas", "kela"},
	"milk":     {"milk", "dairy milk", "toned milk", "full cream milk"},
	"bread":    {"bread", "white bread", "brown bread", "whole wheat bread"},
	"rice":     {"rice", "basmati rice", "jasmine rice", "brown rice"},
	"fruits":   {"apple", "banana", "orange", "mango", "grapes", "strawberry", "kiwi", "pineapple"},
}

var platformMappings = map[string][]string{
	"blinkit":   {"blinkit", "grofers"},
	"zepto":     {"zepto"},
	"instamart": {"instamart", "swiggy instamart"},
	"bigbasket": {"bigbasket", "bigbasket now", "bb now"},
	"swiggy":    {"swiggy", "swiggy instamart"},
}

var discountPercentPattern = regexp.MustCompile(`(\d+)\s*(?:%|percent)`)
var rupeePattern = regexp.MustCompile(`(?:₹|rs\.?\s*)\s*(\d+(?:,\d+)*)`)
var rupeesWordPattern = regexp.MustCompile(`(?i)(\d+(?:,\d+)*)\s*rupees?`)
var standaloneNumberPattern = regexp.MustCompile(`\b(\d{3,5})\b`)

type sampleRow struct {
	ID                 uint     `gorm:"column:id"`
	Name               string   `gorm:"column:name"`
	PlatformName       string   `gorm:"column:platform_name"`
	Price              float64  `gorm:"column:price"`
	OriginalPrice      *float64 `gorm:"column:original_price"`
	DiscountPercentage *float64 `gorm:"column:discount_percentage"`
	IsAvailable        bool     `gorm:"column:is_available"`
	LastUpdated        time.Time `gorm:"column:last_updated"`
	CategoryName       string   `gorm:"column:category_name"`
}

func (r sampleRow) toQueryResult() QueryResult {
	return QueryResult{
		ProductID:          r.ID,
		ProductName:        r.Name,
		PlatformName:       r.PlatformName,
		CurrentPrice:       r.Price,
		OriginalPrice:      r.OriginalPrice,
		DiscountPercentage: r.DiscountPercentage,
		IsAvailable:        r.IsAvailable,
		LastUpdated:        r.LastUpdated,
	}
}

const sampleRowSelect = `
	p.id AS id, p.name AS name, pl.name AS platform_name, cp.price AS price,
	cp.original_price AS original_price, cp.discount_percentage AS discount_percentage,
	cp.is_available AS is_available, cp.last_updated AS last_updated`

// SampleQueryHandlers holds the four fast paths, each
// going straight to parameterized SQL instead of the multi-step executor.
type SampleQueryHandlers struct {
	database *db.DB
	log      *zap.Logger
}

func NewSampleQueryHandlers(database *db.DB, log *zap.Logger) *SampleQueryHandlers {
	return &SampleQueryHandlers{database: database, log: log}
}

// HandleCheapestProduct answers "Which app has cheapest <product> right
// now?", mirroring handle_cheapest_product_query.
func (h *SampleQueryHandlers) HandleCheapestProduct(ctx context.Context, query string) ([]QueryResult, error) {
	productName := extractProductName(query)
	if productName == "" {
		h.log.Warn("could not extract product name from query")
		return nil, nil
	}

	variations := productVariations(productName)
	sql := `SELECT` + sampleRowSelect + `
		FROM products p
		JOIN current_prices cp ON p.id = cp.product_id
		JOIN platforms pl ON cp.platform_id = pl.id
		WHERE (` + ilikeAny("p.name", variations) + `)
			AND cp.is_available = true AND pl.is_active = true AND p.is_active = true
		ORDER BY cp.price ASC
		LIMIT 10`

	var rows []sampleRow
	args := ilikeArgs(variations)
	if err := h.database.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

// HandleDiscountSearch answers "Show products with X%+ discount on
// <platform>", mirroring handle_discount_query.
func (h *SampleQueryHandlers) HandleDiscountSearch(ctx context.Context, query string) ([]QueryResult, error) {
	minDiscount := extractDiscountPercentage(query)
	if minDiscount == 0 {
		h.log.Warn("could not extract discount percentage from query")
		return nil, nil
	}
	platformName := extractPlatformName(query)

	sql := `SELECT` + sampleRowSelect + `
		FROM products p
		JOIN current_prices cp ON p.id = cp.product_id
		JOIN platforms pl ON cp.platform_id = pl.id
		WHERE cp.discount_percentage >= ? AND cp.is_available = true
			AND pl.is_active = true AND p.is_active = true
			AND cp.original_price IS NOT NULL`
	args := []interface{}{minDiscount}

	if platformName != "" {
		variations := platformMappings[platformName]
		sql += ` AND (` + ilikeAny("pl.name", variations) + `)`
		args = append(args, ilikeArgs(variations)...)
	}
	sql += ` ORDER BY cp.discount_percentage DESC, cp.price ASC LIMIT 50`

	var rows []sampleRow
	if err := h.database.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toResults(rows), nil
}

// HandlePriceComparison answers "Compare <product> prices between
// <platform1> and <platform2>", mirroring handle_price_comparison_query.
func (h *SampleQueryHandlers) HandlePriceComparison(ctx context.Context, query string) ([]QueryResult, error) {
	productName := extractProductName(query)
	platforms := extractPlatformsForComparison(query)
	if productName == "" || len(platforms) < 2 {
		h.log.Warn("could not extract sufficient information for comparison")
		return nil, nil
	}

	productVars := productVariations(productName)
	var platformVars []string
	for _, p := range platforms {
		platformVars = append(platformVars, platformMappings[p]...)
	}

	sql := `SELECT` + sampleRowSelect + `
		FROM products p
		JOIN current_prices cp ON p.id = cp.product_id
		JOIN platforms pl ON cp.platform_id = pl.id
		WHERE (` + ilikeAny("p.name", productVars) + `)
			AND (` + ilikeAny("pl.name", platformVars) + `)
			AND cp.is_available = true AND pl.is_active = true AND p.is_active = true
		ORDER BY p.name ASC, cp.price ASC
		LIMIT 100`
	var args []interface{}
	args = append(args, ilikeArgs(productVars)...)
	args = append(args, ilikeArgs(platformVars)...)

	var rows []sampleRow
	if err := h.database.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	groups := make(map[string][]sampleRow)
	var order []string
	for _, r := range rows {
		key := strings.ToLower(r.Name)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	var multi, all []sampleRow
	for _, key := range order {
		group := groups[key]
		platformSet := map[string]bool{}
		for _, r := range group {
			platformSet[r.PlatformName] = true
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Price < group[j].Price })
		if len(platformSet) >= 2 {
			multi = append(multi, group...)
		}
		all = append(all, group...)
	}

	chosen := multi
	if len(chosen) == 0 {
		chosen = all
	}
	if len(chosen) > 50 {
		chosen = chosen[:50]
	}
	return toResults(chosen), nil
}

// HandleBudgetOptimization answers "Find best deals for ₹X grocery list",
// mirroring handle_budget_optimization_query / _optimize_grocery_selection.
func (h *SampleQueryHandlers) HandleBudgetOptimization(ctx context.Context, query string) ([]QueryResult, error) {
	budget := extractBudgetAmount(query)
	if budget <= 0 {
		h.log.Warn("could not extract valid budget amount from query")
		return nil, nil
	}

	sql := `SELECT` + sampleRowSelect + `, pc.name AS category_name
		FROM products p
		JOIN current_prices cp ON p.id = cp.product_id
		JOIN platforms pl ON cp.platform_id = pl.id
		JOIN product_categories pc ON p.category_id = pc.id
		WHERE cp.is_available = true AND pl.is_active = true AND p.is_active = true
			AND cp.price <= ?
			AND (cp.discount_percentage >= 10 OR cp.price <= 100)
		ORDER BY cp.discount_percentage DESC, cp.price ASC
		LIMIT 100`

	var rows []sampleRow
	if err := h.database.WithContext(ctx).Raw(sql, budget*0.3).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	selected := optimizeGrocerySelection(rows, budget)
	return toResults(selected), nil
}

// optimizeGrocerySelection is the greedy value-score selection of
// _optimize_grocery_selection: sort by (discount+10)/price descending, skip
// anything that would overrun the budget, cap at 3 items per category, stop
// at 20 items or 90% of budget.
func optimizeGrocerySelection(rows []sampleRow, budget float64) []sampleRow {
	sorted := append([]sampleRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		return valueScore(sorted[i]) > valueScore(sorted[j])
	})

	var selected []sampleRow
	var totalCost float64
	categoryCounts := make(map[string]int)

	for _, item := range sorted {
		if totalCost+item.Price > budget {
			continue
		}
		category := item.CategoryName
		if category == "" {
			category = "other"
		}
		if categoryCounts[category] >= 3 {
			continue
		}

		selected = append(selected, item)
		totalCost += item.Price
		categoryCounts[category]++

		if len(selected) >= 20 || totalCost >= budget*0.9 {
			break
		}
	}
	return selected
}

func valueScore(item sampleRow) float64 {
	discount := 0.0
	if item.DiscountPercentage != nil {
		discount = *item.DiscountPercentage
	}
	return (discount + 10) / item.Price
}

func toResults(rows []sampleRow) []QueryResult {
	out := make([]QueryResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toQueryResult())
	}
	return out
}

func ilikeAny(column string, variations []string) string {
	parts := make([]string, len(variations))
	for i := range variations {
		parts[i] = column + " ILIKE ?"
	}
	return strings.Join(parts, " OR ")
}

func ilikeArgs(variations []string) []interface{} {
	args := make([]interface{}, len(variations))
	for i, v := range variations {
		args[i] = "%" + v + "%"
	}
	return args
}

// extractProductName mirrors _extract_product_name: known-product lookup
// first, then the word following a trigger word, then the first
// sufficiently long non-platform, non-trigger word.
func extractProductName(query string) string {
	lower := strings.ToLower(query)
	for _, variations := range commonProducts {
		for _, v := range variations {
			if strings.Contains(lower, v) {
				return v
			}
		}
	}

	triggerWords := map[string]bool{
		"cheapest": true, "price": true, "cost": true, "find": true, "show": true, "compare": true,
	}
	skipAfterTrigger := map[string]bool{
		"app": true, "apps": true, "platform": true, "platforms": true, "between": true, "on": true,
	}
	words := strings.Fields(lower)
	for i, w := range words {
		if triggerWords[w] && i+1 < len(words) && !skipAfterTrigger[words[i+1]] {
			return words[i+1]
		}
	}

	platformWords := map[string]bool{
		"blinkit": true, "zepto": true, "instamart": true, "bigbasket": true, "swiggy": true,
		"app": true, "apps": true,
	}
	excluded := map[string]bool{
		"cheapest": true, "price": true, "cost": true, "find": true, "show": true,
		"compare": true, "between": true, "discount": true,
	}
	for _, w := range words {
		if len(w) > 3 && !platformWords[w] && !excluded[w] {
			return w
		}
	}
	return ""
}

func productVariations(productName string) []string {
	variations := []string{productName}
	for _, vars := range commonProducts {
		for _, v := range vars {
			if strings.EqualFold(v, productName) {
				variations = append(variations, vars...)
			}
		}
	}
	if strings.HasSuffix(productName, "s") {
		variations = append(variations, strings.TrimSuffix(productName, "s"))
	} else {
		variations = append(variations, productName+"s")
	}
	return dedupe(variations)
}

func extractPlatformName(query string) string {
	lower := strings.ToLower(query)
	for platform, variations := range platformMappings {
		for _, v := range variations {
			if strings.Contains(lower, v) {
				return platform
			}
		}
	}
	return ""
}

func extractPlatformsForComparison(query string) []string {
	lower := strings.ToLower(query)
	seen := make(map[string]bool)
	var out []string
	for platform, variations := range platformMappings {
		for _, v := range variations {
			if strings.Contains(lower, v) {
				if !seen[platform] {
					seen[platform] = true
					out = append(out, platform)
				}
				break
			}
		}
	}
	return out
}

func extractDiscountPercentage(query string) float64 {
	if m := discountPercentPattern.FindStringSubmatch(query); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	return 0
}

func extractBudgetAmount(query string) float64 {
	if m := rupeePattern.FindStringSubmatch(query); m != nil {
		v, _ := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		return v
	}
	if m := rupeesWordPattern.FindStringSubmatch(query); m != nil {
		v, _ := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		return v
	}
	if m := standaloneNumberPattern.FindStringSubmatch(query); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return v
	}
	return 0
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
