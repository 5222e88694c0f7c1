package resultprocessor

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StructuredRow is the consistent shape the frontend consumes for
// result.raw/structured formats, mirroring _format_structured.
type StructuredRow struct {
	ID                 interface{} `json:"id"`
	ProductName        string      `json:"product_name"`
	PlatformName       string      `json:"platform_name"`
	CurrentPrice       float64     `json:"current_price"`
	OriginalPrice      *float64    `json:"original_price,omitempty"`
	DiscountPercentage *float64    `json:"discount_percentage,omitempty"`
	IsAvailable        bool        `json:"is_available"`
	LastUpdated        string      `json:"last_updated"`
	Savings            *float64    `json:"savings,omitempty"`
}

// PriceStatistics summarizes a price slice's distribution.
type PriceStatistics struct {
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	AveragePrice float64 `json:"average_price"`
	MedianPrice  float64 `json:"median_price"`
}

// SummaryRow is the result.summary output: statistics instead of rows.
type SummaryRow struct {
	TotalResults    int             `json:"total_results"`
	UniqueProducts  int             `json:"unique_products"`
	UniquePlatforms int             `json:"unique_platforms"`
	PriceStatistics PriceStatistics `json:"price_statistics"`
	Platforms       []string        `json:"platforms"`
	SampleProducts  []string        `json:"sample_products"`
	Summary         string          `json:"summary,omitempty"`
}

// PlatformOffer is one platform's price point for a comparison row.
type PlatformOffer struct {
	PlatformName       string   `json:"platform_name"`
	Price              float64  `json:"price"`
	OriginalPrice      *float64 `json:"original_price,omitempty"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	IsAvailable        bool     `json:"is_available"`
}

// ComparisonRow groups every platform's offer for one product.
type ComparisonRow struct {
	ProductName            string          `json:"product_name"`
	Platforms              []PlatformOffer `json:"platforms"`
	CheapestPlatform       string          `json:"cheapest_platform,omitempty"`
	MostExpensivePlatform  string          `json:"most_expensive_platform,omitempty"`
	PriceRange             *PriceRange     `json:"price_range,omitempty"`
	AveragePrice           *float64        `json:"average_price,omitempty"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ChartData is the result.chart_data output.
type ChartData struct {
	PriceDistribution  []PriceBucket        `json:"price_distribution"`
	PlatformComparison []PlatformChartPoint `json:"platform_comparison"`
}

type PriceBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type PlatformChartPoint struct {
	Platform     string  `json:"platform"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	ProductCount int     `json:"product_count"`
}

// renderFormat dispatches to the formatter named by format, defaulting to
// structured the way _format_results' formatter map does.
func renderFormat(rows []Row, format Format) interface{} {
	switch format {
	case FormatRaw:
		return formatRaw(rows)
	case FormatSummary:
		return formatSummary(rows)
	case FormatComparison:
		return formatComparison(rows)
	case FormatChartData:
		return formatChartData(rows)
	default:
		return formatStructured(rows)
	}
}

func formatRaw(rows []Row) []Row {
	return rows
}

func formatStructured(rows []Row) []StructuredRow {
	out := make([]StructuredRow, 0, len(rows))
	for _, r := range rows {
		current := toFloat(firstNonEmpty(r, "current_price", "price"))
		sr := StructuredRow{
			ID:           firstNonEmpty(r, "product_id", "id"),
			ProductName:  toString(firstNonEmpty(r, "product_name", "name")),
			PlatformName: toString(r["platform_name"]),
			CurrentPrice: current,
			IsAvailable:  toBool(r["is_available"], true),
			LastUpdated:  toTimeString(r["last_updated"]),
		}
		if v, ok := r["original_price"]; ok && v != nil {
			orig := toFloat(v)
			sr.OriginalPrice = &orig
			if orig > current {
				savings := orig - current
				sr.Savings = &savings
			}
		}
		if v, ok := r["discount_percentage"]; ok && v != nil {
			d := toFloat(v)
			sr.DiscountPercentage = &d
		}
		out = append(out, sr)
	}
	return out
}

func formatSummary(rows []Row) []SummaryRow {
	if len(rows) == 0 {
		return []SummaryRow{{Summary: "No results found"}}
	}

	var prices []float64
	platformSet := map[string]bool{}
	productSet := map[string]bool{}
	for _, r := range rows {
		if p := toFloat(firstNonEmpty(r, "current_price", "price")); p != 0 {
			prices = append(prices, p)
		}
		if p := toString(r["platform_name"]); p != "" {
			platformSet[p] = true
		}
		if p := toString(firstNonEmpty(r, "product_name", "name")); p != "" {
			productSet[p] = true
		}
	}

	platforms := sortedKeys(platformSet)
	products := sortedKeys(productSet)
	sampleProducts := products
	if len(sampleProducts) > 10 {
		sampleProducts = sampleProducts[:10]
	}

	return []SummaryRow{{
		TotalResults:    len(rows),
		UniqueProducts:  len(products),
		UniquePlatforms: len(platforms),
		PriceStatistics: priceStatistics(prices),
		Platforms:       platforms,
		SampleProducts:  sampleProducts,
	}}
}

func formatComparison(rows []Row) []ComparisonRow {
	if len(rows) == 0 {
		return nil
	}

	groups := make(map[string][]Row)
	var order []string
	for _, r := range rows {
		name := toString(firstNonEmpty(r, "product_name", "name"))
		if name == "" {
			name = "Unknown"
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], r)
	}

	out := make([]ComparisonRow, 0, len(groups))
	for _, name := range order {
		group := groups[name]
		sort.Slice(group, func(i, j int) bool {
			return toFloat(firstNonEmpty(group[i], "current_price", "price")) < toFloat(firstNonEmpty(group[j], "current_price", "price"))
		})

		var prices []float64
		offers := make([]PlatformOffer, 0, len(group))
		for _, r := range group {
			price := toFloat(firstNonEmpty(r, "current_price", "price"))
			prices = append(prices, price)
			offer := PlatformOffer{
				PlatformName: toString(r["platform_name"]),
				Price:        price,
				IsAvailable:  toBool(r["is_available"], true),
			}
			if v, ok := r["original_price"]; ok && v != nil {
				orig := toFloat(v)
				offer.OriginalPrice = &orig
			}
			if v, ok := r["discount_percentage"]; ok && v != nil {
				d := toFloat(v)
				offer.DiscountPercentage = &d
			}
			offers = append(offers, offer)
		}

		cr := ComparisonRow{ProductName: name, Platforms: offers}
		if len(prices) > 0 {
			cr.CheapestPlatform = offers[0].PlatformName
			cr.MostExpensivePlatform = offers[len(offers)-1].PlatformName
			cr.PriceRange = &PriceRange{Min: minFloat(prices), Max: maxFloat(prices)}
			avg := stat.Mean(prices, nil)
			cr.AveragePrice = &avg
		}
		out = append(out, cr)
	}
	return out
}

func formatChartData(rows []Row) []ChartData {
	if len(rows) == 0 {
		return nil
	}

	var prices []float64
	for _, r := range rows {
		if p := toFloat(firstNonEmpty(r, "current_price", "price")); p != 0 {
			prices = append(prices, p)
		}
	}

	var distribution []PriceBucket
	if len(prices) > 0 {
		minP, maxP := minFloat(prices), maxFloat(prices)
		bucketSize := (maxP - minP) / 10
		if bucketSize <= 0 {
			bucketSize = 1
		}
		counts := make(map[string]int)
		var keyOrder []string
		for _, p := range prices {
			bucket := int((p - minP) / bucketSize)
			lo := minP + float64(bucket)*bucketSize
			hi := minP + float64(bucket+1)*bucketSize
			bucketKey := fmt.Sprintf("₹%.0f-₹%.0f", lo, hi)
			if _, ok := counts[bucketKey]; !ok {
				keyOrder = append(keyOrder, bucketKey)
			}
			counts[bucketKey]++
		}
		for _, k := range keyOrder {
			distribution = append(distribution, PriceBucket{Range: k, Count: counts[k]})
		}
	}

	platformPrices := make(map[string][]float64)
	var platformOrder []string
	for _, r := range rows {
		platform := toString(r["platform_name"])
		if platform == "" {
			platform = "Unknown"
		}
		if _, ok := platformPrices[platform]; !ok {
			platformOrder = append(platformOrder, platform)
		}
		platformPrices[platform] = append(platformPrices[platform], toFloat(firstNonEmpty(r, "current_price", "price")))
	}

	var comparison []PlatformChartPoint
	for _, platform := range platformOrder {
		ps := platformPrices[platform]
		if len(ps) == 0 {
			continue
		}
		comparison = append(comparison, PlatformChartPoint{
			Platform:     platform,
			AveragePrice: stat.Mean(ps, nil),
			MinPrice:     minFloat(ps),
			MaxPrice:     maxFloat(ps),
			ProductCount: len(ps),
		})
	}

	return []ChartData{{PriceDistribution: distribution, PlatformComparison: comparison}}
}

func priceStatistics(prices []float64) PriceStatistics {
	if len(prices) == 0 {
		return PriceStatistics{}
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	return PriceStatistics{
		MinPrice:     sorted[0],
		MaxPrice:     sorted[len(sorted)-1],
		AveragePrice: stat.Mean(prices, nil),
		MedianPrice:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func minFloat(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxFloat(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
