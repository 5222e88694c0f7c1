package resultprocessor

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// DataFreshness reports how stale the underlying rows are.
type DataFreshness struct {
	Status           string  `json:"status"`
	OldestDataHours  float64 `json:"oldest_data_hours,omitempty"`
	NewestDataHours  float64 `json:"newest_data_hours,omitempty"`
	AverageAgeHours  float64 `json:"average_age_hours,omitempty"`
	StaleDataCount   int     `json:"stale_data_count,omitempty"`
}

// calculateDataFreshness looks at every row's last_updated timestamp and
// reports the age distribution, mirroring _calculate_data_freshness.
func calculateDataFreshness(rows []Row) DataFreshness {
	if len(rows) == 0 {
		return DataFreshness{Status: "no_data"}
	}

	var ages []float64
	now := time.Now().UTC()
	for _, r := range rows {
		raw, ok := r["last_updated"]
		if !ok || raw == nil {
			continue
		}
		ts, ok := parseTimestamp(raw)
		if !ok {
			continue
		}
		ages = append(ages, now.Sub(ts).Hours())
	}

	if len(ages) == 0 {
		return DataFreshness{Status: "no_timestamps"}
	}

	stale := 0
	for _, a := range ages {
		if a > 24 {
			stale++
		}
	}

	return DataFreshness{
		Status:          "calculated",
		OldestDataHours: maxFloat(ages),
		NewestDataHours: minFloat(ages),
		AverageAgeHours: stat.Mean(ages, nil),
		StaleDataCount:  stale,
	}
}

func parseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// QualityMetrics reports field completeness and availability across rows.
type QualityMetrics struct {
	Status                   string             `json:"status"`
	CompletenessPercentages  map[string]float64 `json:"completeness_percentages,omitempty"`
	AvailabilityRate         float64            `json:"availability_rate,omitempty"`
	TotalRecords             int                `json:"total_records,omitempty"`
	MissingValueCounts       map[string]int     `json:"missing_value_counts,omitempty"`
}

// calculateQualityMetrics counts missing key fields and the available/
// unavailable split, mirroring _calculate_quality_metrics.
func calculateQualityMetrics(rows []Row) QualityMetrics {
	if len(rows) == 0 {
		return QualityMetrics{Status: "no_data"}
	}

	total := len(rows)
	missing := map[string]int{
		"product_name": 0,
		"platform_name": 0,
		"price": 0,
		"availability": 0,
	}
	available := 0

	for _, r := range rows {
		if toString(firstNonEmpty(r, "product_name", "name")) == "" {
			missing["product_name"]++
		}
		if toString(r["platform_name"]) == "" {
			missing["platform_name"]++
		}
		if firstNonEmpty(r, "current_price", "price") == nil {
			missing["price"]++
		}
		if _, ok := r["is_available"]; !ok {
			missing["availability"]++
		}
		if toBool(r["is_available"], true) {
			available++
		}
	}

	completeness := make(map[string]float64, len(missing))
	for field, m := range missing {
		completeness[field] = float64(total-m) / float64(total) * 100
	}

	return QualityMetrics{
		Status:                  "calculated",
		CompletenessPercentages: completeness,
		AvailabilityRate:        float64(available) / float64(total) * 100,
		TotalRecords:            total,
		MissingValueCounts:      missing,
	}
}

func buildMetadata(raw, sampled, paginated []Row, queryContext map[string]interface{}) map[string]interface{} {
	m := map[string]interface{}{
		"result_counts": map[string]int{
			"raw":       len(raw),
			"sampled":   len(sampled),
			"paginated": len(paginated),
		},
		"processing_timestamp": time.Now().UTC().Format(time.RFC3339),
		"data_freshness":       calculateDataFreshness(raw),
		"quality_metrics":      calculateQualityMetrics(raw),
	}
	if len(queryContext) > 0 {
		m["query_context"] = queryContext
	}
	return m
}
