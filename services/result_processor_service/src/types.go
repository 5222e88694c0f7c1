// Package resultprocessor implements the sampling, pagination, formatting,
// and caching pipeline, grounded on
// original_source/app/services/result_processor.py.
package resultprocessor

import (
	"math"
	"time"
)

// SamplingMethod is one of the four statistical sampling strategies, plus
// "none" to disable sampling outright.
type SamplingMethod string

const (
	SamplingRandom      SamplingMethod = "random"
	SamplingSystematic  SamplingMethod = "systematic"
	SamplingStratified  SamplingMethod = "stratified"
	SamplingTopN        SamplingMethod = "top_n"
	SamplingNone        SamplingMethod = "none"
)

// Format is one of the five output shapes RenderFormat can produce.
type Format string

const (
	FormatRaw        Format = "raw"
	FormatStructured Format = "structured"
	FormatSummary    Format = "summary"
	FormatComparison Format = "comparison"
	FormatChartData  Format = "chart_data"
)

// Row is one raw record out of the query executor, keyed the way SQL
// column aliases and GORM's map-scan produce them.
type Row map[string]interface{}

// PaginationConfig controls which page of a result set is returned.
type PaginationConfig struct {
	Page        int
	PageSize    int
	MaxPageSize int
	TotalCount  int
}

// NewPaginationConfig builds a config with 's defaults
// (page 1, 20/page, 100 cap) and clamps out-of-range input.
func NewPaginationConfig(page, pageSize int) PaginationConfig {
	cfg := PaginationConfig{Page: page, PageSize: pageSize, MaxPageSize: 100}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.PageSize > cfg.MaxPageSize {
		cfg.PageSize = cfg.MaxPageSize
	}
	if cfg.Page < 1 {
		cfg.Page = 1
	}
	return cfg
}

// SamplingConfig controls how large result sets are thinned before
// formatting.
type SamplingConfig struct {
	Method          SamplingMethod
	SampleSize      int
	ConfidenceLevel float64
	MarginOfError   float64
	StratifyBy      string
}

// DefaultSamplingConfig mirrors SamplingConfig()'s dataclass defaults.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Method:          SamplingRandom,
		SampleSize:      1000,
		ConfidenceLevel: 0.95,
		MarginOfError:   0.05,
	}
}

// RequiredSampleSize applies the standard z²·p·(1-p)/E² formula with a
// finite-population correction, capped at both the configured sample size
// and the population itself, mirroring calculate_required_sample_size.
func (sc SamplingConfig) RequiredSampleSize(populationSize int) int {
	if populationSize <= sc.SampleSize {
		return populationSize
	}

	z := 1.96
	if sc.ConfidenceLevel == 0.99 {
		z = 2.58
	}
	p := 0.5
	numerator := z * z * p * (1 - p)
	denominator := sc.MarginOfError * sc.MarginOfError
	size := numerator / denominator

	size = size / (1 + (size-1)/float64(populationSize))

	required := int(math.Ceil(size))
	if required > sc.SampleSize {
		required = sc.SampleSize
	}
	if required > populationSize {
		required = populationSize
	}
	return required
}

// CacheConfig controls whether and how long a processed result is cached.
type CacheConfig struct {
	Enabled   bool
	TTL       time.Duration
	KeyPrefix string
	MaxSizeMB float64
}

func DefaultCacheConfig(ttl time.Duration) CacheConfig {
	return CacheConfig{Enabled: true, TTL: ttl, KeyPrefix: "query_result", MaxSizeMB: 10}
}

// SamplingMetadata describes what sampling (if any) was applied.
type SamplingMetadata struct {
	Sampled         bool           `json:"sampled"`
	Method          SamplingMethod `json:"method,omitempty"`
	SampleSize      int            `json:"sample_size"`
	OriginalSize    int            `json:"original_size,omitempty"`
	ConfidenceLevel float64        `json:"confidence_level,omitempty"`
	MarginOfError   float64        `json:"margin_of_error,omitempty"`
}

// PaginationMetadata describes the page actually returned.
type PaginationMetadata struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// ProcessedResult is the final payload handed back to the API layer (I).
type ProcessedResult struct {
	Data            interface{}         `json:"data"`
	TotalCount      int                 `json:"total_count"`
	Sampled         bool                `json:"sampled"`
	SamplingMethod  SamplingMethod      `json:"sampling_method,omitempty"`
	SampleSize      int                 `json:"sample_size,omitempty"`
	ConfidenceLevel float64             `json:"confidence_level,omitempty"`
	Pagination      PaginationMetadata  `json:"pagination"`
	FormatType      Format              `json:"format_type"`
	ProcessingTime  time.Duration       `json:"processing_time"`
	Cached          bool                `json:"cached"`
	CacheKey        string              `json:"cache_key,omitempty"`
	Metadata        map[string]interface{} `json:"metadata"`
}
