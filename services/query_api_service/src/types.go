// Package queryapi is the HTTP surface: a gin router,
// its middleware chain, the sample-query fast paths, and the dispatch table
// that picks between them and the multi-step executor (D).
package queryapi

import "time"

// QueryResult is the row shape every query path returns,.
type QueryResult struct {
	ProductID          uint       `json:"product_id"`
	ProductName        string     `json:"product_name"`
	PlatformName       string     `json:"platform_name"`
	CurrentPrice       float64    `json:"current_price"`
	OriginalPrice      *float64   `json:"original_price,omitempty"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty"`
	IsAvailable        bool       `json:"is_available"`
	LastUpdated        time.Time  `json:"last_updated"`
}

// QueryRequest is POST /api/v1/query/'s body.
type QueryRequest struct {
	Query   string                 `json:"query" binding:"required"`
	UserID  string                 `json:"user_id,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// AdvancedQueryRequest adds pagination/sampling/format controls, per
// POST /api/v1/query/advanced. The controls are applied by the result
// processor, whose output fills total_results, cached and metadata; the
// response's results field carries the dispatcher's rows unpaged and in
// QueryResult shape whatever the controls say.
type AdvancedQueryRequest struct {
	QueryRequest
	Page           int    `json:"page,omitempty"`
	PageSize       int    `json:"page_size,omitempty"`
	SamplingMethod string `json:"sampling_method,omitempty"`
	SampleSize     int    `json:"sample_size,omitempty"`
	ResultFormat   string `json:"result_format,omitempty"`
}

// QueryResponse is the shared response shape for both query endpoints.
type QueryResponse struct {
	Query           string                 `json:"query"`
	Results         []QueryResult          `json:"results"`
	ExecutionTime   float64                `json:"execution_time"`
	RelevantTables  []string               `json:"relevant_tables"`
	TotalResults    int                    `json:"total_results"`
	Cached          bool                   `json:"cached"`
	Suggestions     []string               `json:"suggestions,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ComparisonRequest backs GET/POST /api/v1/products/compare.
type ComparisonRequest struct {
	ProductName string   `json:"product_name" form:"product_name" binding:"required"`
	Platforms   []string `json:"platforms,omitempty" form:"platforms"`
	Category    string   `json:"category,omitempty" form:"category"`
}

// DealsRequest backs GET/POST /api/v1/deals/.
type DealsRequest struct {
	Platform     string `json:"platform,omitempty" form:"platform"`
	Category     string `json:"category,omitempty" form:"category"`
	MinDiscount  int    `json:"min_discount,omitempty" form:"min_discount"`
	FeaturedOnly bool   `json:"featured_only,omitempty" form:"featured_only"`
	Limit        int    `json:"limit,omitempty" form:"limit"`
}

// ErrorEnvelope is the error shape every failure response uses, per
// 's documented envelope.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}
