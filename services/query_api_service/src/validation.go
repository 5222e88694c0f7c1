package queryapi

import (
	"fmt"
	"strings"

	"github.com/quickdeals/price-intel/common/errtax"
	"github.com/quickdeals/price-intel/common/models"
)

const maxQueryLength = 500

// forbiddenTokens blocks the NL query from doubling as a raw SQL injection
// vector, per this service's validation rules.
var forbiddenTokens = []string{
	"drop", "delete", "update", "insert", "alter", "create", "truncate",
	"exec", "grant", "revoke", "union", "--", "/*", ";", "or 1=1",
}

// ValidateQuery enforces 's NL query rules: non-empty, <=500
// chars, no SQL keywords.
func ValidateQuery(query string) *errtax.Error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return errtax.New(errtax.ValidationError, "query must not be empty")
	}
	if len(trimmed) > maxQueryLength {
		return errtax.New(errtax.ValidationError,
			fmt.Sprintf("query must be at most %d characters", maxQueryLength))
	}
	lower := strings.ToLower(trimmed)
	for _, token := range forbiddenTokens {
		if strings.Contains(lower, token) {
			return errtax.New(errtax.InvalidQueryError,
				fmt.Sprintf("query contains a disallowed token: %q", token),
				"remove SQL keywords and punctuation from the query")
		}
	}
	return nil
}

// ValidatePlatforms rejects any platform name outside 's known set.
func ValidatePlatforms(platforms []string) *errtax.Error {
	for _, p := range platforms {
		if !models.KnownPlatforms[p] {
			return errtax.New(errtax.ValidationError,
				fmt.Sprintf("unknown platform %q", p),
				"use one of Blinkit, Zepto, Instamart, BigBasket")
		}
	}
	return nil
}

// ValidateMinDiscount enforces the [0, 100] range.
func ValidateMinDiscount(minDiscount int) *errtax.Error {
	if minDiscount < 0 || minDiscount > 100 {
		return errtax.New(errtax.ValidationError, "min_discount must be between 0 and 100")
	}
	return nil
}

// ValidateLimit caps result-set limits at 100,.
func ValidateLimit(limit int) *errtax.Error {
	if limit > 100 {
		return errtax.New(errtax.ValidationError, "limit must be at most 100")
	}
	return nil
}
