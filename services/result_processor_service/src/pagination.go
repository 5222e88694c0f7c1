package resultprocessor

import "math"

// applyPagination slices results to cfg's page, returning the slice and
// the metadata block the API surface renders alongside it.
func applyPagination(results []Row, cfg PaginationConfig) ([]Row, PaginationMetadata) {
	total := len(results)
	totalPages := int(math.Ceil(float64(total) / float64(cfg.PageSize)))

	start := (cfg.Page - 1) * cfg.PageSize
	end := start + cfg.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	page := results[start:end]

	return page, PaginationMetadata{
		Page:        cfg.Page,
		PageSize:    cfg.PageSize,
		TotalCount:  total,
		TotalPages:  totalPages,
		HasNext:     cfg.Page < totalPages,
		HasPrevious: cfg.Page > 1,
		StartIndex:  start + 1,
		EndIndex:    end,
	}
}
