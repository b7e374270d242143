package shared

import (
	"net/url"
	"strconv"
)

// ParseFilters reads the standard list filters from a query string.
func ParseFilters(q url.Values) ListFilters {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	filters := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if raw := q.Get("is_active"); raw != "" {
		active := raw == "true" || raw == "1"
		filters.IsActive = &active
	}
	if raw := q.Get("client_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filters.ClientID = &id
		}
	}
	if raw := q.Get("type"); raw != "" {
		filters.ProductType = &raw
	}
	filters.Normalize()
	return filters
}
