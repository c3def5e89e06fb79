package models

// Pagination contains pagination metadata for list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage clamps page and size to the values repositories actually apply.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}
