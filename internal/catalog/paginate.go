package catalog

// Window is the visible page of a longer list.
type Window[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// Paginate returns the page-th window of pageSize items. Pages are 1-based.
// A page outside [1, TotalPages] yields an empty window; clamping is the
// caller's job. A pageSize below 1 puts every item on a single page.
func Paginate[T any](items []T, page, pageSize int) Window[T] {
	n := len(items)
	if pageSize < 1 {
		pageSize = max(n, 1)
	}
	totalPages := max(1, (n+pageSize-1)/pageSize)

	w := Window[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      n,
	}
	if page < 1 || page > totalPages {
		return w
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, n)
	if start < end {
		w.Items = items[start:end:end]
	}
	return w
}
