package catalog

// Apply runs the full view pipeline over items: filter, then sort, then
// take the requested page.
func Apply(items []Item, s ViewState, pageSize int) Window[Item] {
	return Paginate(Sort(Filter(items, s.Filters), s.Sort), s.Page, pageSize)
}

// ClampPage moves s.Page into [1, totalPages] for a result of n items.
func ClampPage(s ViewState, n, pageSize int) ViewState {
	if pageSize < 1 {
		s.Page = 1
		return s
	}
	last := max(1, (n+pageSize-1)/pageSize)
	s.Page = min(max(s.Page, 1), last)
	return s
}
