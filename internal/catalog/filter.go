package catalog

import "strings"

// CategoryAll disables the category clause.
const CategoryAll = "all"

// FilterState is the set of inclusion constraints chosen by a shopper.
type FilterState struct {
	Query          string
	Category       string
	PriceMin       float64
	PriceMax       float64 // 0 means no upper bound
	Brands         []string
	MinRating      float64
	InStockOnly    bool
	NewOnly        bool
	BestSellerOnly bool
	OnSaleOnly     bool
}

// DefaultFilters returns the unconstrained filter state. The zero
// FilterState is equally unconstrained.
func DefaultFilters() FilterState {
	return FilterState{Category: CategoryAll}
}

// IsDefault reports whether f places no constraint on items.
func (f FilterState) IsDefault() bool {
	return f.Query == "" &&
		(f.Category == "" || f.Category == CategoryAll) &&
		f.PriceMin <= 0 && f.PriceMax <= 0 &&
		len(f.Brands) == 0 && f.MinRating <= 0 &&
		!f.InStockOnly && !f.NewOnly && !f.BestSellerOnly && !f.OnSaleOnly
}

// Matches reports whether item satisfies every clause of filters.
func Matches(item Item, filters FilterState) bool {
	return matchesQuery(item, filters.Query) &&
		matchesCategory(item, filters.Category) &&
		matchesPrice(item, filters.PriceMin, filters.PriceMax) &&
		matchesBrand(item, filters.Brands) &&
		item.Rating >= filters.MinRating &&
		(!filters.InStockOnly || item.InStock) &&
		(!filters.NewOnly || item.IsNew) &&
		(!filters.BestSellerOnly || item.IsBestSeller) &&
		(!filters.OnSaleOnly || item.OnSale())
}

// Filter returns the items matching filters, preserving their order.
func Filter(items []Item, filters FilterState) []Item {
	result := make([]Item, 0, len(items))
	for _, item := range items {
		if Matches(item, filters) {
			result = append(result, item)
		}
	}
	return result
}

func matchesQuery(item Item, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(item.Description), q) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func matchesCategory(item Item, category string) bool {
	if category == "" || category == CategoryAll {
		return true
	}
	return item.Category != "" && strings.EqualFold(item.Category, category)
}

func matchesPrice(item Item, lo, hi float64) bool {
	if item.Price < lo {
		return false
	}
	return hi <= 0 || item.Price <= hi
}

func matchesBrand(item Item, brands []string) bool {
	if len(brands) == 0 {
		return true
	}
	if item.Brand == "" {
		return false
	}
	for _, b := range brands {
		if strings.EqualFold(b, item.Brand) {
			return true
		}
	}
	return false
}
