package catalog

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey names the field used to order a result set.
type SortKey string

const (
	SortPopularity SortKey = "popularity"
	SortName       SortKey = "name"
	SortPrice      SortKey = "price"
	SortRating     SortKey = "rating"
	SortNewest     SortKey = "newest"
)

// Direction is the ordering direction for a sort key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortState is a sort key with its direction.
type SortState struct {
	Key       SortKey
	Direction Direction
}

// DefaultSort is popularity, most popular first.
func DefaultSort() SortState {
	return SortState{Key: SortPopularity, Direction: Desc}
}

// Valid reports whether k is one of the supported keys.
func (k SortKey) Valid() bool {
	switch k {
	case SortPopularity, SortName, SortPrice, SortRating, SortNewest:
		return true
	}
	return false
}

// NaturalDirection is the direction implied when a sort parameter names
// only the field: A-Z and cheapest first, best and newest first.
func (k SortKey) NaturalDirection() Direction {
	switch k {
	case SortName, SortPrice:
		return Asc
	default:
		return Desc
	}
}

// Compare orders a and b by s, returning -1, 0 or 1.
func Compare(a, b Item, s SortState) int {
	var c int
	switch s.Key {
	case SortName:
		c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortPrice:
		c = cmp.Compare(a.Price, b.Price)
	case SortRating:
		c = cmp.Compare(a.Rating, b.Rating)
	case SortNewest:
		c = cmp.Compare(a.CreatedAt, b.CreatedAt)
	default:
		c = cmp.Compare(a.Popularity, b.Popularity)
	}
	if s.Direction == Desc {
		return -c
	}
	return c
}

// Sort returns a copy of items ordered by s. Equal keys keep their input order.
func Sort(items []Item, s SortState) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return Compare(a, b, s)
	})
	return sorted
}
