// Package catalog implements the storefront view pipeline: filter, sort and
// paginate an already-fetched list of items, and mirror the view state into
// URL query parameters.
package catalog

// Collections served by the storefront.
const (
	CollectionProducts = "products"
	CollectionRecipes  = "recipes"
	CollectionBundles  = "bundles"
)

// ValidCollection reports whether name is one of the known collections.
func ValidCollection(name string) bool {
	switch name {
	case CollectionProducts, CollectionRecipes, CollectionBundles:
		return true
	}
	return false
}

// Item is a product, bundle or recipe in its normalized shape.
type Item struct {
	ID             string   `json:"id"`
	Collection     string   `json:"collection"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	CompareAtPrice float64  `json:"compareAtPrice,omitempty"` // 0 when absent
	Category       string   `json:"category"`
	Brand          string   `json:"brand,omitempty"`
	Rating         float64  `json:"rating"`
	Stock          int      `json:"stock"`
	InStock        bool     `json:"inStock"`
	Tags           []string `json:"tags,omitempty"`
	IsNew          bool     `json:"isNew"`
	IsBestSeller   bool     `json:"isBestSeller"`
	Popularity     float64  `json:"popularity"`
	CreatedAt      int64    `json:"createdAt"` // epoch ms, 0 when unknown
}

// OnSale is true only when a compare-at price above the current price exists.
// A compare-at price at or below the price is ignored.
func (i Item) OnSale() bool {
	return i.CompareAtPrice > i.Price
}

// Discount returns the amount saved against the compare-at price, or 0.
func (i Item) Discount() float64 {
	if !i.OnSale() {
		return 0
	}
	return i.CompareAtPrice - i.Price
}
