package catalog

import (
	"html"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cast"
)

// RawItem is an item as the upstream API or a seed file delivers it. Several
// fields arrive in more than one shape; Normalize folds them into Item.
type RawItem struct {
	ID             any      `json:"id" yaml:"id"`
	Collection     string   `json:"collection" yaml:"collection"`
	Title          string   `json:"title" yaml:"title"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Price          any      `json:"price" yaml:"price"`
	CompareAtPrice any      `json:"compareAtPrice" yaml:"compareAtPrice"`
	OriginalPrice  any      `json:"originalPrice" yaml:"originalPrice"`
	Category       any      `json:"category" yaml:"category"` // "citrus" or {"slug": "citrus", "name": "Citrus"}
	Brand          string   `json:"brand" yaml:"brand"`
	Rating         any      `json:"rating" yaml:"rating"` // 4.5, "4.5" or {"average": 4.5, "count": 12}
	Stock          any      `json:"stock" yaml:"stock"`
	InStock        any      `json:"inStock" yaml:"inStock"`
	Tags           []string `json:"tags" yaml:"tags"`
	IsNew          any      `json:"isNew" yaml:"isNew"`
	IsBestSeller   any      `json:"isBestSeller" yaml:"isBestSeller"`
	Popularity     any      `json:"popularity" yaml:"popularity"`
	CreatedAt      any      `json:"createdAt" yaml:"createdAt"` // epoch ms, RFC 3339 or absent
}

var stripTags = bluemonday.StrictPolicy()

// Normalize converts raw into the single shape the pipeline works on.
// Unusable values become zero values rather than errors.
func Normalize(raw RawItem) Item {
	item := Item{
		ID:             strings.TrimSpace(cast.ToString(raw.ID)),
		Collection:     strings.TrimSpace(raw.Collection),
		Title:          strings.TrimSpace(raw.Title),
		Description:    PlainText(raw.Description),
		Price:          nonNegative(cast.ToFloat64(raw.Price)),
		CompareAtPrice: nonNegative(cast.ToFloat64(firstPresent(raw.CompareAtPrice, raw.OriginalPrice))),
		Category:       normalizeCategory(raw.Category),
		Brand:          strings.TrimSpace(raw.Brand),
		Rating:         normalizeRating(raw.Rating),
		Tags:           normalizeTags(raw.Tags),
		IsNew:          cast.ToBool(raw.IsNew),
		IsBestSeller:   cast.ToBool(raw.IsBestSeller),
		Popularity:     cast.ToFloat64(raw.Popularity),
		CreatedAt:      normalizeTimestamp(raw.CreatedAt),
	}
	if item.Title == "" {
		item.Title = strings.TrimSpace(raw.Name)
	}

	stock, stockErr := cast.ToIntE(raw.Stock)
	if raw.Stock != nil && stockErr == nil {
		item.Stock = max(stock, 0)
		item.InStock = item.Stock > 0
	}
	if inStock, err := cast.ToBoolE(raw.InStock); raw.InStock != nil && err == nil {
		item.InStock = inStock
	}
	return item
}

// NormalizeAll normalizes every raw item, keeping order.
func NormalizeAll(raws []RawItem) []Item {
	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		items = append(items, Normalize(raw))
	}
	return items
}

// PlainText strips markup from s so that stored descriptions are never
// rendered as HTML and search matches only visible text.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(stripTags.Sanitize(s)))
}

func normalizeCategory(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return ""
	}
	for _, key := range []string{"slug", "name"} {
		if s := strings.TrimSpace(cast.ToString(m[key])); s != "" {
			return s
		}
	}
	return ""
}

func normalizeRating(v any) float64 {
	if v == nil {
		return 0
	}
	if r, err := cast.ToFloat64E(v); err == nil {
		return nonNegative(r)
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return 0
	}
	for _, key := range []string{"average", "rate", "value"} {
		if r, err := cast.ToFloat64E(m[key]); err == nil && m[key] != nil {
			return nonNegative(r)
		}
	}
	return 0
}

func normalizeTimestamp(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case time.Time:
		return t.UnixMilli()
	case string:
		if t == "" {
			return 0
		}
		if ms, err := cast.ToInt64E(t); err == nil {
			return ms
		}
		if parsed, err := cast.ToTimeE(t); err == nil {
			return parsed.UnixMilli()
		}
		return 0
	}
	ms, err := cast.ToInt64E(v)
	if err != nil {
		return 0
	}
	return ms
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstPresent(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func nonNegative(n float64) float64 {
	if n < 0 || math.IsNaN(n) {
		return 0
	}
	return n
}
