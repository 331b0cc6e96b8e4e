package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names mirrored into the storefront URL.
const (
	ParamQuery      = "q"
	ParamCategory   = "cat"
	ParamPriceMin   = "priceMin"
	ParamPriceMax   = "priceMax"
	ParamBrand      = "brand"
	ParamRating     = "rating"
	ParamInStock    = "inStock"
	ParamNew        = "new"
	ParamBestSeller = "bestseller"
	ParamSale       = "sale"
	ParamSort       = "sort"
	ParamPage       = "page"
)

// MaxRating is the top of the rating scale.
const MaxRating = 5

const brandSeparator = ","

// ViewState is everything needed to reproduce a catalog view.
type ViewState struct {
	Filters FilterState
	Sort    SortState
	Page    int
}

// DefaultViewState is the first page of the unfiltered, popularity-sorted list.
func DefaultViewState() ViewState {
	return ViewState{
		Filters: DefaultFilters(),
		Sort:    DefaultSort(),
		Page:    1,
	}
}

// Canonical returns s with every value spelled the way QueryToState would
// produce it: an empty category becomes CategoryAll, out-of-range bounds,
// ratings and pages fall back to their defaults, and brands are trimmed.
// For any s, QueryToState(StateToQuery(s)) equals s.Canonical().
func (s ViewState) Canonical() ViewState {
	f := &s.Filters

	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = CategoryAll
	}

	if _, ok := parseBound(formatFloat(f.PriceMin)); !ok {
		f.PriceMin = 0
	}
	if _, ok := parseBound(formatFloat(f.PriceMax)); !ok {
		f.PriceMax = 0
	}
	if f.PriceMax > 0 && f.PriceMin > f.PriceMax {
		f.PriceMin, f.PriceMax = 0, 0
	}

	f.Brands = parseList(strings.Join(f.Brands, brandSeparator))

	if !(f.MinRating > 0 && f.MinRating <= MaxRating) {
		f.MinRating = 0
	}

	s.Sort = parseSort(formatSort(s.Sort))
	s.Page = max(s.Page, 1)
	return s
}

// StateToQuery serializes s, omitting every parameter at its default value.
// s is canonicalized first.
func StateToQuery(s ViewState) url.Values {
	s = s.Canonical()
	v := url.Values{}
	f := s.Filters

	if f.Query != "" {
		v.Set(ParamQuery, f.Query)
	}
	if f.Category != "" && f.Category != CategoryAll {
		v.Set(ParamCategory, f.Category)
	}
	if f.PriceMin > 0 {
		v.Set(ParamPriceMin, formatFloat(f.PriceMin))
	}
	if f.PriceMax > 0 {
		v.Set(ParamPriceMax, formatFloat(f.PriceMax))
	}
	if len(f.Brands) > 0 {
		v.Set(ParamBrand, strings.Join(f.Brands, brandSeparator))
	}
	if f.MinRating > 0 {
		v.Set(ParamRating, formatFloat(f.MinRating))
	}
	setFlag(v, ParamInStock, f.InStockOnly)
	setFlag(v, ParamNew, f.NewOnly)
	setFlag(v, ParamBestSeller, f.BestSellerOnly)
	setFlag(v, ParamSale, f.OnSaleOnly)

	if sort := formatSort(s.Sort); sort != "" {
		v.Set(ParamSort, sort)
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	return v
}

// EncodeQuery returns the canonical query string for s ("" for the default view).
func EncodeQuery(s ViewState) string {
	return StateToQuery(s).Encode()
}

// QueryToState parses v, substituting defaults for absent or malformed
// parameters. Unknown parameters are ignored.
func QueryToState(v url.Values) ViewState {
	s := DefaultViewState()
	f := &s.Filters

	f.Query = v.Get(ParamQuery)
	if cat := strings.TrimSpace(v.Get(ParamCategory)); cat != "" {
		f.Category = cat
	}

	lo, loOK := parseBound(v.Get(ParamPriceMin))
	hi, hiOK := parseBound(v.Get(ParamPriceMax))
	// An inverted range is malformed and keeps the full range.
	if !(loOK && hiOK && hi > 0 && lo > hi) {
		if loOK {
			f.PriceMin = lo
		}
		if hiOK {
			f.PriceMax = hi
		}
	}

	f.Brands = parseList(v.Get(ParamBrand))

	if r, err := strconv.ParseFloat(v.Get(ParamRating), 64); err == nil && r > 0 && r <= MaxRating {
		f.MinRating = r
	}

	f.InStockOnly = v.Get(ParamInStock) == "true"
	f.NewOnly = v.Get(ParamNew) == "true"
	f.BestSellerOnly = v.Get(ParamBestSeller) == "true"
	f.OnSaleOnly = v.Get(ParamSale) == "true"

	s.Sort = parseSort(v.Get(ParamSort))

	if p, err := strconv.Atoi(v.Get(ParamPage)); err == nil && p >= 1 {
		s.Page = p
	}
	return s
}

// ParseQuery parses a raw query string, with or without the leading '?'.
// Pairs that cannot be decoded are dropped one by one; the rest still apply.
func ParseQuery(raw string) ViewState {
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return QueryToState(v)
}

// ParseSort parses "<field>" or "<field>-asc|-desc". Unknown values fall back
// to DefaultSort.
func ParseSort(raw string) SortState {
	return parseSort(raw)
}

func parseSort(raw string) SortState {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultSort()
	}
	field, dir, hasDir := strings.Cut(raw, "-")
	key := SortKey(field)
	if !key.Valid() {
		return DefaultSort()
	}
	if !hasDir {
		return SortState{Key: key, Direction: key.NaturalDirection()}
	}
	switch Direction(dir) {
	case Asc, Desc:
		return SortState{Key: key, Direction: Direction(dir)}
	}
	return DefaultSort()
}

func formatSort(s SortState) string {
	if !s.Key.Valid() || s == DefaultSort() {
		return ""
	}
	if s.Direction == s.Key.NaturalDirection() || (s.Direction != Asc && s.Direction != Desc) {
		return string(s.Key)
	}
	return string(s.Key) + "-" + string(s.Direction)
}

func parseBound(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return n, true
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, brandSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setFlag(v url.Values, name string, on bool) {
	if on {
		v.Set(name, "true")
	}
}

func formatFloat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
