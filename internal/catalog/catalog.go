// Package catalog implements product listing queries: free-text search,
// category filtering and the sort orders offered on the products page.
package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"storefront/internal/entity"
	"strconv"
	"strings"
)

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
)

// ParseSort maps a sort parameter to a key; unknown values sort newest first.
func ParseSort(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceLow, SortPriceHigh, SortRating:
		return k
	default:
		return SortNewest
	}
}

type Query struct {
	Search     string
	CategoryID int
	Sort       SortKey
}

// ParseQuery reads search, categoryId and sort from URL query values.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Search: strings.TrimSpace(v.Get("search")),
		Sort:   ParseSort(v.Get("sort")),
	}
	if raw := v.Get("categoryId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			return Query{}, fmt.Errorf("invalid categoryId %q", raw)
		}
		q.CategoryID = id
	}
	return q, nil
}

// Values encodes the query, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.CategoryID > 0 {
		v.Set("categoryId", strconv.Itoa(q.CategoryID))
	}
	if q.Sort != "" && q.Sort != SortNewest {
		v.Set("sort", string(q.Sort))
	}
	return v
}

// Key is a canonical form of the query, stable across parameter order.
func (q Query) Key() string {
	return q.Values().Encode()
}

func (q Query) Matches(p entity.Product) bool {
	if q.CategoryID > 0 && p.CategoryID != q.CategoryID {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

func Filter(products []entity.Product, q Query) []entity.Product {
	out := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy; equal elements keep their relative order.
func Sort(products []entity.Product, key SortKey) []entity.Product {
	out := make([]entity.Product, len(products))
	copy(out, products)

	var less func(a, b entity.Product) bool
	switch key {
	case SortPriceLow:
		less = func(a, b entity.Product) bool { return a.UnitPrice().LessThan(b.UnitPrice()) }
	case SortPriceHigh:
		less = func(a, b entity.Product) bool { return a.UnitPrice().GreaterThan(b.UnitPrice()) }
	case SortRating:
		less = func(a, b entity.Product) bool { return a.Rating.GreaterThan(b.Rating) }
	default:
		less = func(a, b entity.Product) bool { return a.ID > b.ID }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Apply filters then sorts.
func Apply(products []entity.Product, q Query) []entity.Product {
	return Sort(Filter(products, q), q.Sort)
}
