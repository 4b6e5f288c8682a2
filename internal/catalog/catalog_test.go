package catalog

import (
	"github.com/shopspring/decimal"
	"net/url"
	"storefront/internal/entity"
	"testing"
)

func p(id int, price, sale, rating string) entity.Product {
	prod := entity.Product{ID: id, Price: decimal.RequireFromString(price), Rating: decimal.RequireFromString(rating)}
	if sale != "" {
		prod.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(sale))
	}
	return prod
}

func unitPrices(ps []entity.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.UnitPrice().String()
	}
	return out
}

func ids(ps []entity.Product) []int {
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortPriceLowUsesSalePrice(t *testing.T) {
	in := []entity.Product{p(1, "20", "", "0"), p(2, "5", "", "0"), p(3, "10", "3", "0")}
	got := unitPrices(Sort(in, SortPriceLow))
	want := []string{"3", "5", "20"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("price-low = %v, want %v", got, want)
		}
	}
	if in[0].ID != 1 {
		t.Fatal("Sort modified its input")
	}
}

func TestSortOrders(t *testing.T) {
	in := []entity.Product{
		p(1, "20", "", "4.5"),
		p(2, "5", "", "3.0"),
		p(3, "10", "3", "4.9"),
		p(4, "8", "", "4.5"),
	}
	tests := []struct {
		key  SortKey
		want []int
	}{
		{SortNewest, []int{4, 3, 2, 1}},
		{SortPriceLow, []int{3, 2, 4, 1}},
		{SortPriceHigh, []int{1, 4, 2, 3}},
		{SortRating, []int{3, 1, 4, 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if got := ids(Sort(in, tt.key)); !equalInts(got, tt.want) {
				t.Errorf("Sort(%s) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := map[string]SortKey{
		"":           SortNewest,
		"newest":     SortNewest,
		"price-low":  SortPriceLow,
		"PRICE-HIGH": SortPriceHigh,
		"rating":     SortRating,
		"popular":    SortNewest,
	}
	for in, want := range tests {
		if got := ParseSort(in); got != want {
			t.Errorf("ParseSort(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFilter(t *testing.T) {
	products := []entity.Product{
		{ID: 1, Name: "Wireless Headphones", Description: "Noise cancelling", CategoryID: 1},
		{ID: 2, Name: "Running Shoes", Description: "Lightweight", CategoryID: 2},
		{ID: 3, Name: "Desk Lamp", Description: "Wireless charging base", CategoryID: 3},
	}
	tests := []struct {
		name string
		q    Query
		want []int
	}{
		{"empty query", Query{}, []int{1, 2, 3}},
		{"search name case-insensitive", Query{Search: "SHOES"}, []int{2}},
		{"search description", Query{Search: "wireless"}, []int{1, 3}},
		{"category", Query{CategoryID: 3}, []int{3}},
		{"search and category", Query{Search: "wireless", CategoryID: 1}, []int{1}},
		{"no match", Query{Search: "guitar"}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Filter(products, tt.q)); !equalInts(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{"search": {"  lamp "}, "categoryId": {"7"}, "sort": {"rating"}})
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if q.Search != "lamp" || q.CategoryID != 7 || q.Sort != SortRating {
		t.Fatalf("query = %+v", q)
	}
	if _, err := ParseQuery(url.Values{"categoryId": {"abc"}}); err == nil {
		t.Fatal("expected error for non-numeric categoryId")
	}
}

func TestQueryKeyIsCanonical(t *testing.T) {
	a := Query{Search: "lamp", CategoryID: 2, Sort: SortNewest}
	b := Query{CategoryID: 2, Search: "lamp"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() != "categoryId=2&search=lamp" {
		t.Fatalf("key = %q", a.Key())
	}
}
