package entity

import (
	"encoding/json"
	"github.com/shopspring/decimal"
	"testing"
)

func TestUnitPricePrefersSalePrice(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("10")}
	if !p.UnitPrice().Equal(decimal.RequireFromString("10")) {
		t.Fatalf("unit price = %s, want 10", p.UnitPrice())
	}
	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("7.50"))
	if !p.UnitPrice().Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unit price = %s, want 7.5", p.UnitPrice())
	}
	if !p.OnSale() {
		t.Fatal("expected product to be on sale")
	}
}

func TestProductJSONSalePrice(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":1,"price":"20.00","salePrice":null,"stock":0}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.SalePrice.Valid {
		t.Fatal("null salePrice decoded as valid")
	}
	if p.InStock() {
		t.Fatal("stock 0 reported in stock")
	}

	if err := json.Unmarshal([]byte(`{"id":2,"price":"20.00","salePrice":"15.00"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.SalePrice.Valid || !p.SalePrice.Decimal.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("salePrice = %+v", p.SalePrice)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusPending, StatusDelivered, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOrderActions(t *testing.T) {
	if a := StatusDelivered.Actions(); !a.Reorder || a.Cancel || !a.Track {
		t.Errorf("delivered actions = %+v", a)
	}
	if a := StatusPending.Actions(); a.Reorder || !a.Cancel {
		t.Errorf("pending actions = %+v", a)
	}
	if a := StatusShipped.Actions(); a.Reorder || a.Cancel {
		t.Errorf("shipped actions = %+v", a)
	}
}

func TestProductIDsDistinct(t *testing.T) {
	o := Order{Items: []OrderItem{{ProductID: 3}, {ProductID: 1}, {ProductID: 3}}}
	ids := o.ProductIDs()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 1 {
		t.Fatalf("ids = %v", ids)
	}
}
