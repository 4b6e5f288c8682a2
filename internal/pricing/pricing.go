// Package pricing holds the money rules shared by the server and the client:
// cart and order totals, sale discounts and quantity limits.
//
// All amounts are fixed-point decimals rounded to cents, so a total shown
// in the cart is exactly the total charged at checkout.
package pricing

import (
	"github.com/shopspring/decimal"
	"storefront/internal/entity"
	"strings"
)

const places = 2

var (
	// FlatShipping applies to any non-empty cart.
	FlatShipping = decimal.RequireFromString("15.00")
	// TaxRate is applied to the subtotal.
	TaxRate = decimal.RequireFromString("0.08")

	hundred = decimal.NewFromInt(100)
)

// Line is a priced quantity of one product.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Summary struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Summarize prices a set of lines.
func Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
		count += l.Quantity
	}
	subtotal = subtotal.Round(places)

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = FlatShipping
	}
	tax := subtotal.Mul(TaxRate).Round(places)

	return Summary{
		ItemCount: count,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Tax:       tax,
		Total:     subtotal.Add(shipping).Add(tax),
	}
}

// CartLines converts cart items to priced lines using each product's unit price.
func CartLines(items []entity.CartItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{UnitPrice: it.Product.UnitPrice(), Quantity: it.Quantity})
	}
	return lines
}

func SummarizeCart(items []entity.CartItem) Summary {
	return Summarize(CartLines(items))
}

// DiscountPercent is the whole-number percentage a sale price takes off the
// list price, or 0 when the product is not on sale.
func DiscountPercent(p entity.Product) int {
	if !p.SalePrice.Valid || !p.Price.IsPositive() {
		return 0
	}
	off := p.Price.Sub(p.SalePrice.Decimal).Div(p.Price).Mul(hundred)
	return int(off.Round(0).IntPart())
}

// ClampQuantity keeps a requested quantity within [1, stock]. Products with
// no stock clamp to 1; CanPurchase gates those separately.
func ClampQuantity(quantity, stock int) int {
	if quantity < 1 || stock < 1 {
		return 1
	}
	if quantity > stock {
		return stock
	}
	return quantity
}

func CanPurchase(p entity.Product) bool {
	return p.Stock > 0
}

// Format renders an amount for display, e.g. "$1,234.50".
func Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(places)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
