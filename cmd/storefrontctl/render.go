package main

import (
	"fmt"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"io"
	"storefront/internal/entity"
	"storefront/internal/pricing"
	"strings"
)

var statusColors = map[entity.OrderStatus]text.Colors{
	entity.StatusDelivered:  {text.FgGreen},
	entity.StatusShipped:    {text.FgBlue},
	entity.StatusProcessing: {text.FgYellow},
	entity.StatusPending:    {text.FgHiYellow, text.Bold},
	entity.StatusCancelled:  {text.FgRed},
}

func statusBadge(s entity.OrderStatus) string {
	if colors, ok := statusColors[s]; ok {
		return colors.Sprint(string(s))
	}
	return string(s)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func priceCell(p entity.Product) string {
	if !p.OnSale() {
		return pricing.Format(p.Price)
	}
	return fmt.Sprintf("%s (was %s, -%d%%)", pricing.Format(p.UnitPrice()), pricing.Format(p.Price), pricing.DiscountPercent(p))
}

func stockCell(p entity.Product) string {
	if !pricing.CanPurchase(p) {
		return text.FgRed.Sprint("Out of stock")
	}
	return fmt.Sprint(p.Stock)
}

func renderProducts(w io.Writer, products []entity.Product) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Price", "Rating", "Stock"})
	for _, p := range products {
		t.AppendRow(table.Row{p.ID, p.Name, priceCell(p), fmt.Sprintf("%s (%d)", p.Rating.StringFixed(1), p.ReviewCount), stockCell(p)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d products", len(products))})
	t.Render()
}

func renderProduct(w io.Writer, p *entity.Product) {
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Description", p.Description},
		{"Price", priceCell(*p)},
		{"Rating", fmt.Sprintf("%s from %d reviews", p.Rating.StringFixed(1), p.ReviewCount)},
		{"Stock", stockCell(*p)},
		{"Category", p.CategoryID},
		{"Images", strings.Join(p.Images, "\n")},
	})
	t.Render()
}

func renderCategories(w io.Writer, categories []entity.Category) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Description"})
	for _, c := range categories {
		t.AppendRow(table.Row{c.ID, c.Name, c.Description})
	}
	t.Render()
}

func renderCart(w io.Writer, items []entity.CartItem, s pricing.Summary) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Line", "Product", "Unit", "Qty", "Amount"})
	for _, it := range items {
		line := pricing.Line{UnitPrice: it.Product.UnitPrice(), Quantity: it.Quantity}
		t.AppendRow(table.Row{it.ID, it.Product.Name, pricing.Format(line.UnitPrice), it.Quantity, pricing.Format(line.Amount())})
	}
	t.AppendFooter(table.Row{"", "", "", "Subtotal", pricing.Format(s.Subtotal)})
	t.AppendFooter(table.Row{"", "", "", "Shipping", pricing.Format(s.Shipping)})
	t.AppendFooter(table.Row{"", "", "", "Tax", pricing.Format(s.Tax)})
	t.AppendFooter(table.Row{"", "", "", "Total", pricing.Format(s.Total)})
	t.Render()
}

func actionList(s entity.OrderStatus) string {
	a := s.Actions()
	var out []string
	if a.Track {
		out = append(out, "track")
	}
	if a.Reorder {
		out = append(out, "reorder")
	}
	if a.Cancel {
		out = append(out, "cancel")
	}
	return strings.Join(out, ", ")
}

func renderOrders(w io.Writer, orders []entity.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders yet")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Order", "Placed", "Items", "Total", "Status", "Actions"})
	for _, o := range orders {
		count := 0
		for _, it := range o.Items {
			count += it.Quantity
		}
		t.AppendRow(table.Row{fmt.Sprintf("#%d", o.ID), o.CreatedAt.Format("Jan 2, 2006"), count, pricing.Format(o.Total), statusBadge(o.Status), actionList(o.Status)})
	}
	t.Render()
}

func renderOrder(w io.Writer, o *entity.Order) {
	fmt.Fprintf(w, "Order #%d  %s  %s\n", o.ID, statusBadge(o.Status), o.CreatedAt.Format("Jan 2, 2006 15:04"))
	t := newTable(w)
	t.AppendHeader(table.Row{"Product", "Unit", "Qty"})
	for _, it := range o.Items {
		t.AppendRow(table.Row{it.ProductName, pricing.Format(it.UnitPrice), it.Quantity})
	}
	t.AppendFooter(table.Row{"Subtotal", pricing.Format(o.Subtotal)})
	t.AppendFooter(table.Row{"Shipping", pricing.Format(o.Shipping)})
	t.AppendFooter(table.Row{"Tax", pricing.Format(o.Tax)})
	t.AppendFooter(table.Row{"Total", pricing.Format(o.Total)})
	t.Render()
}

func renderStats(w io.Writer, s *entity.Stats) {
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Total revenue", pricing.Format(s.TotalRevenue)},
		{"Orders", s.TotalOrders},
		{"Users", s.TotalUsers},
		{"Products", s.TotalProducts},
	})
	t.Render()
}
