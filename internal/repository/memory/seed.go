package memory

import (
	"context"
	"github.com/shopspring/decimal"
	"storefront/internal/entity"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sale(s string) decimal.NullDecimal { return decimal.NewNullDecimal(money(s)) }

// Seed fills an empty store with a demo catalog.
func Seed(ctx context.Context, s *Store) error {
	repos := s.Repositories()

	categories := []entity.Category{
		{Name: "Electronics", Description: "Headphones, speakers and gadgets", ImageURL: "https://images.example.com/categories/electronics.jpg"},
		{Name: "Home", Description: "Lighting, decor and kitchen", ImageURL: "https://images.example.com/categories/home.jpg"},
		{Name: "Sports", Description: "Shoes, apparel and gear", ImageURL: "https://images.example.com/categories/sports.jpg"},
	}
	for i := range categories {
		if err := repos.Categories.Create(ctx, &categories[i]); err != nil {
			return err
		}
	}

	products := []entity.Product{
		{Name: "Wireless Headphones", Description: "Over-ear, noise cancelling, 30h battery", Price: money("199.99"), SalePrice: sale("149.99"),
			ImageURL: "https://images.example.com/products/headphones.jpg", Rating: money("4.6"), ReviewCount: 212, Stock: 25, CategoryID: categories[0].ID},
		{Name: "Bluetooth Speaker", Description: "Waterproof portable speaker", Price: money("59.00"),
			ImageURL: "https://images.example.com/products/speaker.jpg", Rating: money("4.2"), ReviewCount: 87, Stock: 40, CategoryID: categories[0].ID},
		{Name: "Smart Watch", Description: "Heart rate, GPS and sleep tracking", Price: money("249.00"),
			ImageURL: "https://images.example.com/products/watch.jpg", Rating: money("4.4"), ReviewCount: 154, Stock: 0, CategoryID: categories[0].ID},
		{Name: "Desk Lamp", Description: "LED lamp with wireless charging base", Price: money("39.50"), SalePrice: sale("29.50"),
			ImageURL: "https://images.example.com/products/lamp.jpg", Rating: money("4.1"), ReviewCount: 33, Stock: 12, CategoryID: categories[1].ID},
		{Name: "Ceramic Mug Set", Description: "Four stoneware mugs", Price: money("24.00"),
			ImageURL: "https://images.example.com/products/mugs.jpg", Rating: money("4.8"), ReviewCount: 61, Stock: 30, CategoryID: categories[1].ID},
		{Name: "Running Shoes", Description: "Lightweight trainers for road running", Price: money("89.95"),
			ImageURL: "https://images.example.com/products/shoes.jpg", Rating: money("4.3"), ReviewCount: 120, Stock: 18, CategoryID: categories[2].ID},
		{Name: "Yoga Mat", Description: "Non-slip 6mm mat", Price: money("29.99"), SalePrice: sale("19.99"),
			ImageURL: "https://images.example.com/products/mat.jpg", Rating: money("4.5"), ReviewCount: 45, Stock: 3, CategoryID: categories[2].ID},
	}
	for i := range products {
		products[i].Images = []string{products[i].ImageURL}
		if err := repos.Products.Create(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}
