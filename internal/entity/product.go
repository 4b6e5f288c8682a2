package entity

import (
	"github.com/shopspring/decimal"
	"time"
)

type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type Product struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	ImageURL    string              `json:"imageUrl"`
	Images      []string            `json:"images,omitempty"`
	Rating      decimal.Decimal     `json:"rating"`
	ReviewCount int                 `json:"reviewCount"`
	Stock       int                 `json:"stock"`
	VendorID    int                 `json:"vendorId"`
	CategoryID  int                 `json:"categoryId"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// UnitPrice is the price a buyer pays: the sale price when one is set.
func (p Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func (p Product) OnSale() bool {
	return p.SalePrice.Valid
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

/*
Mysql Schema:
CREATE TABLE products (
	id INT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	price DECIMAL(12,2) NOT NULL,
	sale_price DECIMAL(12,2) NULL,
	image_url VARCHAR(512) NOT NULL,
	images JSON NULL,
	rating DECIMAL(3,2) NOT NULL DEFAULT 0,
	review_count INT NOT NULL DEFAULT 0,
	stock INT NOT NULL,
	vendor_id INT NOT NULL,
	category_id INT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
*/
