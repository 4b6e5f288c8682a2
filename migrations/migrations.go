package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var tables = []struct {
	name  string
	query string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			role VARCHAR(20) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`},
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			description TEXT NOT NULL,
			image_url VARCHAR(512) NOT NULL DEFAULT ''
		);
	`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			sale_price DECIMAL(12,2) NULL,
			image_url VARCHAR(512) NOT NULL DEFAULT '',
			images JSON NULL,
			rating DECIMAL(3,2) NOT NULL DEFAULT 0,
			review_count INT NOT NULL DEFAULT 0,
			stock INT NOT NULL,
			vendor_id INT NOT NULL DEFAULT 0,
			category_id INT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_products_category (category_id),
			FOREIGN KEY (category_id) REFERENCES categories(id)
		);
	`},
	{"cart_items", `
		CREATE TABLE IF NOT EXISTS cart_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			product_id INT NOT NULL,
			quantity INT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_cart_user_product (user_id, product_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
		);
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			status VARCHAR(20) NOT NULL,
			subtotal DECIMAL(12,2) NOT NULL,
			shipping DECIMAL(12,2) NOT NULL,
			tax DECIMAL(12,2) NOT NULL,
			total DECIMAL(12,2) NOT NULL,
			payment_method VARCHAR(20) NOT NULL,
			ship_first_name VARCHAR(100) NOT NULL,
			ship_last_name VARCHAR(100) NOT NULL,
			ship_address VARCHAR(255) NOT NULL,
			ship_city VARCHAR(100) NOT NULL,
			ship_state VARCHAR(100) NOT NULL,
			ship_zip VARCHAR(20) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_orders_user (user_id, created_at),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);
	`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			product_id INT NOT NULL,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			unit_price DECIMAL(12,2) NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);
	`},
}

// Delay between attempts; tests shorten it.
var retryDelay = 1 * time.Second

// AutoMigrate creates every storefront table that does not exist yet, in
// dependency order. Each statement is retried up to retries more times.
func AutoMigrate(ctx context.Context, retries int, db *sql.DB) error {
	for _, t := range tables {
		_, err := db.ExecContext(ctx, t.query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
				}
				_, err = db.ExecContext(ctx, t.query)
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", t.name, err)
		}
	}
	return nil
}
