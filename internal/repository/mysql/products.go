package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/repository"
	"strings"
)

type ProductRepository struct {
	db *sql.DB
}

func productColumns(alias string) string {
	cols := []string{"id", "name", "description", "price", "sale_price", "image_url", "images",
		"rating", "review_count", "stock", "vendor_id", "category_id", "created_at"}
	if alias != "" {
		for i, c := range cols {
			cols[i] = alias + "." + c
		}
	}
	return strings.Join(cols, ", ")
}

func productDest(p *entity.Product, images *[]byte) []interface{} {
	return []interface{}{&p.ID, &p.Name, &p.Description, &p.Price, &p.SalePrice, &p.ImageURL, images,
		&p.Rating, &p.ReviewCount, &p.Stock, &p.VendorID, &p.CategoryID, &p.CreatedAt}
}

func decodeImages(p *entity.Product, raw []byte) error {
	if len(raw) == 0 {
		p.Images = nil
		return nil
	}
	return json.Unmarshal(raw, &p.Images)
}

func encodeImages(images []string) (interface{}, error) {
	if len(images) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

var orderBy = map[catalog.SortKey]string{
	catalog.SortNewest:    "id DESC",
	catalog.SortPriceLow:  "COALESCE(sale_price, price) ASC, id ASC",
	catalog.SortPriceHigh: "COALESCE(sale_price, price) DESC, id ASC",
	catalog.SortRating:    "rating DESC, id ASC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func listQuery(q catalog.Query) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if q.Search != "" {
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if q.CategoryID > 0 {
		where = append(where, "category_id = ?")
		args = append(args, q.CategoryID)
	}

	query := `SELECT ` + productColumns("") + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	order, ok := orderBy[catalog.ParseSort(string(q.Sort))]
	if !ok {
		order = orderBy[catalog.SortNewest]
	}
	return query + " ORDER BY " + order, args
}

func (r *ProductRepository) List(ctx context.Context, q catalog.Query) ([]entity.Product, error) {
	query, args := listQuery(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list products")
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		var (
			p      entity.Product
			images []byte
		)
		if err := rows.Scan(productDest(&p, &images)...); err != nil {
			return nil, translate(err, "list products")
		}
		if err := decodeImages(&p, images); err != nil {
			return nil, translate(err, "list products")
		}
		products = append(products, p)
	}
	return products, translate(rows.Err(), "list products")
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	var (
		p      entity.Product
		images []byte
	)
	query := `SELECT ` + productColumns("") + ` FROM products WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(productDest(&p, &images)...); err != nil {
		return nil, translate(err, "get product")
	}
	if err := decodeImages(&p, images); err != nil {
		return nil, translate(err, "get product")
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return translate(err, "create product")
	}
	query := `
		INSERT INTO products (name, description, price, sale_price, image_url, images, rating, review_count, stock, vendor_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.SalePrice, p.ImageURL, images,
		p.Rating, p.ReviewCount, p.Stock, p.VendorID, p.CategoryID)
	if err != nil {
		return translate(err, "create product")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create product")
	}
	p.ID = int(id)
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return translate(err, "update product")
	}
	query := `
		UPDATE products SET name = ?, description = ?, price = ?, sale_price = ?, image_url = ?, images = ?, stock = ?, category_id = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.SalePrice, p.ImageURL, images,
		p.Stock, p.CategoryID, p.ID)
	if err != nil {
		return translate(err, "update product")
	}
	return expectRow(res, "update product")
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete product")
	}
	return expectRow(res, "delete product")
}

func (r *ProductRepository) AdjustStock(ctx context.Context, id int, change int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = stock + ? WHERE id = ? AND stock + ? >= 0`, change, id, change)
	if err != nil {
		return translate(err, "adjust stock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, "adjust stock")
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return translate(err, "adjust stock")
	}
	return repository.ErrInsufficientStock
}

// expectRow relies on the DSN setting clientFoundRows so an update that
// changes nothing still counts its matched row.
func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, what)
	}
	if n == 0 {
		return translate(sql.ErrNoRows, what)
	}
	return nil
}
