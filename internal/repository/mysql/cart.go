package mysql

import (
	"context"
	"database/sql"
	"storefront/internal/entity"
)

type CartRepository struct {
	db *sql.DB
}

var cartSelect = `
	SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, ` + productColumns("p") + `
	FROM cart_items c
	JOIN products p ON p.id = c.product_id`

func scanCartItem(row interface{ Scan(...interface{}) error }) (*entity.CartItem, error) {
	var (
		item   entity.CartItem
		images []byte
	)
	dest := append([]interface{}{&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt},
		productDest(&item.Product, &images)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := decodeImages(&item.Product, images); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) List(ctx context.Context, userID int) ([]entity.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, cartSelect+` WHERE c.user_id = ? ORDER BY c.id`, userID)
	if err != nil {
		return nil, translate(err, "list cart")
	}
	defer rows.Close()

	items := []entity.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, translate(err, "list cart")
		}
		items = append(items, *item)
	}
	return items, translate(rows.Err(), "list cart")
}

func (r *CartRepository) Get(ctx context.Context, userID, id int) (*entity.CartItem, error) {
	item, err := scanCartItem(r.db.QueryRowContext(ctx, cartSelect+` WHERE c.user_id = ? AND c.id = ?`, userID, id))
	if err != nil {
		return nil, translate(err, "get cart item")
	}
	return item, nil
}

func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID int) (*entity.CartItem, error) {
	item, err := scanCartItem(r.db.QueryRowContext(ctx, cartSelect+` WHERE c.user_id = ? AND c.product_id = ?`, userID, productID))
	if err != nil {
		return nil, translate(err, "find cart item")
	}
	return item, nil
}

func (r *CartRepository) Add(ctx context.Context, item *entity.CartItem) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)`,
		item.UserID, item.ProductID, item.Quantity)
	if err != nil {
		return translate(err, "add cart item")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "add cart item")
	}
	item.ID = int(id)
	return nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, userID, id, quantity int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?`, quantity, id, userID)
	if err != nil {
		return translate(err, "update cart item")
	}
	return expectRow(res, "update cart item")
}

func (r *CartRepository) Remove(ctx context.Context, userID, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return translate(err, "remove cart item")
	}
	return expectRow(res, "remove cart item")
}

func (r *CartRepository) Clear(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	return translate(err, "clear cart")
}
