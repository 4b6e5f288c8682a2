package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

type OrderRepository struct {
	db *sql.DB
}

const orderColumns = `id, user_id, status, subtotal, shipping, tax, total, payment_method,
	ship_first_name, ship_last_name, ship_address, ship_city, ship_state, ship_zip, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*entity.Order, error) {
	o := &entity.Order{}
	a := &o.ShippingAddress
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.PaymentMethod,
		&a.FirstName, &a.LastName, &a.Address, &a.City, &a.State, &a.ZipCode, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("order has no items: %w", repository.ErrInvalidInput)
	}

	need := make(map[int]int, len(order.Items))
	for _, it := range order.Items {
		need[it.ProductID] += it.Quantity
	}
	ids := make([]int, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	// lock rows in id order so concurrent checkouts cannot deadlock
	sort.Ints(ids)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err, "begin order")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, stock FROM products WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id FOR UPDATE`, intArgs(ids)...)
	if err != nil {
		return translate(err, "lock products")
	}
	stock := make(map[int]int, len(ids))
	for rows.Next() {
		var id, s int
		if err := rows.Scan(&id, &s); err != nil {
			rows.Close()
			return translate(err, "lock products")
		}
		stock[id] = s
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return translate(err, "lock products")
	}
	for _, id := range ids {
		s, ok := stock[id]
		if !ok {
			return fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
		}
		if s < need[id] {
			return fmt.Errorf("product %d: %w", id, repository.ErrInsufficientStock)
		}
	}

	a := order.ShippingAddress
	orderQuery := `
		INSERT INTO orders (user_id, status, subtotal, shipping, tax, total, payment_method,
			ship_first_name, ship_last_name, ship_address, ship_city, ship_state, ship_zip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, order.UserID, order.Status, order.Subtotal, order.Shipping, order.Tax, order.Total,
		order.PaymentMethod, a.FirstName, a.LastName, a.Address, a.City, a.State, a.ZipCode)
	if err != nil {
		return translate(err, "insert order")
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return translate(err, "insert order")
	}

	// Insert order items with batch
	itemQuery := `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price) VALUES `
	var values []interface{}
	for _, it := range order.Items {
		itemQuery += "(?, ?, ?, ?, ?),"
		values = append(values, orderID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice)
	}
	itemQuery = itemQuery[:len(itemQuery)-1]
	if _, err := tx.ExecContext(ctx, itemQuery, values...); err != nil {
		return translate(err, "insert order items")
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - ? WHERE id = ?`, need[id], id); err != nil {
			return translate(err, "decrement stock")
		}
	}

	cartQuery := `DELETE FROM cart_items WHERE user_id = ? AND product_id IN (` + placeholders(len(ids)) + `)`
	if _, err := tx.ExecContext(ctx, cartQuery, append([]interface{}{order.UserID}, intArgs(ids)...)...); err != nil {
		return translate(err, "clear purchased cart items")
	}

	if err := tx.Commit(); err != nil {
		return translate(err, "commit order")
	}

	fresh, err := r.GetByID(ctx, int(orderID))
	if err != nil {
		return err
	}
	*order = *fresh
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int) (*entity.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		return nil, translate(err, "get order")
	}
	items, err := r.items(ctx, []int{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []interface{}
	if filter.UserID > 0 {
		query += ` WHERE user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list orders")
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, translate(err, "list orders")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepository) items(ctx context.Context, orderIDs []int) (map[int][]entity.OrderItem, error) {
	query := `SELECT id, order_id, product_id, product_name, quantity, unit_price FROM order_items WHERE order_id IN (` +
		placeholders(len(orderIDs)) + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, intArgs(orderIDs)...)
	if err != nil {
		return nil, translate(err, "list order items")
	}
	defer rows.Close()

	out := make(map[int][]entity.OrderItem, len(orderIDs))
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, translate(err, "list order items")
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, translate(rows.Err(), "list order items")
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, from, to entity.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err, "begin status update")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return translate(err, "update order status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, "update order status")
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists); err != nil {
			return translate(err, "update order status")
		}
		return repository.ErrConflict
	}

	if to == entity.StatusCancelled {
		restock := `
			UPDATE products p JOIN order_items oi ON oi.product_id = p.id
			SET p.stock = p.stock + oi.quantity
			WHERE oi.order_id = ?`
		if _, err := tx.ExecContext(ctx, restock, id); err != nil {
			return translate(err, "restore stock")
		}
	}

	return translate(tx.Commit(), "commit status update")
}
