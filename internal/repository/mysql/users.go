package mysql

import (
	"context"
	"database/sql"
	"storefront/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

const userColumns = `id, first_name, last_name, email, role, password_hash, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (first_name, last_name, email, role, password_hash) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.FirstName, user.LastName, user.Email, user.Role, user.PasswordHash)
	if err != nil {
		return translate(err, "create user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create user")
	}
	user.ID = int(id)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get user")
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, translate(err, "get user by email")
	}
	return u, nil
}

type CategoryRepository struct {
	db *sql.DB
}

func (r *CategoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, image_url FROM categories ORDER BY id`)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	categories := []entity.Category{}
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, translate(err, "list categories")
		}
		categories = append(categories, c)
	}
	return categories, translate(rows.Err(), "list categories")
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*entity.Category, error) {
	c := &entity.Category{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description, image_url FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL)
	if err != nil {
		return nil, translate(err, "get category")
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `INSERT INTO categories (name, description, image_url) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, category.Name, category.Description, category.ImageURL)
	if err != nil {
		return translate(err, "create category")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create category")
	}
	category.ID = int(id)
	return nil
}
