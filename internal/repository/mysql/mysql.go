// Package mysql implements the repository interfaces on database/sql with
// the go-sql-driver/mysql driver.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	driver "github.com/go-sql-driver/mysql"
	"storefront/internal/entity"
	"storefront/internal/repository"
)

const (
	errDuplicateEntry  = 1062
	errNoReferencedRow = 1452
)

// New returns every repository backed by db.
func New(db *sql.DB) repository.Repositories {
	return repository.Repositories{
		Users:      &UserRepository{db: db},
		Categories: &CategoryRepository{db: db},
		Products:   &ProductRepository{db: db},
		Cart:       &CartRepository{db: db},
		Orders:     &OrderRepository{db: db},
		Stats:      &StatsRepository{db: db},
	}
}

// translate maps driver errors onto the repository sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	var me *driver.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return fmt.Errorf("%s: %w", what, repository.ErrDuplicate)
	}
	if errors.As(err, &me) && me.Number == errNoReferencedRow {
		return fmt.Errorf("%s: %w", what, repository.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}

func intArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

type StatsRepository struct {
	db *sql.DB
}

func (r *StatsRepository) Stats(ctx context.Context) (*entity.Stats, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products)`

	st := &entity.Stats{}
	err := r.db.QueryRowContext(ctx, query).Scan(&st.TotalRevenue, &st.TotalOrders, &st.TotalUsers, &st.TotalProducts)
	if err != nil {
		return nil, translate(err, "stats")
	}
	return st, nil
}
