package repository

import (
	"context"
	"database/sql"

	"eshop/internal/entity"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db}
}

// AddCartItem always inserts a new row; quantities for the same product are
// not merged.
func (r *CartRepository) AddCartItem(ctx context.Context, item *entity.CartItem) (*entity.CartItem, error) {
	query := `INSERT INTO cart (user_id, product_id, quantity) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, item.UserID, item.ProductID, item.Quantity)
	if err != nil {
		return nil, translateError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	item.ID = int(id)
	return item, nil
}

func (r *CartRepository) ListCartItems(ctx context.Context, userID int) ([]entity.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, product_id, quantity FROM cart WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []entity.CartItem{}
	for rows.Next() {
		var item entity.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
