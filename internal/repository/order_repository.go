package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eshop/internal/entity"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// PlaceOrder creates one pending order per line in a single transaction.
// Stock is taken with a conditional decrement so concurrent placements for the
// same product cannot oversell; any failing line rolls back the whole call.
func (r *OrderRepository) PlaceOrder(ctx context.Context, userID int, lines []entity.OrderLine) ([]entity.Order, error) {
	orders := make([]entity.Order, 0, len(lines))
	now := time.Now().UTC()

	err := execTx(ctx, r.db, func(tx *sql.Tx) error {
		var total float64

		for _, line := range lines {
			res, err := tx.ExecContext(ctx,
				`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
				line.Quantity, line.ProductID, line.Quantity)
			if err != nil {
				return translateError(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}

			var price float64
			err = tx.QueryRowContext(ctx, `SELECT price FROM products WHERE id = ?`, line.ProductID).Scan(&price)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: product %d", entity.ErrNotFound, line.ProductID)
			}
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: product %d", entity.ErrInsufficientStock, line.ProductID)
			}
			total += price * float64(line.Quantity)

			res, err = tx.ExecContext(ctx,
				`INSERT INTO orders (user_id, product_id, quantity, status, created_at) VALUES (?, ?, ?, ?, ?)`,
				userID, line.ProductID, line.Quantity, entity.OrderStatusPending, now)
			if err != nil {
				return translateError(err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}

			orders = append(orders, entity.Order{
				ID:        int(id),
				UserID:    userID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Status:    entity.OrderStatusPending,
				CreatedAt: now,
			})
		}

		res, err := tx.ExecContext(ctx, `UPDATE users SET sales = sales + ? WHERE id = ?`, total, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 && total > 0 {
			return fmt.Errorf("%w: user %d", entity.ErrNotFound, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	order := &entity.Order{}
	query := `SELECT id, user_id, product_id, quantity, status, created_at FROM orders WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.UserID, &order.ProductID, &order.Quantity, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %d", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order from one status to another. It fails with
// ErrConflict when the order is no longer in the from status.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int, from, to string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: order %d is no longer %s", entity.ErrConflict, id, from)
	}
	return nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, status string) ([]entity.Order, error) {
	query := `SELECT id, user_id, product_id, quantity, status, created_at FROM orders`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SalesStats sums ordered quantities per product, leaving out cancelled orders.
func (r *OrderRepository) SalesStats(ctx context.Context) ([]entity.SalesStat, error) {
	query := `
		SELECT p.name, SUM(o.quantity) AS total_sold
		FROM orders o
		JOIN products p ON o.product_id = p.id
		WHERE o.status <> ?
		GROUP BY p.id, p.name
		ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, query, entity.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []entity.SalesStat{}
	for rows.Next() {
		var s entity.SalesStat
		if err := rows.Scan(&s.Name, &s.TotalSold); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
