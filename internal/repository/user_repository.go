package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eshop/internal/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, pass, email, currency, is_admin) VALUES (?, ?, ?, ?, 0)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Password, user.Email, user.Currency)
	if err != nil {
		return nil, translateError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	user.ID = int(id)
	user.IsAdmin = false
	return user, nil
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	user := &entity.User{}
	query := `SELECT id, username, pass, email, currency, is_admin, sales FROM users WHERE username = ?`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.Currency, &user.IsAdmin, &user.Sales)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %q", entity.ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers never selects the password column.
func (r *UserRepository) ListUsers(ctx context.Context) ([]entity.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email, sales FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entity.UserSummary{}
	for rows.Next() {
		var u entity.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Sales); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
