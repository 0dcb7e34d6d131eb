package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Tables are created in dependency order; foreign keys point backwards.
var schema = []struct {
	name  string
	query string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			pass VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			sales DOUBLE NOT NULL DEFAULT 0
		);
	`},
	{"categories", `
		CREATE TABLE IF NOT EXISTS categories (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE
		);
	`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			category_id INT NULL,
			price DOUBLE NOT NULL,
			stock INT NOT NULL,
			image VARCHAR(255) NULL,
			CONSTRAINT stock_non_negative CHECK (stock >= 0),
			FOREIGN KEY (category_id) REFERENCES categories(id)
		);
	`},
	{"cart", `
		CREATE TABLE IF NOT EXISTS cart (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			product_id INT NOT NULL,
			quantity INT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			product_id INT NOT NULL,
			quantity INT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX orders_status_idx (status),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (product_id) REFERENCES products(id)
		);
	`},
}

// AutoMigrate creates every table that does not exist yet, retrying each
// statement up to retries times while the database comes up.
func AutoMigrate(ctx context.Context, db *sql.DB, retries int) error {
	for _, table := range schema {
		_, err := db.ExecContext(ctx, table.query)
		for i := 0; err != nil && i < retries; i++ {
			// Retry creating the table
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(1 * time.Second):
			}
			_, err = db.ExecContext(ctx, table.query)
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", table.name, err)
		}
	}
	return nil
}
