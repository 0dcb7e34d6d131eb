package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eshop/internal/entity"
)

const productColumns = `SELECT p.id, p.name, p.description, p.category_id, c.name, p.price, p.stock, p.image
	FROM products p LEFT JOIN categories c ON p.category_id = c.id`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

// buildListQuery applies the search and category filters, AND-ed together.
func buildListQuery(filter entity.ProductFilter) (string, []interface{}) {
	var where []string
	var args []interface{}

	if filter.Search != "" {
		where = append(where, "p.name LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		where = append(where, "c.name = ?")
		args = append(args, filter.Category)
	}

	query := productColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY p.id", args
}

func (r *ProductRepository) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	query, args := buildListQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	return products, rows.Err()
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx, productColumns+" WHERE p.id = ?", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: product %d", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `INSERT INTO products (name, description, category_id, price, stock, image) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, product.Name, product.Description, product.CategoryID, product.Price, product.Stock, product.Image)
	if err != nil {
		return nil, translateError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	product.ID = int(id)
	return product, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p          entity.Product
		categoryID sql.NullInt64
		category   sql.NullString
		image      sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &categoryID, &category, &p.Price, &p.Stock, &image); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := int(categoryID.Int64)
		p.CategoryID = &id
	}
	if category.Valid {
		p.Category = &category.String
	}
	if image.Valid {
		p.Image = &image.String
	}
	return &p, nil
}
