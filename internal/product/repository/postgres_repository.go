package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tuandang99/newshop/internal/domain"
)

type Repository struct {
	db *sql.DB
}

// NewRepository shares the connection pool opened by the order repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, slug, description, price, image, category, in_stock, created_at`

func (r *Repository) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.Image, &p.Category, &p.InStock, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}

	return &p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (name, slug, description, price, image, category, in_stock)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Image,
		product.Category,
		product.InStock,
	).Scan(&product.ID, &product.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *domain.Product) error {
	query := `UPDATE products
	          SET name = $2, slug = $3, description = $4, price = $5,
	              image = $6, category = $7, in_stock = $8
	          WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.Image,
		product.Category,
		product.InStock,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProduct(rows *sql.Rows) (*domain.Product, error) {
	var p domain.Product
	if err := rows.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.Image, &p.Category, &p.InStock, &p.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	return &p, nil
}
