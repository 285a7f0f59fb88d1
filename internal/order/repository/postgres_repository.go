package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/tuandang99/newshop/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "newshop_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// CreateOrder inserts the order and fills in the server-assigned id,
// default status and creation timestamp. The items snapshot is written
// verbatim; its internal structure is not inspected here.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (name, email, phone, address, items, total)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, status, created_at`

	err := r.db.QueryRowContext(ctx, query,
		order.Name,
		order.Email,
		order.Phone,
		order.Address,
		order.Items,
		order.Total,
	).Scan(&order.ID, &order.Status, &order.CreatedAt)

	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT id, name, email, phone, address, items, total, status, created_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Name,
		&order.Email,
		&order.Phone,
		&order.Address,
		&order.Items,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	return &order, nil
}

func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT id, name, email, phone, address, items, total, status, created_at
	          FROM orders ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.Name,
			&order.Email,
			&order.Phone,
			&order.Address,
			&order.Items,
			&order.Total,
			&order.Status,
			&order.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	query := `UPDATE orders SET status = $2 WHERE id = $1
	          RETURNING id, name, email, phone, address, items, total, status, created_at`

	var order domain.Order
	err := r.db.QueryRowContext(ctx, query, id, status).Scan(
		&order.ID,
		&order.Name,
		&order.Email,
		&order.Phone,
		&order.Address,
		&order.Items,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	return &order, nil
}

// DB exposes the underlying handle so other repositories (products)
// can share the same connection pool.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Close() error {
	return r.db.Close()
}
