package repository

import (
	"context"
	"errors"

	"github.com/tuandang99/newshop/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
}
