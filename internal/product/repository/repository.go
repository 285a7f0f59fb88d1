package repository

import (
	"context"
	"errors"

	"github.com/tuandang99/newshop/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}
