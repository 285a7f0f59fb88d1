package repository

import (
	"context"
	"errors"

	"github.com/tuandang99/newshop/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")

	// ErrCartCorrupt marks a stored cart that no longer decodes. The
	// service layer treats it like an empty cart so one bad document
	// never breaks a session.
	ErrCartCorrupt = errors.New("stored cart is not decodable")
)

// CartRepository defines the interface for cart persistence.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, sessionID string) error
}
