package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/tuandang99/newshop/internal/domain"
	"github.com/tuandang99/newshop/internal/order/repository"
)

var ErrEmptyCart = errors.New("cart is empty")

// CartStore is the slice of the cart service the checkout path needs.
// Consumers define this interface, not the cart implementation.
type CartStore interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// OrderNotifier hands a created order to the notification side channel.
// The boolean is advisory only; order placement never depends on it.
type OrderNotifier interface {
	Dispatch(order *domain.Order, items []domain.CartItem) bool
}

type OrderService struct {
	repo     repository.OrderRepository
	carts    CartStore
	notifier OrderNotifier
}

func NewOrderService(repo repository.OrderRepository, carts CartStore, notifier OrderNotifier) *OrderService {
	return &OrderService{
		repo:     repo,
		carts:    carts,
		notifier: notifier,
	}
}

type CreateOrderInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Items   string
	Total   float64

	// LineItems, when the caller has them in memory, spares the
	// notifier a defensive re-parse of Items.
	LineItems []domain.CartItem
}

// Create persists the order and hands it to the notification dispatcher.
// Notification delivery is fire-and-forget: its outcome never changes
// what the caller returns to the client.
func (s *OrderService) Create(ctx context.Context, in *CreateOrderInput) (*domain.Order, error) {
	order := &domain.Order{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
		Items:   in.Items,
		Total:   in.Total,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.notifier.Dispatch(order, in.LineItems)

	return order, nil
}

type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Checkout snapshots the session's cart into an order. The cart is
// cleared only after the order row exists; a failed clear is logged and
// swallowed so the customer still sees a successful checkout.
func (s *OrderService) Checkout(ctx context.Context, sessionID string, customer Customer) (*domain.Order, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	snapshot, err := json.Marshal(cart.Items)
	if err != nil {
		return nil, fmt.Errorf("serialize cart items: %w", err)
	}

	order, err := s.Create(ctx, &CreateOrderInput{
		Name:      customer.Name,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Address,
		Items:     string(snapshot),
		Total:     cart.Total(),
		LineItems: cart.Items,
	})
	if err != nil {
		return nil, err
	}

	if errClear := s.carts.ClearCart(ctx, sessionID); errClear != nil {
		log.Printf("failed to clear cart for session %s after order %d: %v", sessionID, order.ID, errClear)
	}

	return order, nil
}

func (s *OrderService) List(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	return s.repo.UpdateStatus(ctx, id, status)
}
