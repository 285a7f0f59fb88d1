package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/tuandang99/newshop/internal/cart/cache"
	"github.com/tuandang99/newshop/internal/cart/repository"
	"github.com/tuandang99/newshop/internal/domain"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {

		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		cart, errGet := s.loadCart(ctx, sessionID)
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// loadCart reads the cart from the repository. An unknown session gets a
// fresh empty cart, and so does a corrupt stored document: the old value
// is logged and discarded so the session keeps working.
func (s *CartService) loadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, sessionID)
	if err == nil {
		return cart, nil
	}

	if errors.Is(err, repository.ErrCartCorrupt) {
		log.Printf("discarding corrupt cart for session %s: %v", sessionID, err)
		err = repository.ErrCartNotFound
	}
	if errors.Is(err, repository.ErrCartNotFound) {
		return &domain.Cart{
			SessionID: sessionID,
			Items:     nil,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}, nil
	}
	return nil, err
}

// AddItem merges the incoming line into the cart: an existing line with
// the same item id gets its quantity incremented by item.Quantity, a new
// id is appended.
func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if i := cart.Find(item.ID); i >= 0 {
		cart.Items[i].Quantity += item.Quantity
	} else {
		cart.Items = append(cart.Items, item)
	}

	if errUpsert := s.repo.UpsertCart(ctx, cart); errUpsert != nil {
		log.Printf("repo add item error: %v \n", errUpsert)
		return nil, errUpsert
	}

	invalidateCache(s, sessionID)
	return cart, nil
}

// UpdateQuantity sets the line's quantity to the exact given value.
// A non-positive quantity removes the line; an unknown id is a no-op.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, itemID)
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.Find(itemID)
	if i < 0 {
		return cart, nil
	}
	cart.Items[i].Quantity = quantity

	if errUpsert := s.repo.UpsertCart(ctx, cart); errUpsert != nil {
		log.Printf("repo update item quantity error: %v \n", errUpsert)
		return nil, errUpsert
	}

	invalidateCache(s, sessionID)
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	i := cart.Find(itemID)
	if i < 0 {
		return cart, nil
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	if errUpsert := s.repo.UpsertCart(ctx, cart); errUpsert != nil {
		log.Printf("repo remove item error: %v \n", errUpsert)
		return nil, errUpsert
	}

	invalidateCache(s, sessionID)
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	errDelete := s.repo.DeleteCart(ctx, sessionID)
	if errDelete != nil && !errors.Is(errDelete, repository.ErrCartNotFound) {
		log.Printf("repo delete cart error: %v \n", errDelete)
		return errDelete
	}

	invalidateCache(s, sessionID)
	return nil
}

// ToggleOpen flips the cart panel's open/closed flag.
func (s *CartService) ToggleOpen(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.Open = !cart.Open

	if errUpsert := s.repo.UpsertCart(ctx, cart); errUpsert != nil {
		log.Printf("repo toggle open error: %v \n", errUpsert)
		return nil, errUpsert
	}

	invalidateCache(s, sessionID)
	return cart, nil
}

func invalidateCache(s *CartService, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	errInvalidate := s.cache.Delete(ctx, sessionID)
	if errInvalidate != nil {
		log.Printf("cache invalidate error: %v \n", errInvalidate)
	}
}
