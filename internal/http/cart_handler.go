package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tuandang99/newshop/internal/domain"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
	ToggleOpen(ctx context.Context, sessionID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	SessionID string            `json:"session_id"`
	Items     []domain.CartItem `json:"items"`
	Open      bool              `json:"open"`
	Total     float64           `json:"total"`
}

func cartResponse(cart *domain.Cart) CartResponseDTO {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return CartResponseDTO{
		SessionID: cart.SessionID,
		Items:     items,
		Open:      cart.Open,
		Total:     cart.Total(),
	}
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var errs []string
	if req.ID == "" {
		errs = append(errs, "id is required")
	}
	if req.Name == "" {
		errs = append(errs, "name is required")
	}
	if req.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	if req.Quantity < 1 {
		errs = append(errs, "quantity must be at least 1")
	}
	if len(errs) > 0 {
		respondValidationError(w, errs)
		return
	}

	cart, err := h.carts.AddItem(ctx, sessionID, domain.CartItem{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Image:    req.Image,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not add item to cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(cart))
}

// PUT /api/cart/items/{item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// A non-positive quantity removes the line; the service handles it.
	cart, err := h.carts.UpdateQuantity(ctx, sessionID, itemID, req.Quantity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not update quantity")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

// DELETE /api/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	itemID := chi.URLParam(r, "item_id")
	if itemID == "" {
		respondError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	cart, err := h.carts.RemoveItem(ctx, sessionID, itemID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not remove item")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		respondError(w, http.StatusInternalServerError, "could not clear cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(&domain.Cart{SessionID: sessionID}))
}

// POST /api/cart/toggle
func (h *CartHandler) ToggleOpen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	cart, err := h.carts.ToggleOpen(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not toggle cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(cart))
}
