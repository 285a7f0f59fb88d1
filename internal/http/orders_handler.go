package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tuandang99/newshop/internal/domain"
	"github.com/tuandang99/newshop/internal/order/repository"
	"github.com/tuandang99/newshop/internal/order/service"
)

type OrderService interface {
	Create(ctx context.Context, in *service.CreateOrderInput) (*domain.Order, error)
	Checkout(ctx context.Context, sessionID string, customer service.Customer) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// CreateOrderRequestDTO keeps items and total raw so a wrong type shows
// up as a named field violation instead of a bare decode failure.
type CreateOrderRequestDTO struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Address string          `json:"address"`
	Items   json.RawMessage `json:"items"`
	Total   json.RawMessage `json:"total"`
}

type CheckoutRequestDTO struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// isJSONNull catches a literal null field, which json.Unmarshal would
// otherwise accept as a no-op into a string or float64.
func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func validateCustomer(name, phone, address string) []string {
	var errs []string
	if len(strings.TrimSpace(name)) < 2 {
		errs = append(errs, "name must be at least 2 characters")
	}
	if len(strings.TrimSpace(phone)) < 5 {
		errs = append(errs, "phone must be at least 5 characters")
	}
	if len(strings.TrimSpace(address)) < 5 {
		errs = append(errs, "address must be at least 5 characters")
	}
	return errs
}

// POST /api/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	errs := validateCustomer(req.Name, req.Phone, req.Address)

	var items string
	if len(req.Items) == 0 || isJSONNull(req.Items) || json.Unmarshal(req.Items, &items) != nil {
		errs = append(errs, "items must be a string")
	}

	var total float64
	if len(req.Total) == 0 || isJSONNull(req.Total) || json.Unmarshal(req.Total, &total) != nil {
		errs = append(errs, "total must be a number")
	} else if total < 0 {
		errs = append(errs, "total must not be negative")
	}

	if len(errs) > 0 {
		respondValidationError(w, errs)
		return
	}

	order, err := h.orders.Create(ctx, &service.CreateOrderInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Items:   items,
		Total:   total,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not create order, please try again later")
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// POST /api/checkout
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session id")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if errs := validateCustomer(req.Name, req.Phone, req.Address); len(errs) > 0 {
		respondValidationError(w, errs)
		return
	}

	order, err := h.orders.Checkout(ctx, sessionID, service.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if errors.Is(err, service.ErrEmptyCart) {
		respondError(w, http.StatusBadRequest, "cart is empty")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not create order, please try again later")
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GET /api/orders (admin)
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.List(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not list orders")
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/orders/{order_id} (admin)
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "order_id must be a positive integer")
		return
	}

	order, err := h.orders.Get(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PUT /api/orders/{order_id}/status (admin)
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "order_id must be a positive integer")
		return
	}

	var req UpdateStatusRequestDTO
	if errDecode := json.NewDecoder(r.Body).Decode(&req); errDecode != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		respondValidationError(w, []string{"status is required"})
		return
	}

	order, err := h.orders.UpdateStatus(ctx, id, req.Status)
	if errors.Is(err, repository.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not update order status")
		return
	}

	respondJSON(w, http.StatusOK, order)
}
