package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tuandang99/newshop/internal/domain"
	"github.com/tuandang99/newshop/internal/product/repository"
)

type ProductsHandler struct {
	products repository.ProductRepository
	timeout  time.Duration
}

func NewProductsHandler(products repository.ProductRepository, timeout time.Duration) *ProductsHandler {
	return &ProductsHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductRequestDTO struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
}

func validateProduct(req *ProductRequestDTO) []string {
	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(req.Slug) == "" {
		errs = append(errs, "slug is required")
	}
	if req.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	return errs
}

// GET /api/products
func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.ListProducts(ctx, r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not list products")
		return
	}

	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/products/{product_id}
func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}

	product, err := h.products.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not load product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// POST /api/products (admin)
func (h *ProductsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if errs := validateProduct(&req); len(errs) > 0 {
		respondValidationError(w, errs)
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		InStock:     req.InStock,
	}
	if err := h.products.CreateProduct(ctx, product); err != nil {
		respondError(w, http.StatusInternalServerError, "could not create product")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/products/{product_id} (admin)
func (h *ProductsHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}

	var req ProductRequestDTO
	if errDecode := json.NewDecoder(r.Body).Decode(&req); errDecode != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if errs := validateProduct(&req); len(errs) > 0 {
		respondValidationError(w, errs)
		return
	}

	product := &domain.Product{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		InStock:     req.InStock,
	}
	err = h.products.UpdateProduct(ctx, product)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not update product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/products/{product_id} (admin)
func (h *ProductsHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "product_id must be a positive integer")
		return
	}

	err = h.products.DeleteProduct(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
