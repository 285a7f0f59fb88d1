package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuandang99/newshop/internal/domain"
	"github.com/tuandang99/newshop/internal/product/repository"
)

type productRepoMock struct {
	products []*domain.Product
	created  *domain.Product
	err      error
}

func (m *productRepoMock) ListProducts(_ context.Context, category string) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if category == "" {
		return m.products, nil
	}
	var filtered []*domain.Product
	for _, p := range m.products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (m *productRepoMock) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *productRepoMock) CreateProduct(_ context.Context, product *domain.Product) error {
	if m.err != nil {
		return m.err
	}
	product.ID = 1
	product.CreatedAt = time.Now()
	m.created = product
	return nil
}

func (m *productRepoMock) UpdateProduct(_ context.Context, product *domain.Product) error {
	return m.err
}

func (m *productRepoMock) DeleteProduct(_ context.Context, id int64) error {
	if m.err != nil {
		return m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func TestListProducts_FiltersByCategory(t *testing.T) {
	mock := &productRepoMock{products: []*domain.Product{
		{ID: 1, Name: "Granola", Category: "breakfast"},
		{ID: 2, Name: "Tea", Category: "drinks"},
	}}
	handler := NewProductsHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/products?category=drinks", nil)

	handler.ListProducts(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var products []domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "Tea", products[0].Name)
}

func TestListProducts_EmptyListIsJSONArray(t *testing.T) {
	handler := NewProductsHandler(&productRepoMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/api/products", nil)

	handler.ListProducts(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]", strings.TrimSpace(recorder.Body.String()))
}

func TestGetProduct_NotFound(t *testing.T) {
	handler := NewProductsHandler(&productRepoMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(httptest.NewRequest("GET", "/api/products/9", nil), "product_id", "9")

	handler.GetProduct(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateProduct_Success(t *testing.T) {
	mock := &productRepoMock{}
	handler := NewProductsHandler(mock, 5*time.Second)

	body := `{"name":"Granola","slug":"granola","price":80000,"category":"breakfast","inStock":true}`
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/products", strings.NewReader(body))

	handler.CreateProduct(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, mock.created)
	assert.Equal(t, "granola", mock.created.Slug)
}

func TestCreateProduct_ListsEveryViolatedField(t *testing.T) {
	mock := &productRepoMock{}
	handler := NewProductsHandler(mock, 5*time.Second)

	body := `{"name":"","slug":"","price":-5}`
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/products", strings.NewReader(body))

	handler.CreateProduct(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Len(t, resp.Errors, 3)
	assert.Nil(t, mock.created)
}
