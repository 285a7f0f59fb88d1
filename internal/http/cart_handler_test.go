package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuandang99/newshop/internal/domain"
)

// --- Mock ---

type cartServiceMock struct {
	cart *domain.Cart
	err  error

	added   *domain.CartItem
	cleared bool
}

func (m *cartServiceMock) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &domain.Cart{SessionID: sessionID}, nil
	}
	return m.cart, nil
}

func (m *cartServiceMock) AddItem(_ context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.added = &item
	return &domain.Cart{SessionID: sessionID, Items: []domain.CartItem{item}}, nil
}

func (m *cartServiceMock) UpdateQuantity(_ context.Context, sessionID, itemID string, quantity int) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *cartServiceMock) RemoveItem(_ context.Context, sessionID, itemID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Cart{SessionID: sessionID}, nil
}

func (m *cartServiceMock) ClearCart(_ context.Context, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	return nil
}

func (m *cartServiceMock) ToggleOpen(_ context.Context, sessionID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.cart.Open = !m.cart.Open
	return m.cart, nil
}

// --- helper ---

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// --- tests ---

func TestGetCart_ReturnsTotal(t *testing.T) {
	mock := &cartServiceMock{cart: &domain.Cart{
		SessionID: "session-1",
		Items: []domain.CartItem{
			{ID: "1", Name: "Granola", Price: 80000, Quantity: 2},
		},
	}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/cart", nil))

	handler.GetCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, 160000.0, resp.Total)
	assert.Len(t, resp.Items, 1)
}

func TestGetCart_EmptyCartItemsIsJSONArray(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/cart", nil))

	handler.GetCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"items":[]`)
}

func TestAddItem_Success(t *testing.T) {
	mock := &cartServiceMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	body := `{"id":"1","name":"Granola","price":80000,"quantity":2}`
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(body)))

	handler.AddItem(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, mock.added)
	assert.Equal(t, "Granola", mock.added.Name)
	assert.Equal(t, 2, mock.added.Quantity)
}

func TestAddItem_ListsEveryViolatedField(t *testing.T) {
	mock := &cartServiceMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	body := `{"id":"","name":"","price":-1,"quantity":0}`
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(body)))

	handler.AddItem(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Len(t, resp.Errors, 4)
	assert.Nil(t, mock.added)
}

func TestAddItem_MissingSession(t *testing.T) {
	handler := NewCartHandler(&cartServiceMock{}, 5*time.Second)

	body := `{"id":"1","name":"Granola","price":80000,"quantity":2}`
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(body))

	handler.AddItem(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUpdateQuantity_PassesThrough(t *testing.T) {
	mock := &cartServiceMock{cart: &domain.Cart{SessionID: "session-1"}}
	handler := NewCartHandler(mock, 5*time.Second)

	body := `{"quantity":0}`
	recorder := httptest.NewRecorder()
	request := withSession(withURLParam(
		httptest.NewRequest("PUT", "/api/cart/items/1", strings.NewReader(body)), "item_id", "1"))

	handler.UpdateQuantity(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestClearCart(t *testing.T) {
	mock := &cartServiceMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/api/cart", nil))

	handler.ClearCart(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, mock.cleared)
}

func TestToggleOpen(t *testing.T) {
	mock := &cartServiceMock{cart: &domain.Cart{SessionID: "session-1"}}
	handler := NewCartHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/cart/toggle", nil))

	handler.ToggleOpen(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.True(t, resp.Open)
}
