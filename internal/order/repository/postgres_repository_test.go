package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tuandang99/newshop/internal/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../../migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestOrder() *domain.Order {
	return &domain.Order{
		Name:    "Nguyen A",
		Email:   "a@example.com",
		Phone:   "0909000000",
		Address: "Hanoi",
		Items:   `[{"id":"1","name":"Granola","price":80000,"quantity":2}]`,
		Total:   160000,
	}
}

func TestCreateOrder_AssignsServerFields(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder()

	err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)

	assert.Positive(t, order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.WithinDuration(t, time.Now(), order.CreatedAt, time.Minute)
}

func TestCreateOrder_ItemsSnapshotRoundTrips(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder()
	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Items, fetched.Items)

	var parsed []domain.CartItem
	require.NoError(t, json.Unmarshal([]byte(fetched.Items), &parsed))
	require.Len(t, parsed, 1)
	assert.Equal(t, "Granola", parsed[0].Name)
	assert.Equal(t, 2, parsed[0].Quantity)
}

func TestCreateOrder_NoIdempotency(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Identical payloads create distinct rows.
	ctx := context.Background()
	first := newTestOrder()
	second := newTestOrder()
	require.NoError(t, repo.CreateOrder(ctx, first))
	require.NoError(t, repo.CreateOrder(ctx, second))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrderByID(context.Background(), 424242)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	first := newTestOrder()
	require.NoError(t, repo.CreateOrder(ctx, first))
	second := newTestOrder()
	second.Name = "Tran B"
	require.NoError(t, repo.CreateOrder(ctx, second))

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Tran B", orders[0].Name)
}

func TestUpdateStatus(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder()
	require.NoError(t, repo.CreateOrder(ctx, order))

	updated, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)

	_, err = repo.UpdateStatus(ctx, 424242, domain.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
