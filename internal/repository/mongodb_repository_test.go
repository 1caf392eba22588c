package repository

import (
	"context"
	"testing"
	"time"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) *MongoRepository {
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, DefaultMongoOptions(uri, "testdb"))
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))
	return repo
}

func TestMongoRepository_UpsertAndGet(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	cart := &domain.Cart{
		CartID: "cart-1",
		Status: domain.CartStatusEnteringItem,
		LineItems: []domain.LineItem{
			{LineNo: 1, ItemCode: "A001", Quantity: 5, UnitPrice: 100},
		},
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.UpsertCart(ctx, cart))

	got, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CartStatusEnteringItem, got.Status)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, 5, got.LineItems[0].Quantity)
	assert.NotEmpty(t, got.ID)

	got.LineItems[0].Quantity = 3
	require.NoError(t, repo.UpsertCart(ctx, got))

	again, err := repo.GetCart(ctx, "cart-1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.LineItems[0].Quantity)
	assert.Equal(t, got.ID, again.ID)
}

func TestMongoRepository_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetCart(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)

	err = repo.DeleteCart(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestMongoRepository_Delete(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertCart(ctx, &domain.Cart{CartID: "cart-2"}))
	require.NoError(t, repo.DeleteCart(ctx, "cart-2"))

	_, err := repo.GetCart(ctx, "cart-2")
	assert.ErrorIs(t, err, ErrCartNotFound)
}
