package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kenqu-rs/kugelpos-backend/internal/cache"
	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m       sync.Mutex
	carts   map[string]*domain.Cart
	err     error
	gets    int
	upserts int
	delay   time.Duration

	// firstUpsertDelay stalls only the first UpsertCart call
	firstUpsertDelay time.Duration
}

func newMockRepository(carts ...*domain.Cart) *mockRepository {
	r := &mockRepository{carts: map[string]*domain.Cart{}}
	for _, c := range carts {
		r.carts[c.CartID] = c
	}
	return r
}

func (m *mockRepository) GetCart(_ context.Context, cartID string) (*domain.Cart, error) {
	time.Sleep(m.delay)
	m.m.Lock()
	defer m.m.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[cartID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return c, nil
}

func (m *mockRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	m.upserts++
	stall := m.upserts == 1 && m.firstUpsertDelay > 0
	delay := m.firstUpsertDelay
	m.m.Unlock()
	if stall {
		time.Sleep(delay)
	}

	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[cart.CartID] = cart
	return nil
}

func (m *mockRepository) DeleteCart(_ context.Context, cartID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[cartID]; !ok {
		return domain.ErrCartNotFound
	}
	delete(m.carts, cartID)
	return nil
}

func (m *mockRepository) counts() (int, int) {
	m.m.Lock()
	defer m.m.Unlock()
	return m.gets, m.upserts
}

func setupStore(t *testing.T, repo *mockRepository) (*CachedCartStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := NewCachedCartStore(cache.NewRedisCache(client, 15*time.Minute), repo,
		BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute}, logger.Nop())
	return s, mr
}

func cart(cartID string, qty int) *domain.Cart {
	return &domain.Cart{
		CartID:    cartID,
		Status:    domain.CartStatusEnteringItem,
		LineItems: []domain.LineItem{{LineNo: 1, ItemCode: "A001", Quantity: qty}},
	}
}

func TestStoreThenFetch(t *testing.T) {
	repo := newMockRepository()
	s, _ := setupStore(t, repo)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "c1", cart("c1", 5)))
	s.Wait()

	got, err := s.Fetch(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.LineItems[0].Quantity)

	gets, upserts := repo.counts()
	assert.Equal(t, 0, gets, "cache hit must not touch the repository")
	assert.Equal(t, 1, upserts)
}

func TestFetch_ReadThroughRefillsCache(t *testing.T) {
	persisted := cart("c1", 4)
	repo := newMockRepository(persisted)
	s, mr := setupStore(t, repo)

	got, err := s.Fetch(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.LineItems[0].Quantity)
	assert.NotSame(t, persisted, got)
	assert.True(t, mr.Exists("cart:c1"))

	_, err = s.Fetch(context.Background(), "c1")
	require.NoError(t, err)
	gets, _ := repo.counts()
	assert.Equal(t, 1, gets)
}

func TestFetch_NotFound(t *testing.T) {
	s, _ := setupStore(t, newMockRepository())

	_, err := s.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestFetch_ConcurrentMissesShareOneLoad(t *testing.T) {
	repo := newMockRepository(cart("c1", 4))
	repo.delay = 50 * time.Millisecond
	s, _ := setupStore(t, repo)

	var wg sync.WaitGroup
	results := make([]*domain.Cart, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.Fetch(context.Background(), "c1")
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	gets, _ := repo.counts()
	assert.Less(t, gets, len(results))
	// every caller owns its snapshot
	results[0].LineItems[0].Quantity = 99
	for _, c := range results[1:] {
		assert.Equal(t, 4, c.LineItems[0].Quantity)
	}
}

func TestFetch_CacheErrorIsFatal(t *testing.T) {
	repo := newMockRepository(cart("c1", 4))
	s, mr := setupStore(t, repo)
	mr.Close()

	_, err := s.Fetch(context.Background(), "c1")
	require.ErrorContains(t, err, "cart cache")
	gets, _ := repo.counts()
	assert.Equal(t, 0, gets, "a broken cache must not fall back to a possibly stale copy")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	s, mr := setupStore(t, newMockRepository())
	mr.Close()

	for i := 0; i < 2; i++ {
		_, err := s.Fetch(context.Background(), "c1")
		require.Error(t, err)
	}

	err := s.Store(context.Background(), "c1", cart("c1", 1))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreaker_MissesDoNotTrip(t *testing.T) {
	s, _ := setupStore(t, newMockRepository())

	for i := 0; i < 5; i++ {
		_, err := s.Fetch(context.Background(), "missing")
		require.ErrorIs(t, err, domain.ErrCartNotFound)
	}
	require.NoError(t, s.Store(context.Background(), "c1", cart("c1", 1)))
}

func TestStore_PersistFailureIsLoggedNotReturned(t *testing.T) {
	repo := newMockRepository()
	repo.err = errors.New("mongo down")
	s, mr := setupStore(t, repo)

	require.NoError(t, s.Store(context.Background(), "c1", cart("c1", 2)))
	s.Wait()

	assert.True(t, mr.Exists("cart:c1"))
	_, upserts := repo.counts()
	assert.Equal(t, 1, upserts)
}

func TestStore_PersistsSnapshotCopy(t *testing.T) {
	repo := newMockRepository()
	s, _ := setupStore(t, repo)

	c := cart("c1", 2)
	require.NoError(t, s.Store(context.Background(), "c1", c))
	c.LineItems[0].Quantity = 7
	s.Wait()

	persisted, err := repo.GetCart(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, persisted.LineItems[0].Quantity)
}

func TestEvict(t *testing.T) {
	repo := newMockRepository(cart("c1", 1))
	s, mr := setupStore(t, repo)
	require.NoError(t, mr.Set("cart:c1", `{"cart_id":"c1"}`))

	require.NoError(t, s.Evict(context.Background(), "c1"))
	assert.False(t, mr.Exists("cart:c1"))

	// already gone
	require.NoError(t, s.Evict(context.Background(), "c1"))
}

func TestStore_RepositoryKeepsLatestSnapshot(t *testing.T) {
	repo := newMockRepository()
	repo.firstUpsertDelay = 100 * time.Millisecond
	s, _ := setupStore(t, repo)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "c1", cart("c1", 5)))
	require.NoError(t, s.Store(ctx, "c1", cart("c1", 3)))
	s.Wait()

	persisted, err := repo.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, persisted.LineItems[0].Quantity)
}

func TestStore_ManyWritesEndOnLast(t *testing.T) {
	repo := newMockRepository()
	repo.firstUpsertDelay = 20 * time.Millisecond
	s, _ := setupStore(t, repo)
	ctx := context.Background()

	for qty := 1; qty <= 10; qty++ {
		require.NoError(t, s.Store(ctx, "c1", cart("c1", qty)))
	}
	s.Wait()

	persisted, err := repo.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 10, persisted.LineItems[0].Quantity)
	_, upserts := repo.counts()
	assert.LessOrEqual(t, upserts, 10)
}

func TestEvict_DiscardsPendingPersist(t *testing.T) {
	repo := newMockRepository()
	repo.firstUpsertDelay = 100 * time.Millisecond
	s, _ := setupStore(t, repo)
	ctx := context.Background()

	done := cart("c1", 2)
	done.Status = domain.CartStatusCancelled
	require.NoError(t, s.Store(ctx, "c1", done))
	require.NoError(t, s.Evict(ctx, "c1"))
	s.Wait()

	_, err := s.Fetch(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestEvict_GivesUpWhenContextEnds(t *testing.T) {
	repo := newMockRepository()
	repo.firstUpsertDelay = 200 * time.Millisecond
	s, _ := setupStore(t, repo)

	require.NoError(t, s.Store(context.Background(), "c1", cart("c1", 2)))
	require.Eventually(t, func() bool {
		_, upserts := repo.counts()
		return upserts == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := s.Evict(ctx, "c1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	s.Wait()
}
