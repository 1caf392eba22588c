package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kenqu-rs/kugelpos-backend/internal/cache"
	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/kenqu-rs/kugelpos-backend/internal/repository"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

// CachedCartStore serves snapshots from the cache and falls back to the
// repository on a miss. Writes go to the cache and then the repository.
type CachedCartStore struct {
	cache   cache.CartCache
	repo    repository.CartRepository
	sfg     singleflight.Group // Prevents cache stampede
	cacheCB *gobreaker.CircuitBreaker[*domain.Cart]
	repoCB  *gobreaker.CircuitBreaker[*domain.Cart]
	log     *logger.Logger

	persistTimeout time.Duration
	wg             sync.WaitGroup

	mu       sync.Mutex
	persists map[string]*persistSlot
}

// persistSlot holds the newest snapshot not yet written for one cart. At
// most one worker drains a slot, so repository writes for a cart happen in
// Store order.
type persistSlot struct {
	latest *domain.Cart
	done   chan struct{}
}

func NewCachedCartStore(c cache.CartCache, repo repository.CartRepository, settings BreakerSettings, log *logger.Logger) *CachedCartStore {
	return &CachedCartStore{
		cache:   c,
		repo:    repo,
		cacheCB: newBreaker[*domain.Cart]("cart-cache", settings, log),
		repoCB:  newBreaker[*domain.Cart]("cart-repository", settings, log),
		log:     log,

		persistTimeout: 5 * time.Second,
		persists:       make(map[string]*persistSlot),
	}
}

// Fetch returns a snapshot owned by the caller.
func (s *CachedCartStore) Fetch(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.cacheCB.Execute(func() (*domain.Cart, error) {
		return s.cache.Get(ctx, cartID)
	})
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("cart cache: %w", err)
	}

	// concurrent misses for one cart share a single repository read
	v, err, _ := s.sfg.Do(cartID, func() (interface{}, error) {
		return s.repoCB.Execute(func() (*domain.Cart, error) {
			return s.repo.GetCart(ctx, cartID)
		})
	})
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart repository: %w", err)
	}

	loaded := v.(*domain.Cart)
	if errSet := s.cache.Set(ctx, cartID, loaded); errSet != nil {
		s.log.Warn("cache refill failed", "cart_id", cartID, "error", errSet)
	}
	return loaded.Clone(), nil
}

// Store writes the snapshot to the cache, which is the source of truth
// while a cart is open. The repository copy is refreshed in the background.
func (s *CachedCartStore) Store(ctx context.Context, cartID string, cart *domain.Cart) error {
	_, err := s.cacheCB.Execute(func() (*domain.Cart, error) {
		return nil, s.cache.Set(ctx, cartID, cart)
	})
	if err != nil {
		return fmt.Errorf("cart cache: %w", err)
	}

	s.enqueuePersist(cartID, cart.Clone())
	return nil
}

func (s *CachedCartStore) enqueuePersist(cartID string, snapshot *domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.persists[cartID]; ok {
		// the running worker picks this up after its current write
		slot.latest = snapshot
		return
	}
	slot := &persistSlot{latest: snapshot, done: make(chan struct{})}
	s.persists[cartID] = slot
	s.wg.Add(1)
	go s.drainPersists(cartID, slot)
}

func (s *CachedCartStore) drainPersists(cartID string, slot *persistSlot) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		snapshot := slot.latest
		slot.latest = nil
		if snapshot == nil {
			delete(s.persists, cartID)
			close(slot.done)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		persistCtx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		_, err := s.repoCB.Execute(func() (*domain.Cart, error) {
			return nil, s.repo.UpsertCart(persistCtx, snapshot)
		})
		cancel()
		if err != nil {
			s.log.Error("persist cart failed", "cart_id", cartID, "error", err)
		}
	}
}

// dropPendingPersist discards a queued snapshot for cartID and waits for a
// write already in flight to finish.
func (s *CachedCartStore) dropPendingPersist(ctx context.Context, cartID string) error {
	s.mu.Lock()
	slot, ok := s.persists[cartID]
	if ok {
		slot.latest = nil
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-slot.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until background persists have finished.
func (s *CachedCartStore) Wait() {
	s.wg.Wait()
}

// Evict drops a cart from both the cache and the repository. A cart that is
// already gone is not an error. Snapshots still queued for the repository
// are discarded so they cannot bring the cart back.
func (s *CachedCartStore) Evict(ctx context.Context, cartID string) error {
	if err := s.dropPendingPersist(ctx, cartID); err != nil {
		return fmt.Errorf("pending persist: %w", err)
	}
	if err := s.cache.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("cart cache: %w", err)
	}
	if err := s.repo.DeleteCart(ctx, cartID); err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		return fmt.Errorf("cart repository: %w", err)
	}
	return nil
}
