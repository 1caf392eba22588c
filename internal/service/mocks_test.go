package service

import (
	"context"
	"sync"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
)

// fakeStore hands out the same snapshot pointer on every fetch so tests can
// inspect whether a failed call touched it.
type fakeStore struct {
	m          sync.Mutex
	cart       *domain.Cart
	fetchErr   error
	storeErr   error
	fetchCalls []string
	storeCalls []string
	stored     *domain.Cart
}

func (f *fakeStore) Fetch(_ context.Context, cartID string) (*domain.Cart, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.fetchCalls = append(f.fetchCalls, cartID)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.cart == nil || f.cart.CartID != cartID {
		return nil, domain.ErrCartNotFound
	}
	return f.cart, nil
}

func (f *fakeStore) Store(_ context.Context, cartID string, cart *domain.Cart) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.storeCalls = append(f.storeCalls, cartID)
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = cart
	return nil
}

func (f *fakeStore) fetches() int {
	f.m.Lock()
	defer f.m.Unlock()
	return len(f.fetchCalls)
}

func (f *fakeStore) stores() int {
	f.m.Lock()
	defer f.m.Unlock()
	return len(f.storeCalls)
}

type fakeRecomputer struct {
	m     sync.Mutex
	calls int
	err   error
}

func (f *fakeRecomputer) Recompute(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	total := 0
	for _, li := range cart.ActiveItems() {
		total += li.Quantity
	}
	cart.TotalQuantity = total
	return cart, nil
}

func (f *fakeRecomputer) count() int {
	f.m.Lock()
	defer f.m.Unlock()
	return f.calls
}
