package repository

import (
	"context"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
)

// CartRepository is the persistent home of cart documents. The cache in
// front of it is the source of truth while a cart is being edited.
type CartRepository interface {
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, cartID string) error
}
