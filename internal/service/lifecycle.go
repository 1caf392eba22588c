package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/statemachine"
)

type CreateCartRequest struct {
	TerminalID      string
	TransactionType int
	UserID          string
	UserName        string
}

type AddItemRequest struct {
	ItemCode    string
	Description string
	Quantity    int
	UnitPrice   float64
}

func (s *CartService) CreateCart(ctx context.Context, req CreateCartRequest) (*domain.Cart, error) {
	cartID := uuid.NewString()

	status, err := s.guard.Transition(domain.CartStatusInitial, statemachine.EventCreate)
	if err != nil {
		return nil, errBadEventSequence(cartID, err)
	}

	now := s.now()
	cart := &domain.Cart{
		CartID:          cartID,
		TerminalID:      req.TerminalID,
		TransactionType: req.TransactionType,
		UserID:          req.UserID,
		UserName:        req.UserName,
		Status:          status,
		LineItems:       []domain.LineItem{},
		Masters:         s.masters,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.save(ctx, cartID, cart); err != nil {
		return nil, s.reject(s.log.With("cart_id", cartID), err)
	}
	s.log.Info("cart created", "cart_id", cartID, "terminal_id", req.TerminalID)
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.fetch(ctx, cartID)
	if err != nil {
		return nil, s.reject(s.log.With("cart_id", cartID), err)
	}
	return cart, nil
}

// AddItems appends lines. A code that already has an active line raises
// that line's quantity instead, so active codes stay unique.
func (s *CartService) AddItems(ctx context.Context, cartID string, items []AddItemRequest) (*domain.Cart, error) {
	muts := make([]mutation, len(items))
	for i, it := range items {
		muts[i] = mutation{
			kind:        mutationAddItem,
			itemCode:    it.ItemCode,
			quantity:    it.Quantity,
			unitPrice:   it.UnitPrice,
			description: it.Description,
		}
	}
	return s.transact(ctx, cartID, operation{
		event:     statemachine.EventAddItem,
		mutations: muts,
		recompute: true,
	})
}

// CancelLineItem marks one active line cancelled. The line stays in the
// cart for history.
func (s *CartService) CancelLineItem(ctx context.Context, cartID string, lineNo int) (*domain.Cart, error) {
	return s.transact(ctx, cartID, operation{
		event:     statemachine.EventCancelLineItem,
		mutations: []mutation{{kind: mutationCancelByLine, lineNo: lineNo}},
		recompute: true,
	})
}

func (s *CartService) CancelCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.transact(ctx, cartID, operation{event: statemachine.EventCancel})
}
