package service

import (
	"context"
	"errors"
	"time"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/kenqu-rs/kugelpos-backend/internal/logger"
	"github.com/kenqu-rs/kugelpos-backend/internal/statemachine"
)

// CartStore is the cache holding cart snapshots. Fetch returns
// domain.ErrCartNotFound when the id is unknown.
type CartStore interface {
	Fetch(ctx context.Context, cartID string) (*domain.Cart, error)
	Store(ctx context.Context, cartID string, cart *domain.Cart) error
}

// TotalsRecomputer recomputes line amounts and cart totals from quantities.
type TotalsRecomputer interface {
	Recompute(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
}

// StateGuard decides whether an event may be raised from the cart's current
// status and which status follows.
type StateGuard interface {
	Transition(current domain.CartStatus, event statemachine.Event) (domain.CartStatus, error)
}

type CartService struct {
	store      CartStore
	recomputer TotalsRecomputer
	guard      StateGuard
	masters    domain.ReferenceMasters
	log        *logger.Logger
	now        func() time.Time
}

func NewCartService(store CartStore, recomputer TotalsRecomputer, guard StateGuard, masters domain.ReferenceMasters, log *logger.Logger) *CartService {
	return &CartService{
		store:      store,
		recomputer: recomputer,
		guard:      guard,
		masters:    masters,
		log:        log,
		now:        time.Now,
	}
}

type QuantityReduction struct {
	ItemCode string
	Quantity int
}

// BulkReduceQuantity takes the given amounts off the active lines matching
// each item code. Codes must be distinct and amounts positive. Either every
// reduction lands or none does.
func (s *CartService) BulkReduceQuantity(ctx context.Context, cartID string, items []QuantityReduction) (*domain.Cart, error) {
	muts := make([]mutation, len(items))
	for i, it := range items {
		muts[i] = mutation{kind: mutationReduceByCode, itemCode: it.ItemCode, quantity: it.Quantity}
	}
	return s.transact(ctx, cartID, operation{
		event:     statemachine.EventQuantityChange,
		mutations: muts,
		recompute: true,
	})
}

// UpdateLineItemQuantity sets the quantity of one active line. quantity is
// expected in the 1..99 range checked by the caller.
func (s *CartService) UpdateLineItemQuantity(ctx context.Context, cartID string, lineNo, quantity int) (*domain.Cart, error) {
	return s.transact(ctx, cartID, operation{
		event:     statemachine.EventQuantityChange,
		mutations: []mutation{{kind: mutationSetByLine, lineNo: lineNo, quantity: quantity}},
		recompute: true,
	})
}

type operation struct {
	event     statemachine.Event
	mutations []mutation
	recompute bool
}

// transact runs one operation against one snapshot: a single fetch, the
// status guard, validation of every mutation, apply, at most one recompute
// and at most one store. Nothing is stored unless every step succeeded.
func (s *CartService) transact(ctx context.Context, cartID string, op operation) (*domain.Cart, error) {
	log := s.log.With("cart_id", cartID, "event", op.event)

	cart, err := s.fetch(ctx, cartID)
	if err != nil {
		return nil, s.reject(log, err)
	}

	next, err := s.guard.Transition(cart.Status, op.event)
	if err != nil {
		return nil, s.reject(log, errBadEventSequence(cartID, err))
	}

	plan, err := planMutations(cartID, newLineIndex(cart.LineItems), op.mutations)
	if err != nil {
		return nil, s.reject(log, err)
	}

	now := s.now()
	plan.apply(cart, now)
	cart.Status = next
	cart.UpdatedAt = now

	if op.recompute {
		recomputed, err := s.recomputer.Recompute(ctx, cart)
		if err != nil {
			return nil, s.reject(log, errCollaborator(cartID, "recompute totals", err))
		}
		if recomputed != nil {
			cart = recomputed
		}
	}

	if err := s.save(ctx, cartID, cart); err != nil {
		return nil, s.reject(log, err)
	}

	log.Debug("cart updated", "status", cart.Status, "lines", len(cart.LineItems), "mutations", len(op.mutations))
	return cart, nil
}

func (s *CartService) fetch(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.store.Fetch(ctx, cartID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, newCartError(KindCartNotFound, cartID, "cart not found")
	}
	if err != nil {
		return nil, errCollaborator(cartID, "fetch cart", err)
	}
	if cart == nil {
		return nil, newCartError(KindCartNotFound, cartID, "cart not found")
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cartID string, cart *domain.Cart) error {
	// the snapshot is only local until this point; a cancelled caller
	// leaves nothing behind
	if err := ctx.Err(); err != nil {
		return errCollaborator(cartID, "store cart", err)
	}
	if err := s.store.Store(ctx, cartID, cart); err != nil {
		return errCollaborator(cartID, "store cart", err)
	}
	return nil
}

func (s *CartService) reject(log *logger.Logger, err error) error {
	var ce *CartError
	if errors.As(err, &ce) && ce.Kind != KindCollaboratorFailure {
		log.Info("cart operation rejected", "kind", ce.Kind, "code", ce.Code, "item_code", ce.ItemCode, "line_no", ce.LineNo)
		return err
	}
	log.Error("cart operation failed", "error", err)
	return err
}
