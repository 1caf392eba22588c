package service

import (
	"fmt"
	"time"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
)

type mutationKind int

const (
	mutationReduceByCode mutationKind = iota + 1
	mutationSetByLine
	mutationCancelByLine
	mutationAddItem
)

func (k mutationKind) String() string {
	switch k {
	case mutationReduceByCode:
		return "reduce_by_code"
	case mutationSetByLine:
		return "set_by_line"
	case mutationCancelByLine:
		return "cancel_by_line"
	case mutationAddItem:
		return "add_item"
	}
	return fmt.Sprintf("mutation(%d)", int(k))
}

// mutation is one requested line change. Which fields are meaningful
// depends on kind: reduce uses itemCode and quantity as the amount to take
// off, set uses lineNo and quantity as the new value, cancel uses lineNo,
// add uses itemCode, quantity, unitPrice and description.
type mutation struct {
	kind        mutationKind
	itemCode    string
	lineNo      int
	quantity    int
	unitPrice   float64
	description string
}

type plannedChange struct {
	line     *domain.LineItem
	quantity int
	cancel   bool
}

// mutationPlan is the validated, not yet applied result of one batch.
type mutationPlan struct {
	changes  []plannedChange
	appended []domain.LineItem
}

// planMutations validates the whole batch against the snapshot without
// touching it. It stops at the first failing entry in input order.
//
// Bulk reduction is checked against the quantity in the cart; a direct set
// by line number is not, since the request boundary already bounds it.
func planMutations(cartID string, idx lineIndex, muts []mutation) (*mutationPlan, error) {
	plan := &mutationPlan{}
	pending := make(map[*domain.LineItem]int)
	cancelled := make(map[*domain.LineItem]bool)
	newByCode := make(map[string]int)

	current := func(li *domain.LineItem) int {
		if q, ok := pending[li]; ok {
			return q
		}
		return li.Quantity
	}
	activeByLineNo := func(lineNo int) (*domain.LineItem, bool) {
		li, ok := idx.activeByLineNo(lineNo)
		if !ok || cancelled[li] {
			return nil, false
		}
		return li, true
	}

	for _, m := range muts {
		switch m.kind {
		case mutationReduceByCode:
			li, ok := idx.activeByCode(m.itemCode)
			if !ok || cancelled[li] {
				return nil, errItemNotFound(cartID, m.itemCode)
			}
			have := current(li)
			if m.quantity > have {
				return nil, errQuantityReductionExceeds(cartID, li, have, m.quantity)
			}
			pending[li] = have - m.quantity
			plan.changes = append(plan.changes, plannedChange{line: li, quantity: have - m.quantity})

		case mutationSetByLine:
			li, ok := activeByLineNo(m.lineNo)
			if !ok {
				return nil, errLineItemNotFound(cartID, m.lineNo)
			}
			pending[li] = m.quantity
			plan.changes = append(plan.changes, plannedChange{line: li, quantity: m.quantity})

		case mutationCancelByLine:
			li, ok := activeByLineNo(m.lineNo)
			if !ok {
				return nil, errLineItemNotFound(cartID, m.lineNo)
			}
			cancelled[li] = true
			plan.changes = append(plan.changes, plannedChange{line: li, quantity: current(li), cancel: true})

		case mutationAddItem:
			if li, ok := idx.activeByCode(m.itemCode); ok && !cancelled[li] {
				q := current(li) + m.quantity
				pending[li] = q
				plan.changes = append(plan.changes, plannedChange{line: li, quantity: q})
				continue
			}
			if i, ok := newByCode[m.itemCode]; ok {
				plan.appended[i].Quantity += m.quantity
				continue
			}
			newByCode[m.itemCode] = len(plan.appended)
			plan.appended = append(plan.appended, domain.LineItem{
				ItemCode:    m.itemCode,
				Description: m.description,
				Quantity:    m.quantity,
				UnitPrice:   m.unitPrice,
			})

		default:
			return nil, fmt.Errorf("unsupported mutation %s", m.kind)
		}
	}
	return plan, nil
}

// apply writes the plan into the cart. It cannot fail.
func (p *mutationPlan) apply(cart *domain.Cart, now time.Time) {
	for _, c := range p.changes {
		c.line.Quantity = c.quantity
		if c.cancel {
			c.line.IsCancelled = true
		}
	}
	// appends go last: growing the slice may move the lines changes point at
	for _, li := range p.appended {
		li.LineNo = len(cart.LineItems) + 1
		li.AddedAt = now
		cart.LineItems = append(cart.LineItems, li)
	}
}
