package statemachine

import (
	"errors"
	"fmt"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
)

type Event string

const (
	EventCreate         Event = "create"
	EventAddItem        Event = "add_item"
	EventQuantityChange Event = "quantity_change"
	EventCancelLineItem Event = "cancel_line_item"
	EventSubtotal       Event = "subtotal"
	EventAddPayment     Event = "add_payment"
	EventBill           Event = "bill"
	EventCancel         Event = "cancel"
)

var ErrBadEventSequence = errors.New("event not allowed in current cart status")

// allowed maps each event to the statuses it may be raised from.
var allowed = map[Event][]domain.CartStatus{
	EventCreate:         {domain.CartStatusInitial},
	EventAddItem:        {domain.CartStatusIdle, domain.CartStatusEnteringItem},
	EventQuantityChange: {domain.CartStatusEnteringItem},
	EventCancelLineItem: {domain.CartStatusEnteringItem},
	EventSubtotal:       {domain.CartStatusEnteringItem},
	EventAddPayment:     {domain.CartStatusEnteringItem, domain.CartStatusPaying},
	EventBill:           {domain.CartStatusPaying},
	EventCancel:         {domain.CartStatusIdle, domain.CartStatusEnteringItem, domain.CartStatusPaying},
}

// next holds the status a successful event moves the cart to. Events that
// are missing keep the current status.
var next = map[Event]domain.CartStatus{
	EventCreate:     domain.CartStatusIdle,
	EventAddItem:    domain.CartStatusEnteringItem,
	EventAddPayment: domain.CartStatusPaying,
	EventBill:       domain.CartStatusCompleted,
	EventCancel:     domain.CartStatusCancelled,
}

type StateManager struct{}

func NewStateManager() *StateManager {
	return &StateManager{}
}

func (m *StateManager) CheckEventSequence(current domain.CartStatus, event Event) error {
	for _, s := range allowed[event] {
		if s == current {
			return nil
		}
	}
	return fmt.Errorf("%w: event %q from status %q", ErrBadEventSequence, event, current)
}

// Transition validates the event and returns the resulting status.
func (m *StateManager) Transition(current domain.CartStatus, event Event) (domain.CartStatus, error) {
	if err := m.CheckEventSequence(current, event); err != nil {
		return current, err
	}
	if s, ok := next[event]; ok {
		return s, nil
	}
	return current, nil
}
