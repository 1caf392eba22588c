package service

import (
	"fmt"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
)

type Kind string

const (
	KindBadEventSequence         Kind = "BadEventSequence"
	KindCartNotFound             Kind = "CartNotFound"
	KindItemNotFound             Kind = "ItemNotFound"
	KindLineItemNotFound         Kind = "LineItemNotFound"
	KindQuantityReductionExceeds Kind = "QuantityReductionExceeds"
	KindCollaboratorFailure      Kind = "CollaboratorFailure"
)

// Error codes are part of the public API and must not change.
const (
	CodeItemNotFound             = "402001"
	CodeCartNotFound             = "402002"
	CodeLineItemNotFound         = "402006"
	CodeQuantityReductionExceeds = "402006"
	CodeBadEventSequence         = "402010"
	CodeCollaboratorFailure      = "402090"
)

var codes = map[Kind]string{
	KindBadEventSequence:         CodeBadEventSequence,
	KindCartNotFound:             CodeCartNotFound,
	KindItemNotFound:             CodeItemNotFound,
	KindLineItemNotFound:         CodeLineItemNotFound,
	KindQuantityReductionExceeds: CodeQuantityReductionExceeds,
	KindCollaboratorFailure:      CodeCollaboratorFailure,
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrBadEventSequence         = &CartError{Kind: KindBadEventSequence}
	ErrCartNotFound             = &CartError{Kind: KindCartNotFound}
	ErrItemNotFound             = &CartError{Kind: KindItemNotFound}
	ErrLineItemNotFound         = &CartError{Kind: KindLineItemNotFound}
	ErrQuantityReductionExceeds = &CartError{Kind: KindQuantityReductionExceeds}
	ErrCollaboratorFailure      = &CartError{Kind: KindCollaboratorFailure}
)

// CartError is the single failure type returned by the cart operations.
type CartError struct {
	Kind    Kind
	Code    string
	Message string

	CartID            string
	ItemCode          string
	LineNo            int
	CurrentQuantity   int
	RequestedQuantity int

	Err error
}

func (e *CartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *CartError) Unwrap() error {
	return e.Err
}

func (e *CartError) Is(target error) bool {
	t, ok := target.(*CartError)
	return ok && t.Kind == e.Kind
}

func newCartError(kind Kind, cartID, message string) *CartError {
	return &CartError{
		Kind:    kind,
		Code:    codes[kind],
		Message: message,
		CartID:  cartID,
	}
}

func errItemNotFound(cartID, itemCode string) *CartError {
	e := newCartError(KindItemNotFound, cartID, fmt.Sprintf("item %s not found in cart", itemCode))
	e.ItemCode = itemCode
	return e
}

func errLineItemNotFound(cartID string, lineNo int) *CartError {
	e := newCartError(KindLineItemNotFound, cartID, fmt.Sprintf("line item %d not found in cart", lineNo))
	e.LineNo = lineNo
	return e
}

func errQuantityReductionExceeds(cartID string, line *domain.LineItem, current, reduceBy int) *CartError {
	e := newCartError(KindQuantityReductionExceeds, cartID,
		fmt.Sprintf("cannot reduce item %s by %d: only %d in cart", line.ItemCode, reduceBy, current))
	e.ItemCode = line.ItemCode
	e.LineNo = line.LineNo
	e.CurrentQuantity = current
	e.RequestedQuantity = reduceBy
	return e
}

func errBadEventSequence(cartID string, err error) *CartError {
	e := newCartError(KindBadEventSequence, cartID, "operation not allowed in current cart status")
	e.Err = err
	return e
}

func errCollaborator(cartID, step string, err error) *CartError {
	e := newCartError(KindCollaboratorFailure, cartID, step+" failed")
	e.Err = err
	return e
}
