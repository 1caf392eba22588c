package http

import (
	"fmt"

	"github.com/kenqu-rs/kugelpos-backend/internal/service"
)

const (
	minQuantity = 1
	maxQuantity = 99
)

type CreateCartRequestDTO struct {
	TransactionType int    `json:"transaction_type"`
	UserID          string `json:"user_id"`
	UserName        string `json:"user_name"`
}

type AddItemRequestDTO struct {
	ItemCode    string  `json:"item_code"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type UpdateQuantityRequestDTO struct {
	LineNo   int `json:"line_no"`
	Quantity int `json:"quantity"`
}

type QuantityReductionItemDTO struct {
	ItemCode string `json:"item_code"`
	Quantity int    `json:"quantity"`
}

type BulkReduceRequestDTO struct {
	Items []QuantityReductionItemDTO `json:"items"`
}

func (r AddItemRequestDTO) validate() error {
	if r.ItemCode == "" {
		return fmt.Errorf("item_code is required")
	}
	if r.Quantity < minQuantity || r.Quantity > maxQuantity {
		return fmt.Errorf("quantity must be between %d and %d", minQuantity, maxQuantity)
	}
	if r.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative")
	}
	return nil
}

func (r UpdateQuantityRequestDTO) validate() error {
	if r.LineNo < 1 {
		return fmt.Errorf("line_no must be greater than 0")
	}
	if r.Quantity < minQuantity || r.Quantity > maxQuantity {
		return fmt.Errorf("quantity must be between %d and %d", minQuantity, maxQuantity)
	}
	return nil
}

func (r BulkReduceRequestDTO) validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("items must not be empty")
	}
	for _, it := range r.Items {
		if it.ItemCode == "" {
			return fmt.Errorf("item_code is required")
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("quantity must be greater than 0")
		}
	}
	return validateNoDuplicates(r.Items)
}

func validateNoDuplicates(items []QuantityReductionItemDTO) error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ItemCode]; ok {
			return fmt.Errorf("Duplicate item_code: %s", it.ItemCode)
		}
		seen[it.ItemCode] = struct{}{}
	}
	return nil
}

func (r BulkReduceRequestDTO) toService() []service.QuantityReduction {
	out := make([]service.QuantityReduction, len(r.Items))
	for i, it := range r.Items {
		out[i] = service.QuantityReduction{ItemCode: it.ItemCode, Quantity: it.Quantity}
	}
	return out
}
