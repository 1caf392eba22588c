package pricing

import (
	"context"
	"fmt"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Rule is a pricing extension run before totals are summed. Rules may add
// line discounts; they must not change quantities.
type Rule interface {
	Name() string
	Apply(ctx context.Context, cart *domain.Cart) error
}

type Recomputer struct {
	defaultTaxRate decimal.Decimal
	rules          []Rule
}

func NewRecomputer(defaultTaxRate float64, rules ...Rule) *Recomputer {
	return &Recomputer{
		defaultTaxRate: decimal.NewFromFloat(defaultTaxRate),
		rules:          rules,
	}
}

// Recompute refreshes line amounts and cart totals in place. Cancelled lines
// keep their own amount but are left out of the totals.
func (r *Recomputer) Recompute(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	for _, rule := range r.rules {
		if err := rule.Apply(ctx, cart); err != nil {
			return nil, fmt.Errorf("pricing rule %s: %w", rule.Name(), err)
		}
	}

	subtotal := decimal.Zero
	totalQty := 0
	for i := range cart.LineItems {
		li := &cart.LineItems[i]
		amount := lineAmount(li)
		li.Amount = amount.InexactFloat64()
		if li.IsCancelled {
			continue
		}
		subtotal = subtotal.Add(amount)
		totalQty += li.Quantity
	}

	rate := r.defaultTaxRate
	if cart.Masters.TaxRate != nil {
		rate = decimal.NewFromFloat(*cart.Masters.TaxRate)
	}
	tax := subtotal.Mul(rate).Round(2)
	total := subtotal.Add(tax)

	cart.SubtotalAmount = subtotal.InexactFloat64()
	cart.TaxAmount = tax.InexactFloat64()
	cart.TotalAmount = total.InexactFloat64()
	cart.BalanceAmount = cart.TotalAmount
	cart.TotalQuantity = totalQty
	return cart, nil
}

func lineAmount(li *domain.LineItem) decimal.Decimal {
	amount := decimal.NewFromFloat(li.UnitPrice).Mul(decimal.NewFromInt(int64(li.Quantity)))
	for _, d := range li.Discounts {
		amount = amount.Sub(decimal.NewFromFloat(d.Amount))
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
