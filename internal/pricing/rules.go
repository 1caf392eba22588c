package pricing

import (
	"context"
	"fmt"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// BulkDiscountRule gives a percentage off any active line whose quantity
// reaches MinQuantity. It replaces its own discount on every run.
type BulkDiscountRule struct {
	MinQuantity int
	Percent     float64
}

const bulkDiscountCode = "BULK"

func (r BulkDiscountRule) Name() string {
	return "bulk_discount"
}

func (r BulkDiscountRule) Apply(_ context.Context, cart *domain.Cart) error {
	if r.Percent < 0 || r.Percent > 100 {
		return fmt.Errorf("percent out of range: %v", r.Percent)
	}
	pct := decimal.NewFromFloat(r.Percent).Div(decimal.NewFromInt(100))
	for i := range cart.LineItems {
		li := &cart.LineItems[i]
		kept := li.Discounts[:0]
		for _, d := range li.Discounts {
			if d.Code != bulkDiscountCode {
				kept = append(kept, d)
			}
		}
		li.Discounts = kept
		if li.IsCancelled || r.MinQuantity <= 0 || li.Quantity < r.MinQuantity {
			continue
		}
		gross := decimal.NewFromFloat(li.UnitPrice).Mul(decimal.NewFromInt(int64(li.Quantity)))
		li.Discounts = append(li.Discounts, domain.Discount{
			Code:   bulkDiscountCode,
			Detail: fmt.Sprintf("%v%% off %d or more", r.Percent, r.MinQuantity),
			Amount: gross.Mul(pct).Round(2).InexactFloat64(),
		})
	}
	return nil
}
