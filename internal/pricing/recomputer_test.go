package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/kenqu-rs/kugelpos-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCart() *domain.Cart {
	return &domain.Cart{
		CartID: "c1",
		LineItems: []domain.LineItem{
			{LineNo: 1, ItemCode: "A001", Quantity: 3, UnitPrice: 100},
			{LineNo: 2, ItemCode: "B001", Quantity: 2, UnitPrice: 0.1},
			{LineNo: 3, ItemCode: "C001", Quantity: 4, UnitPrice: 50, IsCancelled: true},
		},
	}
}

func TestRecompute_Totals(t *testing.T) {
	r := NewRecomputer(0.10)

	cart, err := r.Recompute(context.Background(), testCart())
	require.NoError(t, err)

	assert.Equal(t, 300.0, cart.LineItems[0].Amount)
	assert.Equal(t, 0.2, cart.LineItems[1].Amount)
	assert.Equal(t, 200.0, cart.LineItems[2].Amount)
	assert.Equal(t, 300.2, cart.SubtotalAmount)
	assert.Equal(t, 30.02, cart.TaxAmount)
	assert.Equal(t, 330.22, cart.TotalAmount)
	assert.Equal(t, cart.TotalAmount, cart.BalanceAmount)
	assert.Equal(t, 5, cart.TotalQuantity)
}

func TestRecompute_ZeroQuantityLine(t *testing.T) {
	cart := &domain.Cart{LineItems: []domain.LineItem{{LineNo: 1, ItemCode: "A001", Quantity: 0, UnitPrice: 100}}}

	cart, err := NewRecomputer(0.10).Recompute(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cart.LineItems[0].Amount)
	assert.Equal(t, 0.0, cart.TotalAmount)
	assert.Equal(t, 0, cart.TotalQuantity)
}

func TestRecompute_CartTaxRateWins(t *testing.T) {
	cart := testCart()
	cart.Masters = cart.Masters.WithTaxRate(0.08)

	cart, err := NewRecomputer(0.10).Recompute(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, 24.02, cart.TaxAmount)
}

func TestRecompute_TaxExemptCart(t *testing.T) {
	cart := testCart()
	cart.Masters = cart.Masters.WithTaxRate(0)

	cart, err := NewRecomputer(0.10).Recompute(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cart.TaxAmount)
	assert.Equal(t, cart.SubtotalAmount, cart.TotalAmount)
}

func TestRecompute_DiscountsNeverGoNegative(t *testing.T) {
	cart := &domain.Cart{LineItems: []domain.LineItem{{
		LineNo: 1, ItemCode: "A001", Quantity: 1, UnitPrice: 100,
		Discounts: []domain.Discount{{Code: "X", Amount: 150}},
	}}}

	cart, err := NewRecomputer(0).Recompute(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cart.LineItems[0].Amount)
}

func TestRecompute_BulkDiscountRule(t *testing.T) {
	r := NewRecomputer(0, BulkDiscountRule{MinQuantity: 3, Percent: 10})

	cart, err := r.Recompute(context.Background(), testCart())
	require.NoError(t, err)

	require.Len(t, cart.LineItems[0].Discounts, 1)
	assert.Equal(t, 30.0, cart.LineItems[0].Discounts[0].Amount)
	assert.Equal(t, 270.0, cart.LineItems[0].Amount)
	assert.Empty(t, cart.LineItems[1].Discounts)
	assert.Empty(t, cart.LineItems[2].Discounts)

	// a second run replaces rather than stacks
	cart.LineItems[0].Quantity = 1
	cart, err = r.Recompute(context.Background(), cart)
	require.NoError(t, err)
	assert.Empty(t, cart.LineItems[0].Discounts)
	assert.Equal(t, 100.0, cart.LineItems[0].Amount)
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }
func (failingRule) Apply(context.Context, *domain.Cart) error {
	return errors.New("boom")
}

func TestRecompute_RuleError(t *testing.T) {
	_, err := NewRecomputer(0.1, failingRule{}).Recompute(context.Background(), testCart())
	assert.EqualError(t, err, "pricing rule failing: boom")
}
