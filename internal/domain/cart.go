package domain

import "time"

type Cart struct {
	ID              string           `bson:"_id,omitempty" json:"-"`
	CartID          string           `bson:"cart_id" json:"cart_id"`
	TerminalID      string           `bson:"terminal_id" json:"terminal_id"`
	TransactionType int              `bson:"transaction_type" json:"transaction_type"`
	UserID          string           `bson:"user_id" json:"user_id"`
	UserName        string           `bson:"user_name" json:"user_name"`
	Status          CartStatus       `bson:"status" json:"status"`
	LineItems       []LineItem       `bson:"line_items" json:"line_items"`
	Masters         ReferenceMasters `bson:"masters" json:"masters"`
	SubtotalAmount  float64          `bson:"subtotal_amount" json:"subtotal_amount"`
	TaxAmount       float64          `bson:"tax_amount" json:"tax_amount"`
	TotalAmount     float64          `bson:"total_amount" json:"total_amount"`
	TotalQuantity   int              `bson:"total_quantity" json:"total_quantity"`
	BalanceAmount   float64          `bson:"balance_amount" json:"balance_amount"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `bson:"updated_at" json:"updated_at"`
}

// LineItem is one requested product line. LineNo is 1-based and equals the
// item's position in Cart.LineItems.
type LineItem struct {
	LineNo             int        `bson:"line_no" json:"line_no"`
	ItemCode           string     `bson:"item_code" json:"item_code"`
	Description        string     `bson:"description" json:"description"`
	Quantity           int        `bson:"quantity" json:"quantity"`
	UnitPrice          float64    `bson:"unit_price" json:"unit_price"`
	Amount             float64    `bson:"amount" json:"amount"`
	Discounts          []Discount `bson:"discounts" json:"discounts"`
	DiscountsAllocated []Discount `bson:"discounts_allocated" json:"discounts_allocated"`
	IsCancelled        bool       `bson:"is_cancelled" json:"is_cancelled"`
	AddedAt            time.Time  `bson:"added_at" json:"added_at"`
}

type Discount struct {
	Code   string  `bson:"code" json:"code"`
	Detail string  `bson:"detail" json:"detail"`
	Amount float64 `bson:"amount" json:"amount"`
}

// ReferenceMasters is the pricing context attached to a cart when it is
// created. The mutation engine never reads it.
type ReferenceMasters struct {
	StoreCode string `bson:"store_code" json:"store_code"`
	// TaxRate is nil when the cart carries no rate of its own; 0 means
	// tax exempt.
	TaxRate      *float64 `bson:"tax_rate,omitempty" json:"tax_rate,omitempty"`
	CurrencyCode string   `bson:"currency_code" json:"currency_code"`
}

// WithTaxRate returns a copy of m carrying rate.
func (m ReferenceMasters) WithTaxRate(rate float64) ReferenceMasters {
	m.TaxRate = &rate
	return m
}

// ActiveItems returns the lines that are not cancelled, in line order.
func (c *Cart) ActiveItems() []*LineItem {
	active := make([]*LineItem, 0, len(c.LineItems))
	for i := range c.LineItems {
		if !c.LineItems[i].IsCancelled {
			active = append(active, &c.LineItems[i])
		}
	}
	return active
}

// Clone returns a deep copy so a fetched snapshot can be handed out without
// sharing line slices with the original.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Masters.TaxRate != nil {
		out.Masters = c.Masters.WithTaxRate(*c.Masters.TaxRate)
	}
	out.LineItems = make([]LineItem, len(c.LineItems))
	for i, li := range c.LineItems {
		li.Discounts = append([]Discount(nil), li.Discounts...)
		li.DiscountsAllocated = append([]Discount(nil), li.DiscountsAllocated...)
		out.LineItems[i] = li
	}
	return &out
}
