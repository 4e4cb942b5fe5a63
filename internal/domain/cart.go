package domain

import (
	"time"

	"github.com/lbksmart/storefront/internal/pricing"
)

// Cart is the persisted cart of one browser session. Amounts are derived
// from Items and ShippingMethod on demand and never stored.
type Cart struct {
	SessionID      string         `json:"session_id"`
	Items          []LineItem     `json:"items"`
	ShippingMethod pricing.Method `json:"shipping_method"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewCart returns an empty cart for session.
func NewCart(session string) *Cart {
	return &Cart{SessionID: session, Items: []LineItem{}}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItemIndex returns the line holding productID with variants, or -1.
func (c *Cart) FindItemIndex(productID string, variants Variants) int {
	for i := range c.Items {
		if c.Items[i].Matches(productID, variants) {
			return i
		}
	}
	return -1
}

// InRange reports whether index addresses a line.
func (c *Cart) InRange(index int) bool {
	return index >= 0 && index < len(c.Items)
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Subtotal() int64 {
	return pricing.Subtotal(c.Items)
}

func (c *Cart) Shipping() int64 {
	return pricing.ShippingCost(c.ShippingMethod, c.Items)
}

func (c *Cart) Total() int64 {
	return c.Subtotal() + c.Shipping()
}

// Quote prices the cart with its selected shipping method.
func (c *Cart) Quote() pricing.Quote {
	return pricing.NewQuote(c.ShippingMethod, c.Items)
}

// Clone deep-copies the cart.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = CloneItems(c.Items)
	return &out
}
