package domain

import (
	"time"

	"github.com/lbksmart/storefront/internal/pricing"
)

// PaymentStatusPending is the status of every newly assembled order.
const PaymentStatusPending = "pending"

// Delivery describes how the order ships.
type Delivery struct {
	Method pricing.Method `json:"method"`
	Label  string         `json:"label"`
	Delay  string         `json:"delay"`
	Cost   int64          `json:"cost"`
}

// Financial holds the order amounts.
type Financial struct {
	Subtotal int64 `json:"subtotal"`
	Delivery int64 `json:"delivery"`
	Total    int64 `json:"total"`
}

// Payment holds the payment choice and its state.
type Payment struct {
	Method PaymentMethod `json:"method"`
	Status string        `json:"status"`
}

// Order is the immutable record assembled at checkout. Items is a deep copy
// of the cart lines at assembly time.
type Order struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Responsible string     `json:"responsible"`
	Client      ClientInfo `json:"client"`
	Items       []LineItem `json:"items"`
	Delivery    Delivery   `json:"delivery"`
	Financial   Financial  `json:"financial"`
	Payment     Payment    `json:"payment"`
}

// Party resolves the responsible party, falling back to DefaultParty.
func (o *Order) Party() Party {
	if p, ok := PartyByID(o.Responsible); ok {
		return p
	}
	return DefaultParty
}
