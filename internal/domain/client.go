package domain

// PaymentMethod is how the client intends to pay on delivery.
type PaymentMethod string

const (
	PaymentMobileMoney PaymentMethod = "mobile_money"
	PaymentIlicoCash   PaymentMethod = "ilicocash"
	PaymentCash        PaymentMethod = "cash"
)

var paymentLabels = map[PaymentMethod]string{
	PaymentMobileMoney: "Mobile Money",
	PaymentIlicoCash:   "IllicoCash",
	PaymentCash:        "Espèces à la livraison",
}

// Label is the display name of the payment method.
func (p PaymentMethod) Label() string {
	if l, ok := paymentLabels[p]; ok {
		return l
	}
	return string(p)
}

// ClientInfo is collected once per checkout.
type ClientInfo struct {
	Name          string        `json:"name" validate:"required,max=120"`
	Phone         string        `json:"phone" validate:"required,phone"`
	Address       string        `json:"address" validate:"required,max=500"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=mobile_money ilicocash cash"`
}
