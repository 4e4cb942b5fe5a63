// Package pricing computes cart subtotals and shipping costs. Every function
// is pure: the same items and method always give the same amounts.
package pricing

import "math"

// Method is a shipping method selectable at checkout.
type Method string

const (
	MethodNone       Method = ""
	MethodAirExpress Method = "air_express"
	MethodAirNormal  Method = "air_normal"
	MethodSeaCBM     Method = "sea_cbm"
)

const (
	airExpressCost int64 = 25_000
	airNormalCost  int64 = 18_000
	// seaRatePerM3 is the maritime freight price per cubic meter.
	seaRatePerM3 = 150_000.0
	// DefaultUnitVolume is the volume in m³ assumed for an item without dimensions.
	DefaultUnitVolume = 0.001
)

var methodInfo = map[Method]struct{ label, delay string }{
	MethodNone:       {"Non sélectionné", "À convenir"},
	MethodAirExpress: {"Aérien Express", "15 jours"},
	MethodAirNormal:  {"Aérien Normal", "21 jours"},
	MethodSeaCBM:     {"Maritime (CBM)", "30-45 jours"},
}

// Methods lists the selectable methods in display order.
func Methods() []Method {
	return []Method{MethodAirExpress, MethodAirNormal, MethodSeaCBM}
}

// Valid reports whether m is a known method or MethodNone.
func (m Method) Valid() bool {
	_, ok := methodInfo[m]
	return ok
}

// Label is the display name of m.
func (m Method) Label() string {
	if info, ok := methodInfo[m]; ok {
		return info.label
	}
	return methodInfo[MethodNone].label
}

// Delay is the estimated delivery delay of m.
func (m Method) Delay() string {
	if info, ok := methodInfo[m]; ok {
		return info.delay
	}
	return methodInfo[MethodNone].delay
}

// Line is one priced cart line.
type Line interface {
	UnitPrice() int64
	Units() int
	// Size returns width, height and depth in centimeters, or ok=false
	// when the product declares no dimensions.
	Size() (w, h, d float64, ok bool)
}

// Subtotal is Σ price × quantity. It is 0 for no items.
func Subtotal[L Line](items []L) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPrice() * int64(it.Units())
	}
	return total
}

// Volume estimates the shipped volume in m³.
func Volume[L Line](items []L) float64 {
	var total float64
	for _, it := range items {
		unit := DefaultUnitVolume
		if w, h, d, ok := it.Size(); ok {
			unit = w * h * d / 1_000_000
		}
		total += unit * float64(it.Units())
	}
	return total
}

// ShippingCost prices method for items. Unknown methods cost 0.
func ShippingCost[L Line](method Method, items []L) int64 {
	switch method {
	case MethodAirExpress:
		return airExpressCost
	case MethodAirNormal:
		return airNormalCost
	case MethodSeaCBM:
		return int64(math.Round(Volume(items) * seaRatePerM3))
	default:
		return 0
	}
}

// Quote is the full price breakdown of a cart for one method.
type Quote struct {
	Method   Method  `json:"method"`
	Label    string  `json:"label"`
	Delay    string  `json:"delay"`
	VolumeM3 float64 `json:"volume_m3"`
	Subtotal int64   `json:"subtotal"`
	Shipping int64   `json:"shipping"`
	Total    int64   `json:"total"`
}

// NewQuote prices items for method.
func NewQuote[L Line](method Method, items []L) Quote {
	subtotal := Subtotal(items)
	shipping := ShippingCost(method, items)
	return Quote{
		Method:   method,
		Label:    method.Label(),
		Delay:    method.Delay(),
		VolumeM3: Volume(items),
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal + shipping,
	}
}
