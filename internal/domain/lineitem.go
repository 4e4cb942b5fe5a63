package domain

import (
	"maps"
	"sort"
	"strings"
	"time"
)

// DefaultMaxQuantity caps a line when the product declares no stock quantity.
const DefaultMaxQuantity = 99

// Dimensions are product measurements in centimeters.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// Variants maps a variant attribute to its chosen value, e.g. taille -> m.
type Variants map[string]string

// Equal compares two variant sets by content. nil equals empty.
func (v Variants) Equal(other Variants) bool {
	return maps.Equal(v, other)
}

// Clone returns an independent copy. It never returns nil.
func (v Variants) Clone() Variants {
	out := make(Variants, len(v))
	maps.Copy(out, v)
	return out
}

// String renders the variants sorted by name, "taille: m, couleur: noir",
// or "Standard" when there are none.
func (v Variants) String() string {
	if len(v) == 0 {
		return "Standard"
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return strings.Join(parts, ", ")
}

// Product is the catalog data a shopper adds to the cart.
type Product struct {
	ID             string            `json:"id" validate:"required,max=128"`
	Name           string            `json:"name" validate:"required,max=256"`
	Category       Category          `json:"category" validate:"required"`
	Price          int64             `json:"price" validate:"gte=0"`
	OriginalPrice  int64             `json:"original_price,omitempty" validate:"gte=0"`
	ImageURL       string            `json:"image_url,omitempty"`
	InStock        *bool             `json:"in_stock,omitempty"`
	StockQuantity  int               `json:"stock_quantity,omitempty" validate:"gte=0"`
	Dimensions     *Dimensions       `json:"dimensions,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

// LineItem is one product configuration in a cart.
type LineItem struct {
	ProductID      string            `json:"product_id"`
	Name           string            `json:"name"`
	Category       Category          `json:"category"`
	Price          int64             `json:"price"`
	OriginalPrice  int64             `json:"original_price,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	Quantity       int               `json:"quantity"`
	MaxQuantity    int               `json:"max_quantity"`
	Variants       Variants          `json:"variants"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Dimensions     *Dimensions       `json:"dimensions,omitempty"`
	InStock        *bool             `json:"in_stock,omitempty"`
	StockQuantity  int               `json:"stock_quantity,omitempty"`
	AddedAt        time.Time         `json:"added_at"`
}

// NewLineItem builds a line for product. The maximum quantity is the
// product's stock quantity, or DefaultMaxQuantity when it declares none.
func NewLineItem(p Product, variants Variants, quantity int, now time.Time) LineItem {
	maxQty := p.StockQuantity
	if maxQty <= 0 {
		maxQty = DefaultMaxQuantity
	}
	item := LineItem{
		ProductID:      p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Price:          p.Price,
		OriginalPrice:  p.OriginalPrice,
		ImageURL:       p.ImageURL,
		Quantity:       quantity,
		MaxQuantity:    maxQty,
		Variants:       variants.Clone(),
		StockQuantity:  p.StockQuantity,
		AddedAt:        now,
		Specifications: maps.Clone(p.Specifications),
	}
	if p.Dimensions != nil {
		d := *p.Dimensions
		item.Dimensions = &d
	}
	if p.InStock != nil {
		s := *p.InStock
		item.InStock = &s
	}
	return item
}

// Matches reports whether the line holds productID with exactly variants.
func (li LineItem) Matches(productID string, variants Variants) bool {
	return li.ProductID == productID && li.Variants.Equal(variants)
}

// LineTotal is price × quantity.
func (li LineItem) LineTotal() int64 {
	return li.Price * int64(li.Quantity)
}

// LowStock reports a declared stock quantity between 1 and 4.
func (li LineItem) LowStock() bool {
	return li.StockQuantity > 0 && li.StockQuantity < 5
}

// Clone deep-copies the line so the copy shares no maps or pointers.
func (li LineItem) Clone() LineItem {
	out := li
	out.Variants = li.Variants.Clone()
	out.Specifications = maps.Clone(li.Specifications)
	if li.Dimensions != nil {
		d := *li.Dimensions
		out.Dimensions = &d
	}
	if li.InStock != nil {
		s := *li.InStock
		out.InStock = &s
	}
	return out
}

// UnitPrice, Units and Size let pricing work on line items directly.

func (li LineItem) UnitPrice() int64 { return li.Price }

func (li LineItem) Units() int { return li.Quantity }

func (li LineItem) Size() (w, h, d float64, ok bool) {
	if li.Dimensions == nil {
		return 0, 0, 0, false
	}
	return li.Dimensions.Width, li.Dimensions.Height, li.Dimensions.Depth, true
}

// CloneItems deep-copies items.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
