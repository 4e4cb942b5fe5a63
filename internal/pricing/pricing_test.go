package pricing

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

type line struct {
	price   int64
	qty     int
	w, h, d float64
	sized   bool
}

func (l line) UnitPrice() int64 { return l.price }
func (l line) Units() int       { return l.qty }

func (l line) Size() (float64, float64, float64, bool) { return l.w, l.h, l.d, l.sized }

func TestSubtotal_Empty(t *testing.T) {
	assert.Equal(t, int64(0), Subtotal[line](nil))
	assert.Equal(t, int64(0), Subtotal([]line{}))
}

func TestSubtotal_ExactSum(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 50; n++ {
		var items []line
		var want int64
		for i := 0; i < r.IntN(8); i++ {
			l := line{price: r.Int64N(1_000_000), qty: 1 + r.IntN(99)}
			want += l.price * int64(l.qty)
			items = append(items, l)
		}
		assert.Equal(t, want, Subtotal(items))
	}
}

func TestShippingCost_FlatRates(t *testing.T) {
	big := []line{{price: 1, qty: 40, w: 200, h: 200, d: 200, sized: true}}
	assert.Equal(t, int64(25_000), ShippingCost(MethodAirExpress, big))
	assert.Equal(t, int64(18_000), ShippingCost(MethodAirNormal, big))
	assert.Equal(t, int64(25_000), ShippingCost[line](MethodAirExpress, nil))
}

func TestShippingCost_Sea(t *testing.T) {
	oneLitre := []line{{qty: 1, w: 10, h: 10, d: 10, sized: true}}
	assert.Equal(t, int64(150), ShippingCost(MethodSeaCBM, oneLitre))

	// 2 × 0.05 m³ + 3 × default 0.001 m³ = 0.103 m³
	mixed := []line{
		{qty: 2, w: 50, h: 20, d: 50, sized: true},
		{qty: 3},
	}
	assert.InDelta(t, 0.103, Volume(mixed), 1e-9)
	assert.Equal(t, int64(15_450), ShippingCost(MethodSeaCBM, mixed))
}

func TestShippingCost_UnknownIsFree(t *testing.T) {
	items := []line{{price: 100, qty: 1}}
	assert.Equal(t, int64(0), ShippingCost(MethodNone, items))
	assert.Equal(t, int64(0), ShippingCost(Method("drone"), items))
}

func TestMethodMetadata(t *testing.T) {
	assert.True(t, MethodSeaCBM.Valid())
	assert.True(t, MethodNone.Valid())
	assert.False(t, Method("drone").Valid())
	assert.Equal(t, "15 jours", MethodAirExpress.Delay())
	assert.Equal(t, "Maritime (CBM)", MethodSeaCBM.Label())
	assert.Equal(t, "À convenir", Method("drone").Delay())
}

func TestNewQuote(t *testing.T) {
	items := []line{{price: 12_500, qty: 2}}
	q := NewQuote(MethodAirNormal, items)

	assert.Equal(t, Quote{
		Method:   MethodAirNormal,
		Label:    "Aérien Normal",
		Delay:    "21 jours",
		VolumeM3: 0.002,
		Subtotal: 25_000,
		Shipping: 18_000,
		Total:    43_000,
	}, q)
}
