package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/your-org/fitness-backend/internal/domain/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestUnitPrice(t *testing.T) {
	assert.True(t, pricing.UnitPrice(dec("30.00"), nil).Equal(dec("30.00")))
	assert.True(t, pricing.UnitPrice(dec("30.00"), decPtr("25.00")).Equal(dec("25.00")))
	assert.True(t, pricing.UnitPrice(dec("30.00"), decPtr("0")).Equal(dec("30.00")))
}

func TestQuoteBelowThresholdUS(t *testing.T) {
	lines := []pricing.Line{
		{Price: dec("30.00"), DiscountPrice: decPtr("25.00"), Quantity: 2},
		{Price: dec("10.00"), Quantity: 1},
	}

	b := pricing.Quote(lines, "US")

	assert.True(t, b.Subtotal.Equal(dec("60.00")), b.Subtotal.String())
	assert.True(t, b.Shipping.Equal(dec("15.00")), b.Shipping.String())
	assert.True(t, b.Tax.Equal(dec("6.00")), b.Tax.String())
	assert.True(t, b.Discount.IsZero())
	assert.True(t, b.Total.Equal(dec("81.00")), b.Total.String())
}

func TestQuoteAtThresholdShipsFree(t *testing.T) {
	lines := []pricing.Line{{Price: dec("50.00"), Quantity: 2}}

	b := pricing.Quote(lines, "FR")

	assert.True(t, b.Subtotal.Equal(dec("100.00")))
	assert.True(t, b.Shipping.IsZero())
	assert.True(t, b.Tax.Equal(dec("10.00")))
	assert.True(t, b.Total.Equal(dec("110.00")), b.Total.String())
}

func TestShippingTable(t *testing.T) {
	small := dec("20.00")
	cases := map[string]string{
		"RW":     "5.00",
		"rw":     "5.00",
		"Rwanda": "5.00",
		"US":     "15.00",
		"ca":     "15.00",
		"GB":     "15.00",
		"AU":     "20.00",
		"de":     "20.00",
		"FR":     "20.00",
		"IT":     "20.00",
		"ES":     "20.00",
		"JP":     "25.00",
		"":       "25.00",
	}

	for country, want := range cases {
		got := pricing.Shipping(small, country)
		assert.True(t, got.Equal(dec(want)), "country %q: got %s want %s", country, got, want)
	}
}

func TestTotalRoundsHalfUp(t *testing.T) {
	// 0.15 + 5.00 + 0.015 = 5.165
	lines := []pricing.Line{{Price: dec("0.15"), Quantity: 1}}

	b := pricing.Quote(lines, "RW")

	assert.True(t, b.Tax.Equal(dec("0.015")), "tax is kept unrounded")
	assert.True(t, b.Total.Equal(dec("5.17")), b.Total.String())
}

func TestTotalEqualsComponents(t *testing.T) {
	lines := []pricing.Line{
		{Price: dec("19.99"), Quantity: 3},
		{Price: dec("4.49"), DiscountPrice: decPtr("3.99"), Quantity: 5},
	}

	b := pricing.Quote(lines, "DE")
	want := b.Subtotal.Add(b.Shipping).Add(b.Tax).Sub(b.Discount).Round(2)

	assert.True(t, b.Total.Equal(want))
	assert.False(t, b.Total.IsNegative())
}
