// Package pricing computes cart and order amounts. Every function is pure and
// works on decimals; only the grand total is rounded.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(100)
	TaxRate               = decimal.RequireFromString("0.10")
	DefaultShipping       = decimal.RequireFromString("25.00")
)

var shippingRates = map[string]decimal.Decimal{
	"RW":     decimal.RequireFromString("5.00"),
	"RWANDA": decimal.RequireFromString("5.00"),
	"US":     decimal.RequireFromString("15.00"),
	"CA":     decimal.RequireFromString("15.00"),
	"GB":     decimal.RequireFromString("15.00"),
	"AU":     decimal.RequireFromString("20.00"),
	"DE":     decimal.RequireFromString("20.00"),
	"FR":     decimal.RequireFromString("20.00"),
	"IT":     decimal.RequireFromString("20.00"),
	"ES":     decimal.RequireFromString("20.00"),
}

// Line is one priced cart or order line
type Line struct {
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Quantity      int
}

// Breakdown holds the amounts of an order
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping_amount"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Total    decimal.Decimal `json:"total_amount"`
}

// UnitPrice is the discount price when one is set and positive, the list price otherwise
func UnitPrice(price decimal.Decimal, discountPrice *decimal.Decimal) decimal.Decimal {
	if discountPrice != nil && discountPrice.IsPositive() {
		return *discountPrice
	}
	return price
}

// LineTotal is the unit price times quantity
func LineTotal(l Line) decimal.Decimal {
	return UnitPrice(l.Price, l.DiscountPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the line totals
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l))
	}
	return total
}

// Shipping is free from FreeShippingThreshold upwards, otherwise a flat rate by country
func Shipping(subtotal decimal.Decimal, country string) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	if rate, ok := shippingRates[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return rate
	}
	return DefaultShipping
}

// Tax applies the flat TaxRate to the subtotal
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate)
}

// Discount is reserved for coupons and always zero for now
func Discount(subtotal decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// Total adds the components and rounds half-up to cents
func Total(subtotal, shipping, tax, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shipping).Add(tax).Sub(discount).Round(2)
}

// Quote prices a set of lines shipped to country
func Quote(lines []Line, country string) Breakdown {
	subtotal := Subtotal(lines)
	shipping := Shipping(subtotal, country)
	tax := Tax(subtotal)
	discount := Discount(subtotal)

	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    Total(subtotal, shipping, tax, discount),
	}
}
