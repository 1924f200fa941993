package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/domain/order"
)

func TestRenderHTML(t *testing.T) {
	svc := NewService(config.InvoiceConfig{
		CompanyName:    "Fitness Store",
		CompanyEmail:   "billing@example.com",
		CurrencySymbol: "$",
	})

	o := &order.Order{
		OrderNumber:     "ORD-42",
		Status:          order.OrderStatusConfirmed,
		PaymentStatus:   order.PaymentStatusPaid,
		Subtotal:        decimal.RequireFromString("0.15"),
		ShippingAmount:  decimal.RequireFromString("5"),
		TaxAmount:       decimal.RequireFromString("0.015"),
		TotalAmount:     decimal.RequireFromString("5.17"),
		ShippingAddress: "Ada Lovelace\n1 Main St\nKigali, KG 00000\nRW",
		BillingAddress:  "Ada Lovelace\n1 Main St\nKigali, KG 00000\nRW",
		CreatedAt:       time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		Items: []order.OrderItem{{
			ProductName:     "Chalk Ball",
			ProductCategory: "climbing, accessories",
			Quantity:        1,
			Price:           decimal.RequireFromString("0.15"),
			TotalPrice:      decimal.RequireFromString("0.15"),
		}},
	}

	html, err := svc.RenderHTML(o)
	require.NoError(t, err)

	assert.Contains(t, html, "INV-ORD-42")
	assert.Contains(t, html, "May 4, 2024")
	assert.Contains(t, html, "<p>Kigali, KG 00000</p>")
	assert.Contains(t, html, "Chalk Ball")
	assert.Contains(t, html, "$0.02")
	assert.Contains(t, html, "$5.17")
	assert.Contains(t, html, "status-paid")
	assert.NotContains(t, html, "Discount:")
}
