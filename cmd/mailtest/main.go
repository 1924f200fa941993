// Sends a sample order confirmation through the configured email provider.
//
//	go run ./cmd/mailtest <recipient>
package main

import (
	"context"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/pkg/email"
	"github.com/your-org/fitness-backend/internal/pkg/logger"
)

func main() {
	if len(os.Args) != 2 {
		logrus.Fatal("Usage: go run ./cmd/mailtest <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg.Logging, "mailtest")

	emailService, err := email.NewEmailService(cfg.External.Email, cfg.App.Name, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure email")
	}

	now := time.Now().UTC()
	delivery := now.Add(cfg.Checkout.EstimatedDeliveryAfter)
	sample := &order.Order{
		OrderNumber:           "ORD-TEST",
		Status:                order.OrderStatusConfirmed,
		PaymentStatus:         order.PaymentStatusPaid,
		PaymentMethod:         order.PaymentMethodCreditCard,
		Subtotal:              decimal.RequireFromString("40.00"),
		ShippingAmount:        decimal.RequireFromString("15.00"),
		TaxAmount:             decimal.RequireFromString("4.00"),
		TotalAmount:           decimal.RequireFromString("59.00"),
		ShippingAddress:       "Test Customer\n1 Main St\nSpringfield, IL 62701\nUS",
		EstimatedDeliveryDate: &delivery,
		CreatedAt:             now,
		Items: []order.OrderItem{{
			ProductName: "Kettlebell 16kg",
			Quantity:    2,
			Price:       decimal.RequireFromString("20.00"),
			TotalPrice:  decimal.RequireFromString("40.00"),
		}},
	}
	recipient := &user.User{Email: os.Args[1], FirstName: "Test", LastName: "Customer"}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Checkout.NotificationTimeout)
	defer cancel()

	if err := emailService.SendOrderConfirmation(ctx, sample, recipient); err != nil {
		log.WithError(err).Fatal("Send failed")
	}

	log.WithField("provider", cfg.External.Email.Provider).Info("Test email sent")
}
