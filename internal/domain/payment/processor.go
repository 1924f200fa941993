// internal/domain/payment/processor.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/order"
)

// ErrDeclined is returned when the charge is refused
var ErrDeclined = errors.New("payment declined")

// Details carries the customer's payment instrument. It is never persisted.
type Details struct {
	CardNumber     string `json:"card_number" validate:"omitempty,max=23"`
	ExpiryMonth    string `json:"expiry_month" validate:"omitempty,len=2,numeric"`
	ExpiryYear     string `json:"expiry_year" validate:"omitempty,len=4,numeric"`
	CVV            string `json:"cvv" validate:"omitempty,min=3,max=4,numeric"`
	CardHolderName string `json:"card_holder_name" validate:"max=100"`
	WalletID       string `json:"wallet_id"`
	WalletProvider string `json:"wallet_provider"`
	BankName       string `json:"bank_name"`
}

// MaskedCardNumber returns the card number with all but the last four digits hidden
func (d *Details) MaskedCardNumber() string {
	digits := strings.ReplaceAll(d.CardNumber, " ", "")
	if len(digits) < 4 {
		return "****"
	}
	return "**** **** **** " + digits[len(digits)-4:]
}

// Processor charges an order synchronously. Implementations must honour ctx
// cancellation so callers can bound the call.
type Processor interface {
	Charge(ctx context.Context, o *order.Order, details *Details) error
}

// MockProcessor approves every well-formed payment without contacting a gateway
type MockProcessor struct {
	latency time.Duration
	log     logrus.FieldLogger
}

// NewMockProcessor returns a processor that waits latency before answering
func NewMockProcessor(latency time.Duration, log logrus.FieldLogger) *MockProcessor {
	return &MockProcessor{
		latency: latency,
		log:     log.WithField("component", "payment"),
	}
}

func (p *MockProcessor) Charge(ctx context.Context, o *order.Order, details *Details) error {
	p.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"amount":       o.TotalAmount.StringFixed(2),
		"method":       o.PaymentMethod,
	}).Info("Processing payment")

	if o.PaymentMethod.RequiresCard() {
		if err := validateCard(details); err != nil {
			p.log.WithField("order_number", o.OrderNumber).Warn("Invalid card details")
			return err
		}
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return fmt.Errorf("payment gateway: %w", ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("payment gateway: %w", err)
	}

	return nil
}

func validateCard(details *Details) error {
	if details == nil || details.CardNumber == "" || details.CVV == "" {
		return fmt.Errorf("%w: card number and CVV are required", ErrDeclined)
	}

	digits := strings.ReplaceAll(details.CardNumber, " ", "")
	if len(digits) < 13 {
		return fmt.Errorf("%w: card number too short", ErrDeclined)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: card number must be numeric", ErrDeclined)
		}
	}
	return nil
}
