// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/payment"
	"github.com/your-org/fitness-backend/internal/domain/pricing"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/metrics"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// Locker serialises checkouts per user across instances
type Locker interface {
	// Acquire takes key for ttl. ok is false when someone else holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Options tunes the checkout pipeline
type Options struct {
	PaymentTimeout    time.Duration
	LockTTL           time.Duration
	EstimatedDelivery time.Duration
}

// Dependencies groups the collaborators of the checkout service
type Dependencies struct {
	Users      user.Repository
	Carts      cart.Repository
	CartSvc    *cart.Service
	Catalog    product.Catalog
	Orders     order.Repository
	Tx         txn.Transactor
	Payments   payment.Processor
	Dispatcher *order.Dispatcher
	// Locker is optional; without it only the database row locks apply
	Locker Locker
}

// Service turns a user's cart into an order
type Service struct {
	deps     Dependencies
	opts     Options
	validate *validator.Validate
	seq      atomic.Uint32
	log      logrus.FieldLogger
}

// NewService creates a new checkout service
func NewService(deps Dependencies, opts Options, log logrus.FieldLogger) *Service {
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = 10 * time.Second
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.EstimatedDelivery <= 0 {
		opts.EstimatedDelivery = 7 * 24 * time.Hour
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		deps:     deps,
		opts:     opts,
		validate: v,
		log:      log.WithField("component", "checkout"),
	}
}

// Request represents the checkout payload
type Request struct {
	PaymentMethod   order.PaymentMethod `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD PAYPAL BANK_TRANSFER CASH_ON_DELIVERY DIGITAL_WALLET"`
	ShippingAddress *order.Address      `json:"shipping_address" validate:"required"`
	BillingAddress  *order.Address      `json:"billing_address,omitempty" validate:"omitempty"`
	CustomerNotes   string              `json:"customer_notes,omitempty" validate:"max=1000"`
	PaymentDetails  *payment.Details    `json:"payment_details,omitempty" validate:"omitempty"`
}

// Checkout validates the user's cart, reserves stock and records an order.
// When payment details are supplied the order is charged before returning.
func (s *Service) Checkout(ctx context.Context, userID uint, req *Request) (*order.Order, error) {
	start := time.Now()
	o, err := s.checkout(ctx, userID, req)
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	metrics.CheckoutsTotal.WithLabelValues(outcome(err)).Inc()
	return o, err
}

func (s *Service) checkout(ctx context.Context, userID uint, req *Request) (*order.Order, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	u, err := s.deps.Users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	c, err := s.deps.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, apperror.NotFoundf("cart not found for user: %d", userID)
	}
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.Validation("cart is empty")
	}

	valid, err := s.deps.CartSvc.Validate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperror.Validation("cart contains invalid items")
	}

	o := s.newOrder(userID, req)

	// the reservation must never be abandoned halfway by a client disconnect
	txCtx := context.WithoutCancel(ctx)
	err = s.deps.Tx.WithinTransaction(txCtx, func(ctx context.Context) error {
		return s.reserve(ctx, userID, o, req.ShippingAddress.Country)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"user_id":      userID,
		"total":        o.TotalAmount.StringFixed(2),
	}).Info("Order created")

	if req.PaymentDetails != nil {
		if err := s.charge(txCtx, o, req.PaymentDetails); err != nil {
			return o, err
		}
	}

	ordered := make(map[uint]int, len(o.Items))
	for _, item := range o.Items {
		ordered[item.ProductID] += item.Quantity
	}
	if err := s.deps.CartSvc.RemoveOrdered(txCtx, userID, ordered); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Failed to clear cart after checkout")
	}

	s.deps.Dispatcher.Confirmation(order.EventOrderCreated, o, u)

	return o, nil
}

// Preview prices the current cart for country without touching any state
func (s *Service) Preview(ctx context.Context, userID uint, country string) (*pricing.Breakdown, error) {
	c, err := s.deps.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, cart.ErrCartNotFound) {
		b := pricing.Quote(nil, country)
		return &b, nil
	}
	if err != nil {
		return nil, err
	}

	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		p, err := s.deps.Catalog.FindProductByID(ctx, item.ProductID)
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, pricing.Line{Price: p.Price, DiscountPrice: p.DiscountPtr(), Quantity: item.Quantity})
	}

	b := pricing.Quote(lines, country)
	return &b, nil
}

func (s *Service) newOrder(userID uint, req *Request) *order.Order {
	now := time.Now().UTC()
	delivery := now.Add(s.opts.EstimatedDelivery)

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = req.BillingAddress
	}

	return &order.Order{
		OrderNumber:           s.nextOrderNumber(now),
		UserID:                userID,
		Status:                order.OrderStatusPending,
		PaymentStatus:         order.PaymentStatusPending,
		PaymentMethod:         req.PaymentMethod,
		ShippingAddress:       req.ShippingAddress.Format(),
		BillingAddress:        billing.Format(),
		CustomerNotes:         req.CustomerNotes,
		EstimatedDeliveryDate: &delivery,
	}
}

// reserve locks the cart, snapshots every line into o, takes the stock and
// inserts the order. Runs inside the checkout transaction.
func (s *Service) reserve(ctx context.Context, userID uint, o *order.Order, country string) error {
	if _, err := s.deps.Carts.LockByUserID(ctx, userID); err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return apperror.NotFoundf("cart not found for user: %d", userID)
		}
		return err
	}
	// reloaded under the lock so the snapshot is exactly what gets removed later
	c, err := s.deps.Carts.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if c.IsEmpty() {
		return apperror.Validation("cart is empty")
	}

	lines := make([]pricing.Line, 0, len(c.Items))
	o.Items = make([]order.OrderItem, 0, len(c.Items))

	for _, item := range c.Items {
		p, err := s.deps.Catalog.FindProductByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apperror.InvalidState("product is not available: %s", p.Name)
		}
		if !p.HasStock(item.Quantity) {
			metrics.InventoryReservationsFailed.WithLabelValues("insufficient_stock").Inc()
			return apperror.InsufficientInventory(p.Name, p.InventoryCount)
		}

		ok, err := s.deps.Catalog.DecrementInventory(ctx, p.ID, item.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			metrics.InventoryReservationsFailed.WithLabelValues("concurrent_update").Inc()
			return apperror.InsufficientInventory(p.Name, p.InventoryCount)
		}

		line := pricing.Line{Price: p.Price, DiscountPrice: p.DiscountPtr(), Quantity: item.Quantity}
		lines = append(lines, line)

		o.Items = append(o.Items, order.OrderItem{
			ProductID:          p.ID,
			Quantity:           item.Quantity,
			Price:              p.Price,
			DiscountPrice:      p.DiscountPrice,
			TotalPrice:         pricing.LineTotal(line),
			ProductName:        p.Name,
			ProductDescription: p.Description,
			ProductCategory:    p.CategoryLabel(),
			ProductImageURL:    p.MainImageURL(),
		})
	}

	b := pricing.Quote(lines, country)
	o.Subtotal = b.Subtotal
	o.ShippingAmount = b.Shipping
	o.TaxAmount = b.Tax
	o.DiscountAmount = b.Discount
	o.TotalAmount = b.Total

	o.AddStatusHistory("Order placed")
	return s.deps.Orders.Create(ctx, o)
}

// charge runs the payment outside the reservation transaction and records
// the outcome. A failed charge cancels the order and returns its stock.
func (s *Service) charge(ctx context.Context, o *order.Order, details *payment.Details) error {
	metrics.PaymentAttemptsTotal.Inc()

	payCtx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	start := time.Now()
	payErr := s.deps.Payments.Charge(payCtx, o, details)
	cancel()
	metrics.PaymentProcessingLatency.Observe(time.Since(start).Seconds())

	err := s.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if payErr == nil {
			o.PaymentStatus = order.PaymentStatusPaid
			o.Status = order.OrderStatusConfirmed
			return s.record(ctx, o, "Payment received")
		}

		for _, item := range o.Items {
			if err := s.deps.Catalog.RestoreInventory(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		o.InventoryReleased = true
		o.PaymentStatus = order.PaymentStatusFailed
		o.Status = order.OrderStatusCancelled
		return s.record(ctx, o, "Payment failed")
	})
	if err != nil {
		return fmt.Errorf("failed to record payment outcome for %s: %w", o.OrderNumber, err)
	}

	if payErr != nil {
		reason := "declined"
		if errors.Is(payErr, context.DeadlineExceeded) {
			reason = "timeout"
		}
		metrics.PaymentFailedTotal.WithLabelValues(reason).Inc()
		s.log.WithError(payErr).WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"card":         details.MaskedCardNumber(),
		}).Warn("Payment failed, order cancelled")
		return apperror.PaymentFailed("Payment processing failed", payErr)
	}

	s.log.WithField("order_number", o.OrderNumber).Info("Payment succeeded")
	return nil
}

func (s *Service) record(ctx context.Context, o *order.Order, comment string) error {
	o.UpdatedAt = time.Now().UTC()
	if err := s.deps.Orders.Save(ctx, o); err != nil {
		return err
	}
	return s.deps.Orders.AddHistory(ctx, o.AddStatusHistory(comment))
}

func (s *Service) lock(ctx context.Context, userID uint) (func(), error) {
	if s.deps.Locker == nil {
		return func() {}, nil
	}

	release, ok, err := s.deps.Locker.Acquire(ctx, fmt.Sprintf("checkout:user:%d", userID), s.opts.LockTTL)
	if err != nil {
		// proceed unlocked; row locks still guard stock
		s.log.WithError(err).Warn("Checkout lock unavailable")
		return func() {}, nil
	}
	if !ok {
		return nil, apperror.Conflict("a checkout is already in progress for this user")
	}
	return release, nil
}

func (s *Service) validateRequest(req *Request) error {
	if req == nil {
		return apperror.Validation("checkout request is required")
	}

	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid checkout request: %v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Request.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", field, fe.Tag()))
		}
	}
	return apperror.Validation("invalid checkout request: %s", strings.Join(msgs, "; "))
}

// nextOrderNumber returns ORD- followed by the creation time in milliseconds
// and a per-process sequence.
func (s *Service) nextOrderNumber(now time.Time) string {
	seq := s.seq.Add(1) % 10000
	return fmt.Sprintf("ORD-%d%04d", now.UnixMilli(), seq)
}

func outcome(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindInternal:
		if err == nil {
			return metrics.OutcomeSuccess
		}
		return metrics.OutcomeError
	case apperror.KindPaymentFailed:
		return metrics.OutcomePaymentFailed
	case apperror.KindInsufficientInventory:
		return metrics.OutcomeInsufficientInventory
	default:
		return metrics.OutcomeRejected
	}
}
