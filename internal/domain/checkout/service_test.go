package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/checkout"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/payment"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/infrastructure/database/inmemory"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/logger"
)

type stubProcessor struct {
	err   error
	block bool
}

func (p stubProcessor) Charge(ctx context.Context, _ *order.Order, _ *payment.Details) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

// hookProcessor approves every charge after running during
type hookProcessor struct {
	during func(ctx context.Context)
}

func (p *hookProcessor) Charge(ctx context.Context, _ *order.Order, _ *payment.Details) error {
	if p.during != nil {
		p.during(ctx)
	}
	return nil
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (n *countingNotifier) SendOrderConfirmation(context.Context, *order.Order, *user.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return n.err
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type fakeLocker struct {
	held     map[string]bool
	err      error
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	return func() { l.released++ }, true, nil
}

type fixture struct {
	store      *inmemory.Store
	carts      *cart.Service
	svc        *checkout.Service
	dispatcher *order.Dispatcher
	notifier   *countingNotifier
	user       user.User
	bar        product.Product
	band       product.Product
}

type options struct {
	processor payment.Processor
	locker    checkout.Locker
	notifyErr error
}

func newFixture(t *testing.T, opts options) *fixture {
	t.Helper()

	store := inmemory.NewStore()
	log := logger.Discard()
	notifier := &countingNotifier{err: opts.notifyErr}
	dispatcher := order.NewDispatcher(notifier, nil, time.Second, log)
	carts := cart.NewService(store.Carts(), store.Catalog(), store.Users(), store, log)

	if opts.processor == nil {
		opts.processor = payment.NewMockProcessor(0, log)
	}

	svc := checkout.NewService(checkout.Dependencies{
		Users:      store.Users(),
		Carts:      store.Carts(),
		CartSvc:    carts,
		Catalog:    store.Catalog(),
		Orders:     store.Orders(),
		Tx:         store,
		Payments:   opts.processor,
		Dispatcher: dispatcher,
		Locker:     opts.locker,
	}, checkout.Options{PaymentTimeout: 50 * time.Millisecond}, log)

	u := store.AddUser(user.User{Email: "runner@example.com", FirstName: "Ada", Role: user.RoleClient, IsActive: true})
	bar := store.AddProduct(product.Product{
		Name:           "Protein Bar Box",
		Description:    "12 bars",
		Price:          decimal.RequireFromString("25.00"),
		InventoryCount: 10,
		IsActive:       true,
		Categories:     []string{"nutrition", "snacks"},
		Images:         []product.ProductImage{{URL: "https://cdn.example.com/bars.jpg", IsMain: true}},
	})
	band := store.AddProduct(product.Product{
		Name:           "Resistance Band",
		Price:          decimal.RequireFromString("10.00"),
		DiscountPrice:  decimal.NewNullDecimal(decimal.RequireFromString("8.00")),
		InventoryCount: 5,
		IsActive:       true,
	})

	return &fixture{
		store:      store,
		carts:      carts,
		svc:        svc,
		dispatcher: dispatcher,
		notifier:   notifier,
		user:       u,
		bar:        bar,
		band:       band,
	}
}

// fill puts two bars and one band in the cart: subtotal 58.00
func (f *fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, f.user.ID, f.bar.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.user.ID, f.band.ID, 1)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := f.store.Catalog().FindProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.InventoryCount
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.store.Orders().List(context.Background(), order.ListFilter{})
	require.NoError(t, err)
	return total
}

func request(method order.PaymentMethod) *checkout.Request {
	return &checkout.Request{
		PaymentMethod: method,
		ShippingAddress: &order.Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Street:    "1 Main St",
			City:      "Springfield",
			State:     "IL",
			ZipCode:   "62701",
			Country:   "US",
		},
		CustomerNotes: "Ring twice",
	}
}

func cardRequest() *checkout.Request {
	req := request(order.PaymentMethodCreditCard)
	req.PaymentDetails = &payment.Details{CardNumber: "4111 1111 1111 1111", CVV: "123", ExpiryMonth: "12", ExpiryYear: "2030"}
	return req
}

func TestCheckoutCreatesPaidOrder(t *testing.T) {
	f := newFixture(t, options{})
	f.fill(t)
	ctx := context.Background()

	o, err := f.svc.Checkout(ctx, f.user.ID, cardRequest())
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d+$`, o.OrderNumber)
	assert.Equal(t, order.OrderStatusConfirmed, o.Status)
	assert.Equal(t, order.PaymentStatusPaid, o.PaymentStatus)
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("58.00")), o.Subtotal.String())
	assert.True(t, o.ShippingAmount.Equal(decimal.RequireFromString("15")))
	assert.True(t, o.TaxAmount.Equal(decimal.RequireFromString("5.8")))
	assert.True(t, o.DiscountAmount.IsZero())
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("78.80")), o.TotalAmount.String())
	assert.Contains(t, o.ShippingAddress, "Springfield, IL 62701")
	assert.Equal(t, o.ShippingAddress, o.BillingAddress)
	require.NotNil(t, o.EstimatedDeliveryDate)
	assert.True(t, o.EstimatedDeliveryDate.After(time.Now()))

	require.Len(t, o.Items, 2)
	bars := o.Items[0]
	assert.Equal(t, "Protein Bar Box", bars.ProductName)
	assert.Equal(t, "12 bars", bars.ProductDescription)
	assert.Equal(t, "nutrition, snacks", bars.ProductCategory)
	assert.Equal(t, "https://cdn.example.com/bars.jpg", bars.ProductImageURL)
	assert.True(t, bars.TotalPrice.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, o.Items[1].TotalPrice.Equal(decimal.RequireFromString("8.00")))

	assert.Equal(t, 8, f.stock(t, f.bar.ID))
	assert.Equal(t, 4, f.stock(t, f.band.ID))

	count, err := f.carts.ItemCount(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	stored, err := f.store.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusConfirmed, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)

	f.dispatcher.Wait()
	assert.Equal(t, 1, f.notifier.count())
}

func TestCheckoutWithoutPaymentDetailsStaysPending(t *testing.T) {
	f := newFixture(t, options{})
	f.fill(t)

	o, err := f.svc.Checkout(context.Background(), f.user.ID, request(order.PaymentMethodCashOnDelivery))
	require.NoError(t, err)

	assert.Equal(t, order.OrderStatusPending, o.Status)
	assert.Equal(t, order.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, 8, f.stock(t, f.bar.ID))
}

func TestCheckoutUsesSeparateBillingAddress(t *testing.T) {
	f := newFixture(t, options{})
	f.fill(t)

	req := request(order.PaymentMethodPayPal)
	req.BillingAddress = &order.Address{Street: "9 Office Park", City: "Chicago", State: "IL", ZipCode: "60601", Country: "US"}

	o, err := f.svc.Checkout(context.Background(), f.user.ID, req)
	require.NoError(t, err)
	assert.Contains(t, o.BillingAddress, "9 Office Park")
	assert.NotEqual(t, o.ShippingAddress, o.BillingAddress)
}

func TestCheckoutRollsBackWhenStockIsTaken(t *testing.T) {
	f := newFixture(t, options{})
	f.fill(t)
	f.store.RejectDecrement(f.band.ID)

	_, err := f.svc.Checkout(context.Background(), f.user.ID, cardRequest())
	require.ErrorIs(t, err, apperror.ErrInsufficientInventory)
	assert.Contains(t, err.Error(), "Resistance Band")

	assert.Equal(t, 10, f.stock(t, f.bar.ID), "first line must be rolled back")
	assert.Equal(t, 5, f.stock(t, f.band.ID))
	assert.Zero(t, f.orderCount(t))

	count, err := f.carts.ItemCount(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCheckoutRejectsUnusableCarts(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.user.ID, cardRequest())
	assert.ErrorIs(t, err, apperror.ErrNotFound, "no cart")

	_, err = f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.user.ID, cardRequest())
	assert.ErrorIs(t, err, apperror.ErrValidation, "empty cart")

	f.fill(t)
	inactive := f.band
	inactive.IsActive = false
	f.store.UpdateProduct(inactive)

	_, err = f.svc.Checkout(ctx, f.user.ID, cardRequest())
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "cart contains invalid items")
	assert.Zero(t, f.orderCount(t))

	_, err = f.svc.Checkout(ctx, 4242, cardRequest())
	assert.ErrorIs(t, err, apperror.ErrNotFound, "unknown user")
}

func TestCheckoutValidatesRequest(t *testing.T) {
	f := newFixture(t, options{})
	f.fill(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.user.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	noAddress := request(order.PaymentMethodPayPal)
	noAddress.ShippingAddress = nil
	_, err = f.svc.Checkout(ctx, f.user.ID, noAddress)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "shipping_address")

	noCity := request(order.PaymentMethodPayPal)
	noCity.ShippingAddress.City = ""
	_, err = f.svc.Checkout(ctx, f.user.ID, noCity)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "city")

	_, err = f.svc.Checkout(ctx, f.user.ID, request(order.PaymentMethod("BARTER")))
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "payment_method")

	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, 10, f.stock(t, f.bar.ID))
}

func TestCheckoutPaymentDeclined(t *testing.T) {
	f := newFixture(t, options{processor: stubProcessor{err: payment.ErrDeclined}})
	f.fill(t)
	ctx := context.Background()

	o, err := f.svc.Checkout(ctx, f.user.ID, cardRequest())
	require.ErrorIs(t, err, apperror.ErrPaymentFailed)
	assert.Equal(t, "Payment processing failed", apperror.PublicMessage(err))

	require.NotNil(t, o)
	assert.Equal(t, order.OrderStatusCancelled, o.Status)
	assert.Equal(t, order.PaymentStatusFailed, o.PaymentStatus)

	assert.Equal(t, 10, f.stock(t, f.bar.ID))
	assert.Equal(t, 5, f.stock(t, f.band.ID))

	stored, err := f.store.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, stored.Status)
	assert.True(t, stored.InventoryReleased)

	f.dispatcher.Wait()
	assert.Zero(t, f.notifier.count())
}

func TestCheckoutPaymentTimeout(t *testing.T) {
	f := newFixture(t, options{processor: stubProcessor{block: true}})
	f.fill(t)

	o, err := f.svc.Checkout(context.Background(), f.user.ID, cardRequest())
	require.ErrorIs(t, err, apperror.ErrPaymentFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, order.PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, 10, f.stock(t, f.bar.ID))
}

func TestCheckoutInvalidCardFailsPayment(t *testing.T) {
	f := newFixture(t, options{})
	f.fill(t)

	req := cardRequest()
	req.PaymentDetails.CardNumber = "4111"

	_, err := f.svc.Checkout(context.Background(), f.user.ID, req)
	require.ErrorIs(t, err, apperror.ErrPaymentFailed)
	assert.ErrorIs(t, err, payment.ErrDeclined)
}

func TestCheckoutSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t, options{notifyErr: errors.New("smtp down")})
	f.fill(t)

	o, err := f.svc.Checkout(context.Background(), f.user.ID, cardRequest())
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusConfirmed, o.Status)

	f.dispatcher.Wait()
	assert.Equal(t, 1, f.notifier.count())
}

func TestCheckoutLock(t *testing.T) {
	locker := &fakeLocker{held: map[string]bool{}}
	f := newFixture(t, options{locker: locker})
	f.fill(t)
	key := fmt.Sprintf("checkout:user:%d", f.user.ID)

	locker.held[key] = true
	_, err := f.svc.Checkout(context.Background(), f.user.ID, cardRequest())
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Zero(t, f.orderCount(t))

	delete(locker.held, key)
	_, err = f.svc.Checkout(context.Background(), f.user.ID, cardRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, locker.released)
}

func TestCheckoutProceedsWhenLockBackendFails(t *testing.T) {
	f := newFixture(t, options{locker: &fakeLocker{err: errors.New("redis: connection refused")}})
	f.fill(t)

	_, err := f.svc.Checkout(context.Background(), f.user.ID, cardRequest())
	require.NoError(t, err)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, options{})
	ctx := context.Background()

	empty, err := f.svc.Preview(ctx, f.user.ID, "US")
	require.NoError(t, err)
	assert.True(t, empty.Subtotal.IsZero())

	f.fill(t)
	b, err := f.svc.Preview(ctx, f.user.ID, "rw")
	require.NoError(t, err)
	assert.True(t, b.Shipping.Equal(decimal.NewFromInt(5)))
	assert.True(t, b.Total.Equal(decimal.RequireFromString("68.80")), b.Total.String())

	assert.Equal(t, 10, f.stock(t, f.bar.ID))
}

func TestCheckoutKeepsItemsAddedDuringPayment(t *testing.T) {
	processor := &hookProcessor{}
	f := newFixture(t, options{processor: processor})
	f.fill(t)
	ctx := context.Background()

	mat := f.store.AddProduct(product.Product{
		Name:           "Yoga Mat",
		Price:          decimal.RequireFromString("30.00"),
		InventoryCount: 3,
		IsActive:       true,
	})
	processor.during = func(context.Context) {
		_, err := f.carts.AddItem(ctx, f.user.ID, mat.ID, 1)
		assert.NoError(t, err)
		_, err = f.carts.AddItem(ctx, f.user.ID, f.band.ID, 1)
		assert.NoError(t, err)
	}

	o, err := f.svc.Checkout(ctx, f.user.ID, cardRequest())
	require.NoError(t, err)
	require.Len(t, o.Items, 2)

	view, err := f.carts.GetOrCreateCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	quantities := map[uint]int{}
	for _, item := range view.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[uint]int{mat.ID: 1, f.band.ID: 1}, quantities)

	for _, h := range o.StatusHistory {
		assert.NotZero(t, h.ID)
	}
}
