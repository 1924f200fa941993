package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/infrastructure/database/inmemory"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []order.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type failingNotifier struct{}

func (failingNotifier) SendOrderConfirmation(context.Context, *order.Order, *user.User) error {
	return errors.New("smtp unavailable")
}

type fixture struct {
	store      *inmemory.Store
	svc        *order.Service
	dispatcher *order.Dispatcher
	events     *recordingPublisher
	user       user.User
	product    product.Product
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()

	store := inmemory.NewStore()
	events := &recordingPublisher{}
	dispatcher := order.NewDispatcher(failingNotifier{}, events, 0, logger.Discard())
	svc := order.NewService(store.Orders(), store.Catalog(), store.Users(), store, dispatcher,
		order.Options{StrictTransitions: strict}, logger.Discard())

	u := store.AddUser(user.User{Email: "client@example.com", Role: user.RoleClient})
	p := store.AddProduct(product.Product{
		Name:           "Rowing Gloves",
		Price:          decimal.RequireFromString("15.00"),
		InventoryCount: 8,
		IsActive:       true,
	})

	return &fixture{store: store, svc: svc, dispatcher: dispatcher, events: events, user: u, product: p}
}

// placeOrder records an order for two units as if checkout had already taken the stock
func (f *fixture) placeOrder(t *testing.T, number string, status order.OrderStatus) *order.Order {
	t.Helper()

	o := &order.Order{
		OrderNumber:   number,
		UserID:        f.user.ID,
		Status:        status,
		PaymentStatus: order.PaymentStatusPending,
		PaymentMethod: order.PaymentMethodPayPal,
		Subtotal:      decimal.RequireFromString("30.00"),
		TotalAmount:   decimal.RequireFromString("48.00"),
		CustomerNotes: "Leave at the gym reception",
		Items: []order.OrderItem{{
			ProductID:   f.product.ID,
			Quantity:    2,
			Price:       f.product.Price,
			TotalPrice:  decimal.RequireFromString("30.00"),
			ProductName: f.product.Name,
		}},
	}
	o.AddStatusHistory("Order placed")
	require.NoError(t, f.store.Orders().Create(context.Background(), o))
	return o
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.store.Catalog().FindProductByID(context.Background(), f.product.ID)
	require.NoError(t, err)
	return p.InventoryCount
}

func TestCancelShippedOrderConflicts(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o := f.placeOrder(t, "ORD-1", order.OrderStatusShipped)

	_, err := f.svc.Cancel(ctx, o.ID, "changed mind")
	require.ErrorIs(t, err, apperror.ErrConflict)

	got, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusShipped, got.Status)
	assert.Equal(t, "Leave at the gym reception", got.CustomerNotes)
	assert.Equal(t, 8, f.stock(t))
}

func TestCancelAppendsReasonAndRestocks(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o := f.placeOrder(t, "ORD-2", order.OrderStatusConfirmed)

	got, err := f.svc.Cancel(ctx, o.ID, "ordered twice")
	require.NoError(t, err)

	assert.Equal(t, order.OrderStatusCancelled, got.Status)
	assert.Equal(t, "Leave at the gym reception\n\nCancellation reason: ordered twice", got.CustomerNotes)
	assert.Equal(t, 10, f.stock(t))
	assert.Len(t, got.StatusHistory, 2)

	_, err = f.svc.Cancel(ctx, o.ID, "again")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 10, f.stock(t), "stock is returned once")

	f.dispatcher.Wait()
	assert.Contains(t, f.events.types(), order.EventOrderCancelled)
}

func TestCancelForUserChecksOwnership(t *testing.T) {
	f := newFixture(t, true)
	o := f.placeOrder(t, "ORD-3", order.OrderStatusPending)

	_, err := f.svc.CancelForUser(context.Background(), o.ID, f.user.ID+100, "not mine")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateStatusStrictTransitions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o := f.placeOrder(t, "ORD-4", order.OrderStatusPending)

	_, err := f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusDelivered, "")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	for _, next := range []order.OrderStatus{
		order.OrderStatusConfirmed,
		order.OrderStatusProcessing,
		order.OrderStatusShipped,
		order.OrderStatusDelivered,
	} {
		got, err := f.svc.UpdateStatus(ctx, o.ID, next, "")
		require.NoError(t, err, next)
		assert.Equal(t, next, got.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusPending, "")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.svc.UpdateStatus(ctx, o.ID, order.OrderStatus("LOST"), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateStatusPermissiveMode(t *testing.T) {
	f := newFixture(t, false)
	o := f.placeOrder(t, "ORD-5", order.OrderStatusPending)

	got, err := f.svc.UpdateStatus(context.Background(), o.ID, order.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusDelivered, got.Status)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestUpdateStatusCancelledRestocks(t *testing.T) {
	f := newFixture(t, true)
	o := f.placeOrder(t, "ORD-6", order.OrderStatusProcessing)

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, order.OrderStatusCancelled, "warehouse")
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t))
}

func TestReopenedOrderIsRestockedOnce(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	o := f.placeOrder(t, "ORD-20", order.OrderStatusPending)

	_, err := f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t))

	_, err = f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusProcessing, "")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t))

	_, err = f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusPending, "")
	require.NoError(t, err)
	got, err := f.svc.Cancel(ctx, o.ID, "second thoughts")
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, got.Status)
	assert.Equal(t, 10, f.stock(t))
}

func TestStatusHistoryCarriesStoredIDs(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o := f.placeOrder(t, "ORD-21", order.OrderStatusPending)

	got, err := f.svc.UpdateStatus(ctx, o.ID, order.OrderStatusConfirmed, "")
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 2)
	for _, h := range got.StatusHistory {
		assert.NotZero(t, h.ID)
	}

	h := o.AddStatusHistory("manual note")
	require.NoError(t, f.store.Orders().AddHistory(ctx, h))
	assert.NotZero(t, o.StatusHistory[len(o.StatusHistory)-1].ID)
}

func TestUpdatePaymentStatus(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	o := f.placeOrder(t, "ORD-7", order.OrderStatusPending)

	got, err := f.svc.UpdatePaymentStatus(ctx, o.ID, order.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPaid, got.PaymentStatus)

	_, err = f.svc.UpdatePaymentStatus(ctx, o.ID, order.PaymentStatusPending)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	got, err = f.svc.UpdatePaymentStatus(ctx, o.ID, order.PaymentStatusPartialRefund)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusPartialRefund, got.PaymentStatus)
}

func TestListAndLookups(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.placeOrder(t, "ORD-10", order.OrderStatusPending)
	f.placeOrder(t, "ORD-11", order.OrderStatusConfirmed)
	last := f.placeOrder(t, "ORD-12", order.OrderStatusConfirmed)

	resp, err := f.svc.ListByUser(ctx, f.user.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
	assert.EqualValues(t, 3, resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasNext)

	recent, err := f.svc.ListRecentByUser(ctx, f.user.ID, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, last.ID, recent[0].ID)

	confirmed, err := f.svc.List(ctx, order.OrderStatusConfirmed, 1, 20)
	require.NoError(t, err)
	assert.Len(t, confirmed.Orders, 2)

	byNumber, err := f.svc.GetByOrderNumber(ctx, "ORD-11")
	require.NoError(t, err)
	assert.Len(t, byNumber.Items, 1)

	_, err = f.svc.GetByOrderNumber(ctx, "ORD-404")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.GetForUser(ctx, last.ID, f.user.ID+1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResendConfirmationSwallowsNotifierErrors(t *testing.T) {
	f := newFixture(t, true)
	o := f.placeOrder(t, "ORD-20", order.OrderStatusConfirmed)

	require.NoError(t, f.svc.ResendConfirmation(context.Background(), o.ID))
	f.dispatcher.Wait()

	assert.Contains(t, f.events.types(), order.EventConfirmationResent)
}

func TestUpdateTracking(t *testing.T) {
	f := newFixture(t, true)
	o := f.placeOrder(t, "ORD-21", order.OrderStatusShipped)

	got, err := f.svc.UpdateTracking(context.Background(), o.ID, "1Z999AA10123456784")
	require.NoError(t, err)
	assert.Equal(t, "1Z999AA10123456784", got.TrackingNumber)
}
