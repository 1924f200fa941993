package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/user"
)

// Event types published for orders
const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderPaymentChanged = "order.payment_status_changed"
	EventOrderCancelled      = "order.cancelled"
	EventConfirmationResent  = "order.confirmation_resent"
)

// Event is the message published when an order changes
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"event_type"`
	OrderID       uint            `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uint            `json:"user_id"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewEvent snapshots o into an event of the given type
func NewEvent(eventType string, o *Order) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}

// Notifier sends the order confirmation to the customer
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, o *Order, u *user.User) error
}

// EventPublisher delivers order events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// Dispatcher runs notifications and event publishing off the request path.
// Failures are logged and never reach the caller.
type Dispatcher struct {
	notifier Notifier
	events   EventPublisher
	timeout  time.Duration
	log      logrus.FieldLogger
	wg       sync.WaitGroup
}

// NewDispatcher accepts nil for either collaborator to disable it
func NewDispatcher(notifier Notifier, events EventPublisher, timeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		notifier: notifier,
		events:   events,
		timeout:  timeout,
		log:      log.WithField("component", "order_dispatcher"),
	}
}

// Confirmation emails the customer and publishes eventType for o
func (d *Dispatcher) Confirmation(eventType string, o *Order, u *user.User) {
	snapshot := *o
	d.run(func(ctx context.Context) {
		if d.notifier != nil && u != nil {
			if err := d.notifier.SendOrderConfirmation(ctx, &snapshot, u); err != nil {
				d.log.WithError(err).WithField("order_number", snapshot.OrderNumber).
					Error("Failed to send order confirmation")
			}
		}
		d.publish(ctx, NewEvent(eventType, &snapshot))
	})
}

// Changed publishes eventType for o
func (d *Dispatcher) Changed(eventType string, o *Order) {
	e := NewEvent(eventType, o)
	d.run(func(ctx context.Context) {
		d.publish(ctx, e)
	})
}

// Wait blocks until every dispatched task has finished
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

func (d *Dispatcher) run(task func(ctx context.Context)) {
	if d == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("panic", r).Error("Order dispatch panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		task(ctx)
	}()
}

func (d *Dispatcher) publish(ctx context.Context, e Event) {
	if d.events == nil {
		return
	}
	if err := d.events.Publish(ctx, e); err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"event_type":   e.Type,
			"order_number": e.OrderNumber,
		}).Warn("Failed to publish order event")
	}
}
