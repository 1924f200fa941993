// internal/domain/order/service.go
package order

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/metrics"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// Service drives orders through their lifecycle after checkout
type Service struct {
	orders     Repository
	catalog    product.Catalog
	users      user.Repository
	tx         txn.Transactor
	dispatcher *Dispatcher
	strict     bool
	log        logrus.FieldLogger
}

// Options configures the lifecycle service
type Options struct {
	// StrictTransitions rejects status changes outside the transition table
	StrictTransitions bool
}

// NewService creates a new order service
func NewService(orders Repository, catalog product.Catalog, users user.Repository, tx txn.Transactor, dispatcher *Dispatcher, opts Options, log logrus.FieldLogger) *Service {
	return &Service{
		orders:     orders,
		catalog:    catalog,
		users:      users,
		tx:         tx,
		dispatcher: dispatcher,
		strict:     opts.StrictTransitions,
		log:        log.WithField("component", "order"),
	}
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  OrderStatus `json:"status" binding:"required"`
	Comment string      `json:"comment"`
}

// UpdatePaymentStatusRequest represents an admin payment status change
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" binding:"required"`
}

// CancelRequest carries the cancellation reason
type CancelRequest struct {
	Reason string `json:"reason"`
}

// UpdateTrackingRequest sets the carrier tracking number
type UpdateTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Get retrieves a single order by ID
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	return s.orders.FindByID(ctx, id)
}

// GetForUser retrieves an order only if userID owns it
func (s *Service) GetForUser(ctx context.Context, id, userID uint) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperror.NotFoundf("order not found: %d", id)
	}
	return o, nil
}

// GetByOrderNumber retrieves a single order by order number
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.orders.FindByOrderNumber(ctx, orderNumber)
}

// ListByUser returns a user's orders, newest first
func (s *Service) ListByUser(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	return s.list(ctx, ListFilter{UserID: &userID, Page: page, Limit: limit})
}

// ListRecentByUser returns at most limit of the user's latest orders
func (s *Service) ListRecentByUser(ctx context.Context, userID uint, limit int) ([]Order, error) {
	resp, err := s.list(ctx, ListFilter{UserID: &userID, Page: 1, Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// List returns all orders, optionally narrowed to one status
func (s *Service) List(ctx context.Context, status OrderStatus, page, limit int) (*OrderResponse, error) {
	if status != "" && !status.Valid() {
		return nil, apperror.Validation("invalid order status: %s", status)
	}
	return s.list(ctx, ListFilter{Status: status, Page: page, Limit: limit})
}

func (s *Service) list(ctx context.Context, filter ListFilter) (*OrderResponse, error) {
	filter = filter.Normalize()

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    filter.Page < totalPages,
			HasPrev:    filter.Page > 1,
		},
	}, nil
}

// UpdateStatus moves an order to status. Cancelling through here returns the
// stock the same way Cancel does.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status OrderStatus, comment string) (*Order, error) {
	if !status.Valid() {
		return nil, apperror.Validation("invalid order status: %s", status)
	}

	var updated *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == status {
			updated = o
			return nil
		}
		if s.strict && !isValidStatusTransition(o.Status, status) {
			return apperror.Conflict("invalid status transition from %s to %s", o.Status, status)
		}

		if status == OrderStatusCancelled && o.HoldsInventory() {
			if err := s.restoreInventory(ctx, o); err != nil {
				return err
			}
		}

		o.Status = status
		if comment == "" {
			comment = "Status changed to " + string(status)
		}
		if err := s.save(ctx, o, comment); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": id,
		"status":   updated.Status,
	}).Info("Order status updated")
	s.dispatcher.Changed(EventOrderStatusChanged, updated)

	return s.orders.FindByID(ctx, id)
}

// UpdatePaymentStatus records a payment outcome reported by an admin or gateway
func (s *Service) UpdatePaymentStatus(ctx context.Context, id uint, status PaymentStatus) (*Order, error) {
	if !status.Valid() {
		return nil, apperror.Validation("invalid payment status: %s", status)
	}

	var updated *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if o.PaymentStatus == status {
			updated = o
			return nil
		}
		if s.strict && !isValidPaymentTransition(o.PaymentStatus, status) {
			return apperror.Conflict("invalid payment status transition from %s to %s", o.PaymentStatus, status)
		}

		o.PaymentStatus = status
		if err := s.save(ctx, o, "Payment status changed to "+string(status)); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":       id,
		"payment_status": updated.PaymentStatus,
	}).Info("Order payment status updated")
	s.dispatcher.Changed(EventOrderPaymentChanged, updated)

	return s.orders.FindByID(ctx, id)
}

// Cancel cancels an order that has not shipped yet and puts its items back in stock
func (s *Service) Cancel(ctx context.Context, id uint, reason string) (*Order, error) {
	return s.cancel(ctx, id, nil, reason)
}

// CancelForUser cancels an order on behalf of its owner
func (s *Service) CancelForUser(ctx context.Context, id, userID uint, reason string) (*Order, error) {
	return s.cancel(ctx, id, &userID, reason)
}

func (s *Service) cancel(ctx context.Context, id uint, ownerID *uint, reason string) (*Order, error) {
	var cancelled *Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if ownerID != nil && o.UserID != *ownerID {
			return apperror.NotFoundf("order not found: %d", id)
		}

		switch o.Status {
		case OrderStatusShipped, OrderStatusDelivered:
			return apperror.Conflict("cannot cancel order that has been shipped or delivered")
		case OrderStatusCancelled, OrderStatusReturned, OrderStatusRefunded:
			return apperror.Conflict("order cannot be cancelled in current status: %s", o.Status)
		}

		if err := s.restoreInventory(ctx, o); err != nil {
			return err
		}

		o.Status = OrderStatusCancelled
		if reason != "" {
			o.AppendNote("\n\nCancellation reason: " + reason)
		}
		if err := s.save(ctx, o, "Order cancelled: "+reason); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": id,
		"reason":   reason,
	}).Info("Order cancelled")
	metrics.OrdersCancelledTotal.Inc()
	s.dispatcher.Changed(EventOrderCancelled, cancelled)

	return s.orders.FindByID(ctx, id)
}

// UpdateTracking sets the carrier tracking number
func (s *Service) UpdateTracking(ctx context.Context, id uint, trackingNumber string) (*Order, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.LockByID(ctx, id)
		if err != nil {
			return err
		}
		o.TrackingNumber = trackingNumber
		o.UpdatedAt = time.Now().UTC()
		return s.orders.Save(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, id)
}

// ResendConfirmation dispatches the confirmation for an existing order again
func (s *Service) ResendConfirmation(ctx context.Context, id uint) error {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u, err := s.users.FindUserByID(ctx, o.UserID)
	if err != nil {
		return err
	}

	s.dispatcher.Confirmation(EventConfirmationResent, o, u)
	s.log.WithField("order_number", o.OrderNumber).Info("Order confirmation re-sent")
	return nil
}

func (s *Service) save(ctx context.Context, o *Order, comment string) error {
	o.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(ctx, o); err != nil {
		return err
	}
	return s.orders.AddHistory(ctx, o.AddStatusHistory(comment))
}

func (s *Service) restoreInventory(ctx context.Context, o *Order) error {
	if o.InventoryReleased {
		return nil
	}
	for _, item := range o.Items {
		if err := s.catalog.RestoreInventory(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	o.InventoryReleased = true
	return nil
}

var validStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusCancelled,
	},
	OrderStatusConfirmed: {
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderStatusDelivered,
	},
	OrderStatusDelivered: {
		OrderStatusReturned,
		OrderStatusRefunded,
	},
	OrderStatusReturned: {
		OrderStatusRefunded,
	},
	OrderStatusCancelled: {
		OrderStatusRefunded,
	},
}

var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {
		PaymentStatusPaid,
		PaymentStatusFailed,
		PaymentStatusCancelled,
	},
	PaymentStatusFailed: {
		PaymentStatusPaid,
		PaymentStatusCancelled,
	},
	PaymentStatusPaid: {
		PaymentStatusRefunded,
		PaymentStatusPartialRefund,
	},
	PaymentStatusPartialRefund: {
		PaymentStatusRefunded,
	},
}

func isValidStatusTransition(from, to OrderStatus) bool {
	for _, status := range validStatusTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

func isValidPaymentTransition(from, to PaymentStatus) bool {
	for _, status := range validPaymentTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}
