// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	log          logrus.FieldLogger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// GetOrders handles GET /orders (user's own orders)
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	page := queryInt(c, "page", 1, 0)
	limit := queryInt(c, "limit", 20, 100)

	response, err := h.orderService.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetRecentOrders handles GET /orders/recent
func (h *OrderHandler) GetRecentOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListRecentByUser(c.Request.Context(), userID, queryInt(c, "limit", 5, 50))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recent orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	o, err := h.orderService.GetForUser(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// GetOrderByNumber handles GET /orders/number/:orderNumber
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderNumber := c.Param("orderNumber")

	o, err := h.orderService.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err == nil && o.UserID != userID {
		err = apperror.NotFound("order", orderNumber)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles PUT /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.CancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	o, err := h.orderService.CancelForUser(c.Request.Context(), orderID, userID, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    o,
	})
}

// AdminGetOrders handles GET /admin/orders?status=
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	status := order.OrderStatus(c.Query("status"))
	page := queryInt(c, "page", 1, 0)
	limit := queryInt(c, "limit", 20, 100)

	response, err := h.orderService.List(c.Request.Context(), status, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status, req.Comment)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    o,
	})
}

// AdminUpdatePaymentStatus handles PUT /admin/orders/:id/payment-status
func (h *OrderHandler) AdminUpdatePaymentStatus(c *gin.Context) {
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), orderID, req.PaymentStatus)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment status updated successfully",
		"data":    o,
	})
}

// AdminUpdateTracking handles PUT /admin/orders/:id/tracking
func (h *OrderHandler) AdminUpdateTracking(c *gin.Context) {
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.UpdateTracking(c.Request.Context(), orderID, req.TrackingNumber)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tracking number updated successfully",
		"data":    o,
	})
}

// AdminCancelOrder handles PUT /admin/orders/:id/cancel
func (h *OrderHandler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.CancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	o, err := h.orderService.Cancel(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    o,
	})
}

// AdminResendConfirmation handles POST /admin/orders/:id/resend-confirmation
func (h *OrderHandler) AdminResendConfirmation(c *gin.Context) {
	orderID, ok := uintParam(c, "id", "order ID")
	if !ok {
		return
	}

	if err := h.orderService.ResendConfirmation(c.Request.Context(), orderID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Order confirmation queued",
	})
}

// bindOptionalJSON binds the body into dst when one was sent
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}
