// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/checkout"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	log             logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, log logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		log:             log,
	}
}

type summaryQuery struct {
	Country string `form:"country" binding:"required,max=100"`
}

// GetCheckoutSummary handles GET /checkout/summary?country=
func (h *CheckoutHandler) GetCheckoutSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var q summaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	breakdown, err := h.checkoutService.Preview(c.Request.Context(), userID, q.Country)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary calculated",
		"data":    breakdown,
	})
}

// Checkout handles POST /orders/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.checkoutService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		// a declined payment still produced a (cancelled) order the client can show
		if o != nil && apperror.KindOf(err) == apperror.KindPaymentFailed {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": apperror.PublicMessage(err),
				"data":  o,
			})
			return
		}
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    o,
	})
}
