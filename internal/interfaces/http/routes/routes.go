// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/fitness-backend/internal/interfaces/http/handlers"
	"github.com/your-org/fitness-backend/internal/interfaces/http/middleware"
	"github.com/your-org/fitness-backend/internal/pkg/auth"
)

// Handlers groups every API handler mounted under /api/v1
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Invoice  *handlers.InvoiceHandler
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	cart := rg.Group("/cart")
	cart.Use(middleware.AuthMiddleware(jwtManager))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:productId", h.Cart.UpdateItem)
		cart.DELETE("/items/:productId", h.Cart.RemoveItem)
		cart.DELETE("", h.Cart.ClearCart)
		cart.GET("/count", h.Cart.GetItemCount)
		cart.GET("/validate", h.Cart.ValidateCart)
	}
}

// SetupCheckoutRoutes sets up checkout related routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.AuthMiddleware(jwtManager))
	{
		checkout.GET("/summary", h.Checkout.GetCheckoutSummary)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(jwtManager))
	{
		orders.POST("/checkout", h.Checkout.Checkout)
		orders.GET("", h.Order.GetOrders)
		orders.GET("/recent", h.Order.GetRecentOrders)
		orders.GET("/number/:orderNumber", h.Order.GetOrderByNumber)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id/cancel", h.Order.CancelOrder)
		orders.GET("/:id/invoice", h.Invoice.GenerateInvoice)
	}
}

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager))
	admin.Use(middleware.AdminMiddleware())
	{
		orders := admin.Group("/orders")
		{
			orders.GET("", h.Order.AdminGetOrders)
			orders.GET("/:id", h.Order.AdminGetOrder)
			orders.PUT("/:id/status", h.Order.AdminUpdateOrderStatus)
			orders.PUT("/:id/payment-status", h.Order.AdminUpdatePaymentStatus)
			orders.PUT("/:id/tracking", h.Order.AdminUpdateTracking)
			orders.PUT("/:id/cancel", h.Order.AdminCancelOrder)
			orders.POST("/:id/resend-confirmation", h.Order.AdminResendConfirmation)
		}

		users := admin.Group("/users")
		{
			users.GET("/:userId/cart", h.Cart.AdminGetUserCart)
			users.DELETE("/:userId/cart", h.Cart.AdminClearUserCart)
		}
	}
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, h Handlers, jwtManager *auth.JWTManager) {
	SetupCartRoutes(rg, h, jwtManager)
	SetupCheckoutRoutes(rg, h, jwtManager)
	SetupOrderRoutes(rg, h, jwtManager)
	SetupAdminRoutes(rg, h, jwtManager)
}
