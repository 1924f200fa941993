// Package app wires the domain services, handlers and HTTP server together.
package app

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/checkout"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/payment"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	apihttp "github.com/your-org/fitness-backend/internal/interfaces/http"
	"github.com/your-org/fitness-backend/internal/interfaces/http/handlers"
	"github.com/your-org/fitness-backend/internal/interfaces/http/routes"
	"github.com/your-org/fitness-backend/internal/pkg/auth"
	"github.com/your-org/fitness-backend/internal/pkg/pdf"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// Storage is the persistence backend, postgres or in-memory
type Storage struct {
	Users   user.Repository
	Catalog product.Catalog
	Carts   cart.Repository
	Orders  order.Repository
	Tx      txn.Transactor
}

// Collaborators are the optional outside services. Nil fields are skipped,
// except Payments which falls back to the mock processor.
type Collaborators struct {
	Notifier    order.Notifier
	Events      order.EventPublisher
	Payments    payment.Processor
	Locker      checkout.Locker
	RateLimiter redis.Cmdable
	Health      []handlers.HealthCheck
}

// App holds the assembled services
type App struct {
	Server     *apihttp.Server
	Dispatcher *order.Dispatcher
	JWT        *auth.JWTManager
	Carts      *cart.Service
	Checkout   *checkout.Service
	Orders     *order.Service
}

// New builds every service on top of storage and mounts them on a server
func New(cfg *config.Config, storage Storage, collab Collaborators, log logrus.FieldLogger) *App {
	if collab.Payments == nil {
		collab.Payments = payment.NewMockProcessor(0, log)
	}

	jwtManager := auth.NewJWTManager(cfg)
	dispatcher := order.NewDispatcher(collab.Notifier, collab.Events, cfg.Checkout.NotificationTimeout, log)

	cartService := cart.NewService(storage.Carts, storage.Catalog, storage.Users, storage.Tx, log)
	orderService := order.NewService(storage.Orders, storage.Catalog, storage.Users, storage.Tx, dispatcher,
		order.Options{StrictTransitions: cfg.Checkout.StrictTransitions}, log)
	checkoutService := checkout.NewService(checkout.Dependencies{
		Users:      storage.Users,
		Carts:      storage.Carts,
		CartSvc:    cartService,
		Catalog:    storage.Catalog,
		Orders:     storage.Orders,
		Tx:         storage.Tx,
		Payments:   collab.Payments,
		Dispatcher: dispatcher,
		Locker:     collab.Locker,
	}, checkout.Options{
		PaymentTimeout:    cfg.Checkout.PaymentTimeout,
		LockTTL:           cfg.Checkout.LockTTL,
		EstimatedDelivery: cfg.Checkout.EstimatedDeliveryAfter,
	}, log)

	server := apihttp.NewServer(cfg, apihttp.Options{
		Handlers: routes.Handlers{
			Cart:     handlers.NewCartHandler(cartService, log),
			Checkout: handlers.NewCheckoutHandler(checkoutService, log),
			Order:    handlers.NewOrderHandler(orderService, log),
			Invoice:  handlers.NewInvoiceHandler(orderService, pdf.NewService(cfg.Invoice), log),
		},
		Health:      handlers.NewHealthHandler(cfg.App.Version, cfg.App.Environment, collab.Health...),
		JWTManager:  jwtManager,
		RateLimiter: collab.RateLimiter,
	}, log)

	return &App{
		Server:     server,
		Dispatcher: dispatcher,
		JWT:        jwtManager,
		Carts:      cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
	}
}
