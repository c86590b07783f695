// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"erp/config"
	"erp/internal/delivery/api/middleware"
	"erp/internal/delivery/api/router/handler"
	"erp/internal/domain/entity"
)

type RouterParams struct {
	fx.In

	AuthHandler     *handler.AuthHandler
	CustomerHandler *handler.CustomerHandler
	ProductHandler  *handler.ProductHandler
	OrderHandler    *handler.OrderHandler
	ExportHandler   *handler.ExportHandler
	HealthHandler   *handler.HealthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	Config          *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler     *handler.AuthHandler
	customerHandler *handler.CustomerHandler
	productHandler  *handler.ProductHandler
	orderHandler    *handler.OrderHandler
	exportHandler   *handler.ExportHandler
	healthHandler   *handler.HealthHandler
	authMiddleware  *middleware.AuthMiddleware
	config          *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:     params.AuthHandler,
		customerHandler: params.CustomerHandler,
		productHandler:  params.ProductHandler,
		orderHandler:    params.OrderHandler,
		exportHandler:   params.ExportHandler,
		healthHandler:   params.HealthHandler,
		authMiddleware:  params.AuthMiddleware,
		config:          params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	authenticated := r.authMiddleware.Authenticate
	adminOnly := r.authMiddleware.RequireRole(entity.RoleAdmin)

	e.GET("/health", r.healthHandler.Check)

	// Auth routes
	authGroup := e.Group("/auth")
	{
		authGroup.POST("", r.authHandler.Register, r.authMiddleware.OptionalAuthenticate)
		authGroup.POST("/register_with_customer", r.authHandler.RegisterWithCustomer)
		authGroup.POST("/token", r.authHandler.Token, middleware.NewLoginRateLimiter(r.config))
		authGroup.GET("/me", r.authHandler.Me, authenticated)
		authGroup.PATCH("/users/:id/customer", r.authHandler.LinkCustomer, authenticated, adminOnly)
	}

	// Customer routes; /me is registered before /:id so it is never parsed as an id
	customersGroup := e.Group("/customers", authenticated)
	{
		customersGroup.GET("/me", r.customerHandler.GetMe)
		customersGroup.PUT("/me", r.customerHandler.UpdateMe)

		customersGroup.GET("", r.customerHandler.List, adminOnly)
		customersGroup.POST("", r.customerHandler.Create, adminOnly)
		customersGroup.GET("/:id", r.customerHandler.Get, adminOnly)
		customersGroup.PUT("/:id", r.customerHandler.Update, adminOnly)
		customersGroup.DELETE("/:id", r.customerHandler.Delete, adminOnly)
		customersGroup.PATCH("/:id/blacklist", r.customerHandler.Blacklist, adminOnly)
	}

	// Product routes
	productsGroup := e.Group("/products", authenticated)
	{
		productsGroup.GET("", r.productHandler.List)
		productsGroup.GET("/:id", r.productHandler.Get)

		productsGroup.POST("", r.productHandler.Create, adminOnly)
		productsGroup.Match([]string{http.MethodPut, http.MethodPatch}, "/:id", r.productHandler.Update, adminOnly)
		productsGroup.DELETE("/:id", r.productHandler.Delete, adminOnly)
	}

	// Order routes
	ordersGroup := e.Group("/orders", authenticated)
	{
		ordersGroup.POST("", r.orderHandler.Create)
		ordersGroup.GET("", r.orderHandler.List)
		ordersGroup.GET("/:id", r.orderHandler.Get)
		ordersGroup.PATCH("/:id/cancel", r.orderHandler.Cancel)

		ordersGroup.PATCH("/:id/pay", r.orderHandler.Pay, adminOnly)
		ordersGroup.PATCH("/:id", r.orderHandler.Update, adminOnly)
	}

	// Report exports
	exportsGroup := e.Group("/exports", authenticated, adminOnly)
	{
		exportsGroup.GET("/:entity", r.exportHandler.Export)
	}
}
