package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"storefront/internal/entity"
	"time"
)

type Options struct {
	RateLimit float64
	RateBurst int
}

// NewRouter builds the echo server with every /api route registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	authHandler := NewAuthHandler(svc.Auth)
	catalogHandler := NewCatalogHandler(svc.Catalog)
	cartHandler := NewCartHandler(svc.Cart)
	orderHandler := NewOrderHandler(svc.Orders, svc.Admin)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RateLimiter(opts.RateLimit, opts.RateBurst))

	user := Authenticated(svc.Auth)
	vendor := append(Authenticated(svc.Auth), RequireRole(entity.RoleAdmin, entity.RoleVendor))
	admin := append(Authenticated(svc.Auth), RequireRole(entity.RoleAdmin))

	api := e.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "storefront",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout, user...)
	api.GET("/user", authHandler.Me, user...)

	api.GET("/categories", catalogHandler.ListCategories)
	api.POST("/categories", catalogHandler.CreateCategory, admin...)
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:id", catalogHandler.GetProduct)
	api.POST("/products", catalogHandler.CreateProduct, vendor...)
	api.PUT("/products/:id", catalogHandler.UpdateProduct, vendor...)
	api.DELETE("/products/:id", catalogHandler.DeleteProduct, vendor...)

	api.GET("/cart", cartHandler.List, user...)
	api.GET("/cart/summary", cartHandler.Summary, user...)
	api.POST("/cart", cartHandler.Add, user...)
	api.DELETE("/cart", cartHandler.Clear, user...)
	api.PUT("/cart/:id", cartHandler.Update, user...)
	api.DELETE("/cart/:id", cartHandler.Remove, user...)

	api.GET("/orders", orderHandler.ListOrders, user...)
	api.POST("/orders", orderHandler.CreateOrder, user...)
	api.GET("/orders/:id", orderHandler.GetOrder, user...)
	api.POST("/orders/:id/cancel", orderHandler.CancelOrder, user...)
	api.POST("/orders/:id/reorder", orderHandler.Reorder, user...)
	api.PATCH("/orders/:id/status", orderHandler.UpdateStatus, admin...)

	api.GET("/admin/stats", orderHandler.Stats, admin...)

	return e
}
