package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"eshop/internal/service"
	"eshop/internal/storage"
)

type ServerConfig struct {
	UploadDir      string
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second per client; <= 0 disables
	RateBurst      int
}

type Services struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Admin   *service.AdminService
}

// NewServer builds the echo instance with middleware and every route.
func NewServer(cfg ServerConfig, svc Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(cfg)))
	}
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))
	}

	authHandler := NewAuthHandler(svc.Auth)
	productHandler := NewProductHandler(svc.Catalog)
	orderHandler := NewOrderHandler(svc.Orders)
	adminHandler := NewAdminHandler(svc.Catalog, svc.Admin)
	requireAuth := Authenticate(svc.Auth)

	if cfg.UploadDir != "" {
		e.Static(storage.PublicPrefix, cfg.UploadDir)
	}

	api := e.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/products", productHandler.ListProducts)
	api.GET("/products/:id", productHandler.GetProduct)

	api.POST("/cart", orderHandler.AddToCart, requireAuth)
	api.GET("/cart", orderHandler.ListCart, requireAuth)
	api.POST("/order", orderHandler.PlaceOrder, requireAuth)

	admin := api.Group("/admin", requireAuth, RequireAdmin)
	admin.POST("/products", adminHandler.CreateProduct)
	admin.PUT("/orders/:orderId", adminHandler.UpdateOrderStatus)
	admin.GET("/orders", adminHandler.ListOrders)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/sales-stats", adminHandler.SalesStats)

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "eshop",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}

func rateLimiterConfig(cfg ServerConfig) middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	}
}
