package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eshop/internal/entity"
	"eshop/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// AddToCart --> POST /api/cart
func (h *OrderHandler) AddToCart(c echo.Context) error {
	req := struct {
		UserID    *int `json:"userId"`
		ProductID int  `json:"productId"`
		Quantity  int  `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	userID, err := actingUser(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	if _, err := h.orderService.AddToCart(c.Request().Context(), userID, req.ProductID, req.Quantity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ListCart --> GET /api/cart
func (h *OrderHandler) ListCart(c echo.Context) error {
	items, err := h.orderService.ListCart(c.Request().Context(), identity(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// PlaceOrder --> POST /api/order
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	req := struct {
		UserID    *int               `json:"userId"`
		CartItems []entity.OrderLine `json:"cartItems"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	userID, err := actingUser(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	key := c.Request().Header.Get("Idempotency-Key")
	orders, err := h.orderService.PlaceOrder(c.Request().Context(), userID, req.CartItems, key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "orders": orders})
}
