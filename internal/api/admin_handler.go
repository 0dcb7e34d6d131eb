package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"eshop/internal/service"
)

type AdminHandler struct {
	catalogService *service.CatalogService
	adminService   *service.AdminService
}

// NewAdminHandler creates a new instance of AdminHandler
func NewAdminHandler(catalogService *service.CatalogService, adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{catalogService: catalogService, adminService: adminService}
}

// CreateProduct accepts JSON or multipart with an optional "image" file --> POST /api/admin/products
func (h *AdminHandler) CreateProduct(c echo.Context) error {
	req := struct {
		Name        string  `json:"name" form:"name"`
		Description string  `json:"description" form:"description"`
		CategoryID  int     `json:"category_id" form:"category_id"`
		Price       float64 `json:"price" form:"price"`
		Stock       int     `json:"stock" form:"stock"`
		Currency    string  `json:"currency" form:"currency"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	var upload *service.Upload
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("image")
		if err != nil && err != http.ErrMissingFile {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid image upload"})
		}
		if file != nil {
			src, err := file.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid image upload"})
			}
			defer src.Close()
			upload = &service.Upload{Filename: file.Filename, Body: src}
		}
	}

	product, err := h.catalogService.CreateProduct(c.Request().Context(), identity(c), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		Stock:       req.Stock,
		Currency:    req.Currency,
	}, upload)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "product": product})
}

// UpdateOrderStatus --> PUT /api/admin/orders/:orderId
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	orderID, err := strconv.Atoi(c.Param("orderId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}
	req := struct {
		Status string `json:"status" form:"status"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if _, err := h.adminService.UpdateOrderStatus(c.Request().Context(), identity(c), orderID, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ListOrders --> GET /api/admin/orders?status=
func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.adminService.ListOrders(c.Request().Context(), identity(c), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// ListUsers --> GET /api/admin/users
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.adminService.ListUsers(c.Request().Context(), identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// SalesStats --> GET /api/admin/sales-stats
func (h *AdminHandler) SalesStats(c echo.Context) error {
	stats, err := h.adminService.SalesStats(c.Request().Context(), identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
