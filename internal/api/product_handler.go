package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"eshop/internal/entity"
	"eshop/internal/service"
)

type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler creates a new instance of ProductHandler
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// ListProducts lists the catalog --> GET /api/products?search=&category=&currency=
func (h *ProductHandler) ListProducts(c echo.Context) error {
	filter := entity.ProductFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	}
	products, err := h.catalogService.ListProducts(c.Request().Context(), filter, c.QueryParam("currency"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct returns one product --> GET /api/products/:id?currency=
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}
	product, err := h.catalogService.GetProduct(c.Request().Context(), id, c.QueryParam("currency"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}
