package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/service"
	"storefront/internal/validation"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListProducts --> GET /api/products?search=&categoryId=&sort=
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	q, err := catalog.ParseQuery(c.QueryParams())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	products, err := h.catalogService.ListProducts(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	if products == nil {
		products = []entity.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct --> GET /api/products/:id
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	product, err := h.catalogService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct --> POST /api/products
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	in := validation.ProductInput{}
	if err := c.Bind(&in); err != nil {
		return invalidPayload(c)
	}
	product, err := h.catalogService.CreateProduct(c.Request().Context(), actorOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product's fields --> PUT /api/products/:id
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	in := validation.ProductInput{}
	if err := c.Bind(&in); err != nil {
		return invalidPayload(c)
	}
	product, err := h.catalogService.UpdateProduct(c.Request().Context(), actorOf(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct --> DELETE /api/products/:id
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return invalidID(c)
	}
	if err := h.catalogService.DeleteProduct(c.Request().Context(), actorOf(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCategories --> GET /api/categories
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if categories == nil {
		categories = []entity.Category{}
	}
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory --> POST /api/categories
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	in := validation.CategoryInput{}
	if err := c.Bind(&in); err != nil {
		return invalidPayload(c)
	}
	category, err := h.catalogService.CreateCategory(c.Request().Context(), actorOf(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, category)
}
