package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// ProductHandler exposes the sell-screen catalog. Listing is open to
// all authenticated staff; creation and updates are admin-only and the
// role check happens in the router middleware.
type ProductHandler struct {
    Products *repository.ProductRepo
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(products *repository.ProductRepo) *ProductHandler {
    if products == nil {
        panic("nil repository passed to NewProductHandler")
    }
    return &ProductHandler{Products: products}
}

type productReq struct {
    Name       string  `json:"name"`
    Category   string  `json:"category"`
    PriceCents uint32  `json:"price_cents"`
    Active     *bool   `json:"active"`
    SKU        *string `json:"sku"`
    ImageURL   *string `json:"image_url"`
}

func validCategory(cat string) bool {
    return cat == model.CategoryDrink || cat == model.CategoryFood || cat == model.CategoryTicket
}

// List handles GET /v1/products. Supports an optional ?category=
// filter and returns only active products.
func (h *ProductHandler) List(c echo.Context) error {
    category := c.QueryParam("category")
    if category != "" && !validCategory(category) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
    }
    items, err := h.Products.ListActive(c.Request().Context(), category)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/products.
func (h *ProductHandler) Create(c echo.Context) error {
    var req productReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(req.Name) < 2 || !validCategory(req.Category) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and valid category required"})
    }
    active := true
    if req.Active != nil {
        active = *req.Active
    }
    p := repository.ProductRecord{
        Name:       req.Name,
        Category:   req.Category,
        PriceCents: req.PriceCents,
        Active:     active,
        SKU:        req.SKU,
        ImageURL:   req.ImageURL,
    }
    if err := h.Products.Create(c.Request().Context(), &p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
    }
    return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /v1/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
    id, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
    }
    var req productReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(req.Name) < 2 || !validCategory(req.Category) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and valid category required"})
    }
    active := true
    if req.Active != nil {
        active = *req.Active
    }
    p := repository.ProductRecord{
        ID:         id,
        Name:       req.Name,
        Category:   req.Category,
        PriceCents: req.PriceCents,
        Active:     active,
        SKU:        req.SKU,
        ImageURL:   req.ImageURL,
    }
    if err := h.Products.Update(c.Request().Context(), &p); err != nil {
        if err == repository.ErrProductNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
    }
    return c.JSON(http.StatusOK, p)
}
