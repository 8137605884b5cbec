package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// StockHandler exposes the inventory screen: listing current levels
// and applying manual adjustments (deliveries, breakage, recounts).
// Payment-time decrements never pass through here.
type StockHandler struct {
    Stock    *repository.StockRepo
    Products *repository.ProductRepo
}

// NewStockHandler constructs a StockHandler.
func NewStockHandler(stock *repository.StockRepo, products *repository.ProductRepo) *StockHandler {
    if stock == nil || products == nil {
        panic("nil repository passed to NewStockHandler")
    }
    return &StockHandler{Stock: stock, Products: products}
}

// List handles GET /v1/stock and returns every stock record joined
// with its product.
func (h *StockHandler) List(c echo.Context) error {
    items, err := h.Stock.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Adjust handles POST /v1/stock/:id/adjust, where :id is the product
// ID. The body carries a signed delta; a negative delta that would take
// stock below zero is rejected with 409 so the non-negative invariant
// holds even for manual corrections.
func (h *StockHandler) Adjust(c echo.Context) error {
    productID, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
    }
    var req struct {
        Delta    int32  `json:"delta"`
        Location string `json:"location"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Delta == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be non-zero"})
    }
    if req.Location != "" &&
        req.Location != model.LocationBar && req.Location != model.LocationRestaurant && req.Location != model.LocationDoor {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location"})
    }
    ctx := c.Request().Context()
    // Reject adjustments against unknown products up front; the stock
    // table has no row to upsert a name onto.
    if _, err := h.Products.GetByID(ctx, productID); err != nil {
        if errors.Is(err, repository.ErrProductNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    qty, err := h.Stock.Adjust(ctx, productID, req.Delta, req.Location)
    if err != nil {
        if errors.Is(err, repository.ErrInsufficientStock) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "INSUFFICIENT_STOCK"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "adjust stock failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"product_id": productID, "quantity": qty})
}
