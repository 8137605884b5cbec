package handler

import (
    "context"
    "errors"
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/queue"
    "github.com/velardez/venue-pos/internal/repository"
    "github.com/velardez/venue-pos/internal/service"
)

// orderTransitions lists the allowed status moves through the manual
// status endpoint. Payment is excluded on purpose: the only way to
// reach paid is the pay endpoint, which couples the flip with stock
// and code issuance. Redemption moves paid/ready orders to served on
// its own.
var orderTransitions = map[string][]string{
    model.OrderPending: {model.OrderCancelled},
    model.OrderPaid:    {model.OrderReady, model.OrderServed},
    model.OrderReady:   {model.OrderServed},
}

// OrderHandler exposes order creation, listing, manual status moves
// and the mock payment endpoint.
type OrderHandler struct {
    Orders      *repository.OrderRepo
    Fulfillment *service.Fulfillment
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *repository.OrderRepo, fulfillment *service.Fulfillment) *OrderHandler {
    if orders == nil || fulfillment == nil {
        panic("nil dependency passed to NewOrderHandler")
    }
    return &OrderHandler{Orders: orders, Fulfillment: fulfillment}
}

type orderItemReq struct {
    ProductID      uint64  `json:"product_id"`
    Qty            uint32  `json:"qty"`
    UnitPriceCents uint32  `json:"unit_price_cents"`
    Note           *string `json:"note"`
}

type createOrderReq struct {
    Type    string         `json:"type"`
    TableID *uint64        `json:"table_id"`
    Items   []orderItemReq `json:"items"`
}

// Create handles POST /v1/orders. The total is computed here, once,
// from the submitted line items; it is never recalculated afterwards.
func (h *OrderHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createOrderReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Type != model.OrderTypeBar && req.Type != model.OrderTypeRestaurant {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be bar or restaurant"})
    }
    if len(req.Items) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
    }
    o := model.Order{
        UserID:  userID,
        Type:    req.Type,
        TableID: req.TableID,
        Status:  model.OrderPending,
    }
    var total uint64
    for _, it := range req.Items {
        if it.ProductID == 0 || it.Qty == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "items need product_id and positive qty"})
        }
        total += uint64(it.Qty) * uint64(it.UnitPriceCents)
        // The stored total is authoritative and the column is 32-bit;
        // a sum that does not fit is a bad request, never a wrapped
        // number on an invoice.
        if total > math.MaxUint32 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "order total too large"})
        }
        o.Items = append(o.Items, model.OrderItem{
            ProductID:      it.ProductID,
            Qty:            it.Qty,
            UnitPriceCents: it.UnitPriceCents,
            Note:           it.Note,
        })
    }
    o.TotalCents = uint32(total)
    if err := h.Orders.Create(c.Request().Context(), &o); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
    }
    return c.JSON(http.StatusCreated, o)
}

// List handles GET /v1/orders with optional status, type and table_id
// filters.
func (h *OrderHandler) List(c echo.Context) error {
    var tableID uint64
    if raw := c.QueryParam("table_id"); raw != "" {
        n, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
        }
        tableID = n
    }
    items, err := h.Orders.List(c.Request().Context(), c.QueryParam("status"), c.QueryParam("type"), tableID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateStatus handles PATCH /v1/orders/:id/status. Transitions are
// forward-only along the fixed lifecycle; anything else is rejected
// with INVALID_STATUS.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
    id, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil || req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }
    ctx := c.Request().Context()
    o, err := h.Orders.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
    }
    allowed := false
    for _, next := range orderTransitions[o.Status] {
        if next == req.Status {
            allowed = true
            break
        }
    }
    if !allowed {
        return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_STATUS"})
    }
    ok, err := h.Orders.UpdateStatus(ctx, id, o.Status, req.Status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
    if !ok {
        // Lost a race with a concurrent transition; the client must
        // re-fetch to see the current state.
        return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_STATUS"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
}

// Pay handles POST /v1/orders/:id/pay. Payment is mocked: no gateway
// is involved, but everything else is real. Stock is decremented,
// the order moves to paid and a signed single-use QR is issued, all in
// one transaction.
func (h *OrderHandler) Pay(c echo.Context) error {
    id, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    res, err := h.Fulfillment.PayOrder(c.Request().Context(), id)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND"})
        case errors.Is(err, service.ErrInvalidStatus):
            return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_STATUS"})
        case errors.Is(err, repository.ErrInsufficientStock):
            return c.JSON(http.StatusConflict, echo.Map{"error": "INSUFFICIENT_STOCK"})
        case errors.Is(err, service.ErrTokenIssuanceFailed):
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "TOKEN_ISSUANCE_FAILED"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
    }
    // Notify downstream consumers off the request path; a broker outage
    // must never fail a sale that already committed.
    if o, err := h.Orders.GetByID(c.Request().Context(), id); err == nil {
        ev := queue.OrderPaidEvent{
            EventID:    uuid.NewString(),
            OrderID:    o.ID,
            UserID:     o.UserID,
            Type:       o.Type,
            TableID:    o.TableID,
            TotalCents: o.TotalCents,
            QRID:       res.QRID,
            PaidAt:     time.Now().UTC().Format(time.RFC3339),
        }
        go func() {
            ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            _ = queue.Publish(ctx, ev)
        }()
    }
    return c.JSON(http.StatusOK, echo.Map{
        "order_id":     res.RefID,
        "png_data_url": res.PNG,
        "code":         res.Code,
        "signature":    res.Signature,
    })
}
