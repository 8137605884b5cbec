package handler

import (
    "database/sql"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// comandaTransitions lists the allowed status moves for station slips.
var comandaTransitions = map[string][]string{
    model.ComandaQueued:     {model.ComandaInProgress, model.ComandaCancelled},
    model.ComandaInProgress: {model.ComandaServed, model.ComandaCancelled},
}

// ComandaHandler exposes station slips: cutting a slip from an order,
// the per-station work queue and status updates from the station
// display.
type ComandaHandler struct {
    Comandas *repository.ComandaRepo
    Orders   *repository.OrderRepo
}

// NewComandaHandler constructs a ComandaHandler.
func NewComandaHandler(comandas *repository.ComandaRepo, orders *repository.OrderRepo) *ComandaHandler {
    if comandas == nil || orders == nil {
        panic("nil repository passed to NewComandaHandler")
    }
    return &ComandaHandler{Comandas: comandas, Orders: orders}
}

type comandaItemReq struct {
    ProductID uint64  `json:"product_id"`
    Qty       uint32  `json:"qty"`
    Note      *string `json:"note"`
}

// Create handles POST /v1/comandas. The slip references an existing
// order and carries its own copy of the lines relevant to the station.
func (h *ComandaHandler) Create(c echo.Context) error {
    var req struct {
        OrderID uint64           `json:"order_id"`
        Station string           `json:"station"`
        Items   []comandaItemReq `json:"items"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.OrderID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
    }
    if req.Station != model.StationBar && req.Station != model.StationKitchen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "station must be bar or kitchen"})
    }
    if len(req.Items) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "items is required"})
    }
    ctx := c.Request().Context()
    if _, err := h.Orders.GetByID(ctx, req.OrderID); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    cm := model.Comanda{
        OrderID: req.OrderID,
        Station: req.Station,
        Status:  model.ComandaQueued,
    }
    for _, it := range req.Items {
        if it.ProductID == 0 || it.Qty == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "items need product_id and positive qty"})
        }
        cm.Items = append(cm.Items, model.ComandaItem{ProductID: it.ProductID, Qty: it.Qty, Note: it.Note})
    }
    if err := h.Comandas.Create(ctx, &cm); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create comanda failed"})
    }
    return c.JSON(http.StatusCreated, cm)
}

// List handles GET /v1/comandas with optional station and status
// filters, oldest first so stations work in FIFO order.
func (h *ComandaHandler) List(c echo.Context) error {
    station := c.QueryParam("station")
    if station != "" && station != model.StationBar && station != model.StationKitchen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station"})
    }
    items, err := h.Comandas.List(c.Request().Context(), station, c.QueryParam("status"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateStatus handles PATCH /v1/comandas/:id/status.
func (h *ComandaHandler) UpdateStatus(c echo.Context) error {
    id, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comanda id"})
    }
    var req struct {
        From   string `json:"from"`
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil || req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }
    // The station display sends the state it believes the slip is in;
    // default to queued for older clients.
    from := req.From
    if from == "" {
        from = model.ComandaQueued
    }
    allowed := false
    for _, next := range comandaTransitions[from] {
        if next == req.Status {
            allowed = true
            break
        }
    }
    if !allowed {
        return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_STATUS"})
    }
    ok, err := h.Comandas.UpdateStatus(c.Request().Context(), id, from, req.Status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
    if !ok {
        return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_STATUS"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
}
