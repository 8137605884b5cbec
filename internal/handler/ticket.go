package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/queue"
    "github.com/velardez/venue-pos/internal/repository"
    "github.com/velardez/venue-pos/internal/service"
)

// TicketHandler exposes event ticket sales: creation, the seller's
// own-ticket listing and the mock payment endpoint.
type TicketHandler struct {
    Tickets     *repository.TicketRepo
    Fulfillment *service.Fulfillment
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(tickets *repository.TicketRepo, fulfillment *service.Fulfillment) *TicketHandler {
    if tickets == nil || fulfillment == nil {
        panic("nil dependency passed to NewTicketHandler")
    }
    return &TicketHandler{Tickets: tickets, Fulfillment: fulfillment}
}

// Create handles POST /v1/tickets. The ticket starts in the issued
// state; paying it later issues the door QR.
func (h *TicketHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req struct {
        EventDate  string `json:"event_date"`
        PriceCents uint32 `json:"price_cents"`
    }
    if err := c.Bind(&req); err != nil || req.EventDate == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date is required"})
    }
    eventDate, err := time.Parse(time.RFC3339, req.EventDate)
    if err != nil {
        // Accept a bare date too; tickets are day-granular for most venues.
        eventDate, err = time.Parse("2006-01-02", req.EventDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event_date"})
        }
    }
    t := model.Ticket{
        UserID:     userID,
        EventDate:  eventDate.UTC(),
        PriceCents: req.PriceCents,
        Status:     model.TicketIssued,
    }
    if err := h.Tickets.Create(c.Request().Context(), &t); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
    }
    return c.JSON(http.StatusCreated, t)
}

// ListMine handles GET /v1/tickets/mine and returns the caller's
// tickets.
func (h *TicketHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Tickets.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Pay handles POST /v1/tickets/:id/pay: mock payment plus QR issuance
// in one transaction.
func (h *TicketHandler) Pay(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    res, err := h.Fulfillment.PayTicket(c.Request().Context(), id)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "NOT_FOUND"})
        case errors.Is(err, service.ErrInvalidStatus):
            return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_STATUS"})
        case errors.Is(err, service.ErrTokenIssuanceFailed):
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "TOKEN_ISSUANCE_FAILED"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
    }
    ev := queue.TicketPaidEvent{
        EventID:    uuid.NewString(),
        TicketID:   res.RefID,
        UserID:     userID,
        QRID:       res.QRID,
        PriceCents: res.AmountCents,
        PaidAt:     time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue.Publish(ctx, ev)
    }()
    return c.JSON(http.StatusOK, echo.Map{
        "ticket_id":    res.RefID,
        "png_data_url": res.PNG,
        "code":         res.Code,
        "signature":    res.Signature,
    })
}
