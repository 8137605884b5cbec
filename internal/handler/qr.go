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

// QRHandler exposes the scanner endpoint and the admin code listing.
type QRHandler struct {
    Redemption *service.Redemption
    QRs        *repository.QRRepo
}

// NewQRHandler constructs a QRHandler.
func NewQRHandler(redemption *service.Redemption, qrs *repository.QRRepo) *QRHandler {
    if redemption == nil || qrs == nil {
        panic("nil dependency passed to NewQRHandler")
    }
    return &QRHandler{Redemption: redemption, QRs: qrs}
}

// Redeem handles POST /v1/qr/redeem. Every failure mode (unknown
// code, wrong signature, already used, expired) answers with the same
// 409 INVALID_OR_USED body so the response does not tell a guesser
// which part was wrong.
func (h *QRHandler) Redeem(c echo.Context) error {
    staffID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req struct {
        Code      string `json:"code"`
        Signature string `json:"signature"`
    }
    if err := c.Bind(&req); err != nil || req.Code == "" || req.Signature == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and signature required"})
    }
    res, err := h.Redemption.Redeem(c.Request().Context(), req.Code, req.Signature, staffID)
    if err != nil {
        if errors.Is(err, service.ErrInvalidOrUsed) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "INVALID_OR_USED"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem failed"})
    }
    ev := queue.QRRedeemedEvent{
        EventID:    uuid.NewString(),
        Kind:       res.Kind,
        RefID:      res.RefID,
        RedeemedBy: staffID,
        RedeemedAt: time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue.Publish(ctx, ev)
    }()
    return c.JSON(http.StatusOK, echo.Map{"kind": res.Kind, "ref_id": res.RefID})
}

// List handles GET /v1/qr with an optional ?state= filter. Admin only;
// signatures are never included in the response.
func (h *QRHandler) List(c echo.Context) error {
    state := c.QueryParam("state")
    if state != "" && state != model.QRActive && state != model.QRRedeemed {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid state"})
    }
    items, err := h.QRs.List(c.Request().Context(), state)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
