package handler

import (
    "fmt"
    "math"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
)

// newJSONContext builds an echo context carrying an authenticated
// user, the way the JWT middleware would have left it.
func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, target, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(7))
    return c, rec
}

func TestCreateOrderRejectsTotalBeyondUint32(t *testing.T) {
    // 50,000,000 units at 100.00 each sums to 500,000,000,000 cents,
    // far past what the 32-bit total column can hold. The request must
    // be rejected, not stored with a wrapped total.
    h := &OrderHandler{}
    body := `{"type":"bar","items":[{"product_id":1,"qty":50000000,"unit_price_cents":10000}]}`
    c, rec := newJSONContext(t, http.MethodPost, "/v1/orders", body)

    if err := h.Create(c); err != nil {
        t.Fatalf("Create returned error: %v", err)
    }
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
    }
    if !strings.Contains(rec.Body.String(), "order total too large") {
        t.Fatalf("body = %q, want total-too-large error", rec.Body.String())
    }
}

func TestCreateOrderRejectsTotalOverflowAcrossItems(t *testing.T) {
    // Each line fits on its own; the running sum does not.
    h := &OrderHandler{}
    body := fmt.Sprintf(
        `{"type":"bar","items":[{"product_id":1,"qty":1,"unit_price_cents":%d},{"product_id":2,"qty":1,"unit_price_cents":1}]}`,
        uint64(math.MaxUint32))
    c, rec := newJSONContext(t, http.MethodPost, "/v1/orders", body)

    if err := h.Create(c); err != nil {
        t.Fatalf("Create returned error: %v", err)
    }
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
    }
}

func TestCreateOrderRejectsBadType(t *testing.T) {
    h := &OrderHandler{}
    body := `{"type":"arena","items":[{"product_id":1,"qty":1,"unit_price_cents":500}]}`
    c, rec := newJSONContext(t, http.MethodPost, "/v1/orders", body)

    if err := h.Create(c); err != nil {
        t.Fatalf("Create returned error: %v", err)
    }
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
    }
}
