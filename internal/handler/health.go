package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health reports liveness for load balancers and monitoring.  It does
// not touch the database; a till that can reach this endpoint but not
// sell points at MySQL, not at the service.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
