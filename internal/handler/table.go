package handler

import (
    "database/sql"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/velardez/venue-pos/internal/model"
    "github.com/velardez/venue-pos/internal/repository"
)

// TableHandler exposes venue table management.
type TableHandler struct {
    Tables *repository.TableRepo
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tables *repository.TableRepo) *TableHandler {
    if tables == nil {
        panic("nil repository passed to NewTableHandler")
    }
    return &TableHandler{Tables: tables}
}

type tableReq struct {
    Name     string `json:"name"`
    Capacity uint32 `json:"capacity"`
    Active   *bool  `json:"active"`
}

// List handles GET /v1/tables.
func (h *TableHandler) List(c echo.Context) error {
    items, err := h.Tables.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /v1/tables.
func (h *TableHandler) Create(c echo.Context) error {
    var req tableReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Name == "" || req.Capacity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive capacity required"})
    }
    active := true
    if req.Active != nil {
        active = *req.Active
    }
    t := model.Table{Name: req.Name, Capacity: req.Capacity, Active: active}
    if err := h.Tables.Create(c.Request().Context(), &t); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create table failed"})
    }
    return c.JSON(http.StatusCreated, t)
}

// Update handles PUT /v1/tables/:id.
func (h *TableHandler) Update(c echo.Context) error {
    id, err := parseIDParam(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
    }
    var req tableReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Name == "" || req.Capacity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive capacity required"})
    }
    active := true
    if req.Active != nil {
        active = *req.Active
    }
    t := model.Table{ID: id, Name: req.Name, Capacity: req.Capacity, Active: active}
    if err := h.Tables.Update(c.Request().Context(), &t); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update table failed"})
    }
    return c.JSON(http.StatusOK, t)
}
