package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/usaha/rental-api/internal/model"
    "github.com/usaha/rental-api/internal/policy"
    "github.com/usaha/rental-api/internal/repository"
)

// ToolHandler serves the marketplace tool CRUD.  Creation bundles the
// category tags and image URLs into one transaction.
type ToolHandler struct {
    Tools *repository.ToolRepo
}

func NewToolHandler(t *repository.ToolRepo) *ToolHandler {
    return &ToolHandler{Tools: t}
}

type toolReq struct {
    Name         string   `json:"name"`
    Description  string   `json:"description"`
    PricePerUnit int64    `json:"price_per_unit"`
    LocationLink string   `json:"location_link"`
    Stock        int      `json:"stock"`
    Categories   []string `json:"categories"`
    Images       []string `json:"images"`
}

// Create lists a new tool owned by the caller.
func (h *ToolHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req toolReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    t := model.Tool{
        OwnerID:      uid,
        Name:         req.Name,
        Description:  req.Description,
        PricePerUnit: req.PricePerUnit,
        LocationLink: req.LocationLink,
        Stock:        req.Stock,
    }
    if ve := t.Validate(); ve != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Tools.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Tools.CreateTx(ctx, tx, &t); err != nil {
        return repoError(c, err, "create tool failed")
    }
    if err := h.Tools.TagCategoriesTx(ctx, tx, t.ID, req.Categories); err != nil {
        return repoError(c, err, "tag categories failed")
    }
    if err := h.Tools.AddImagesTx(ctx, tx, t.ID, req.Images); err != nil {
        return repoError(c, err, "create images failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    detail, err := h.Tools.GetByID(ctx, t.ID)
    if err != nil {
        return repoError(c, err, "load tool failed")
    }
    return c.JSON(http.StatusCreated, detail)
}

// Update rewrites a tool's writable columns; owner only.
func (h *ToolHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req toolReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ownerID, err := h.Tools.GetOwnerID(ctx, id)
    if err != nil {
        return repoError(c, err, "load tool failed")
    }
    if !policy.Can(uid, policy.Update, policy.Resource{Kind: policy.KindTool, OwnerID: ownerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    t := model.Tool{
        ID:           id,
        OwnerID:      ownerID,
        Name:         req.Name,
        Description:  req.Description,
        PricePerUnit: req.PricePerUnit,
        LocationLink: req.LocationLink,
        Stock:        req.Stock,
    }
    if ve := t.Validate(); ve != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"errors": ve})
    }
    if err := h.Tools.Update(ctx, &t); err != nil {
        return repoError(c, err, "update tool failed")
    }
    detail, err := h.Tools.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load tool failed")
    }
    return c.JSON(http.StatusOK, detail)
}

// Delete removes a tool and its dependent rows; owner only.
func (h *ToolHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    ownerID, err := h.Tools.GetOwnerID(ctx, id)
    if err != nil {
        return repoError(c, err, "load tool failed")
    }
    if !policy.Can(uid, policy.Delete, policy.Resource{Kind: policy.KindTool, OwnerID: ownerID}) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }

    tx, err := h.Tools.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Tools.DeleteTx(ctx, tx, id); err != nil {
        return repoError(c, err, "delete tool failed")
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.NoContent(http.StatusNoContent)
}
